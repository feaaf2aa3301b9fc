package session

import (
	"sync/atomic"

	"winclink-go/drivers/winc"
	"winclink-go/x/slot"
)

// DispatchStats are the dispatcher's counters.
type DispatchStats struct {
	Edges     uint32 // OnEdge invocations
	Pumps     uint32 // event pumps performed (edge or replay)
	Skips     uint32 // edges that found the driver handle busy
	LineSkips uint32 // edges that found the signal line busy
	Faults    uint32 // pumps that returned an error
	Replays   uint32 // deferred edges serviced from the foreground
}

// Dispatcher reacts to signal-line edges. OnEdge is the interrupt handler;
// it never blocks or retries, and skips whatever it cannot take.
type Dispatcher struct {
	drv  *slot.Slot[*Handle]
	line *slot.Slot[winc.SignalLine]

	// Written by the ISR.
	deferred  uint32
	edges     uint32
	pumps     uint32
	skips     uint32
	lineSkips uint32
	faults    uint32
	replays   uint32
}

func NewDispatcher(drv *slot.Slot[*Handle], line *slot.Slot[winc.SignalLine]) *Dispatcher {
	return &Dispatcher{drv: drv, line: line}
}

// OnEdge services one assertion of the signal line.
func (d *Dispatcher) OnEdge() {
	atomic.AddUint32(&d.edges, 1)
	if h, ok := d.drv.Take(); ok {
		d.pump(h)
		d.drv.Put(h)
	} else {
		atomic.AddUint32(&d.skips, 1)
		atomic.StoreUint32(&d.deferred, 1)
	}
	d.clearLine()
}

func (d *Dispatcher) pump(h *Handle) {
	// Anything queued before this point is drained by the pump below.
	atomic.StoreUint32(&d.deferred, 0)
	atomic.AddUint32(&d.pumps, 1)
	if err := h.pump(); err != nil {
		atomic.AddUint32(&d.faults, 1)
		h.record(err)
	}
}

func (d *Dispatcher) clearLine() {
	l, ok := d.line.Take()
	if !ok {
		atomic.AddUint32(&d.lineSkips, 1)
		return
	}
	l.ClearInterrupt()
	d.line.Put(l)
}

// Pending reports whether an edge is waiting for the handle to come back.
func (d *Dispatcher) Pending() bool { return atomic.LoadUint32(&d.deferred) != 0 }

// maxReplays bounds Replay when edges keep arriving while it pumps.
const maxReplays = 4

// Replay services edges that were skipped while the handle was held
// elsewhere. Call it from the foreground right after putting the handle
// back. It reports whether anything was pumped.
func (d *Dispatcher) Replay() bool {
	did := false
	for i := 0; i < maxReplays && atomic.LoadUint32(&d.deferred) != 0; i++ {
		h, ok := d.drv.Take()
		if !ok {
			// The interrupt context has it and will pump.
			break
		}
		if atomic.CompareAndSwapUint32(&d.deferred, 1, 0) {
			atomic.AddUint32(&d.replays, 1)
			d.pump(h)
			did = true
		}
		d.drv.Put(h)
	}
	if did {
		d.clearLine()
	}
	return did
}

func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Edges:     atomic.LoadUint32(&d.edges),
		Pumps:     atomic.LoadUint32(&d.pumps),
		Skips:     atomic.LoadUint32(&d.skips),
		LineSkips: atomic.LoadUint32(&d.lineSkips),
		Faults:    atomic.LoadUint32(&d.faults),
		Replays:   atomic.LoadUint32(&d.replays),
	}
}
