package session

import (
	"winclink-go/drivers/winc"
	"winclink-go/errcode"
	"winclink-go/x/conv"
)

// Handle is the one session object for the co-processor: the driver plus
// everything derived from its events. Exactly one exists per chip and it
// lives either in its slot or with the context currently operating it.
type Handle struct {
	drv  winc.Driver
	conn ConnState
	scan ScanState

	fault  error // last failure recorded by the interrupt context
	faults uint32
}

func NewHandle(d winc.Driver) *Handle { return &Handle{drv: d} }

// OnEvent implements winc.EventSink. It only updates local state; anything
// that needs the driver waits for settle.
func (h *Handle) OnEvent(ev winc.Event) {
	switch ev.Kind {
	case winc.EvAPFound, winc.EvScanDone, winc.EvScanResult:
		h.scan.Apply(ev)
	case winc.EvFault:
		h.conn.Apply(ev)
		h.scan.Abort()
		var b [3]byte
		h.record(errcode.New(errcode.HardwareFault, "chip", "fault code "+string(conv.Utoa(b[:], uint64(ev.Code)))))
	default:
		h.conn.Apply(ev)
	}
}

// pump drains the chip once and then runs the bookkeeping that needs
// driver queries.
func (h *Handle) pump() error {
	err := h.drv.HandleEvents(h)
	h.settle()
	return err
}

func (h *Handle) settle() {
	if h.scan.reconcile {
		h.scan.Reconcile(h.drv.NumAP())
	}
	if h.scan.awaiting {
		if e, ok := h.drv.ScanResult(); ok {
			h.scan.Stage(e)
		}
	}
}

func (h *Handle) record(err error) {
	h.fault = err
	h.faults++
	if errcode.Of(err) == errcode.HardwareFault && h.conn.Status() != winc.StatusError {
		h.conn.Fault(0)
		h.scan.Abort()
	}
}

// reset clears everything derived from the previous session.
func (h *Handle) reset() {
	h.conn = ConnState{ignored: h.conn.ignored}
	h.scan = ScanState{ignored: h.scan.ignored}
	h.fault = nil
}

// view is the status reported to callers: an active scan shows through
// while the link is idle.
func (h *Handle) view() winc.Status {
	s := h.conn.Status()
	if h.scan.Phase() == ScanScanning && (s == winc.StatusIdle || s == winc.StatusDisconnected) {
		return winc.StatusScanning
	}
	return s
}

// snapshot is what the controller serves while the interrupt context holds
// the handle.
type snapshot struct {
	status   winc.Status
	count    uint8
	phase    ScanPhase
	fault    error
	ignored  uint32
	recorded uint32
}

func (h *Handle) snapshot() snapshot {
	return snapshot{
		status:   h.view(),
		count:    h.scan.Count(),
		phase:    h.scan.Phase(),
		fault:    h.fault,
		ignored:  h.conn.Ignored() + h.scan.Ignored(),
		recorded: h.faults,
	}
}

// usable gates operations that need a live session.
func (h *Handle) usable(op string) error {
	switch h.conn.Status() {
	case winc.StatusNotInitialized:
		return errcode.New(errcode.InvalidState, op, "not initialized")
	case winc.StatusError:
		if h.fault != nil {
			return errcode.Wrap(errcode.HardwareFault, op, h.fault)
		}
		return errcode.New(errcode.HardwareFault, op, "session faulted; re-initialize")
	}
	return nil
}
