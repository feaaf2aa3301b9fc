// Package session hands the co-processor's driver between the foreground
// and the signal-line interrupt, and keeps the connection and scan state
// derived from the events the interrupt pumps.
//
// The driver handle and the signal line each live in a slot.Slot. The
// Dispatcher borrows them on every edge; the Controller borrows the driver
// for each foreground operation. Neither side ever waits for the other:
// the interrupt skips a busy handle and the foreground retries a bounded
// number of times, then reports errcode.Busy.
package session

import (
	"context"
	"runtime"
	"time"

	"winclink-go/drivers/winc"
	"winclink-go/errcode"
	"winclink-go/x/slot"
)

// Options tune the foreground side.
type Options struct {
	Timing winc.Timing
	// Attempts bounds how often an operation retries taking the handle
	// while the interrupt context holds it. Default 64.
	Attempts int
	// Yield runs between attempts. Default runtime.Gosched.
	Yield func()
	// Delay is the foreground sleep used by WaitStatus. Default time.Sleep.
	Delay func(time.Duration)
}

// Stats aggregates the session counters.
type Stats struct {
	DispatchStats
	Ignored    uint32 // events invalid for the state they arrived in
	Busy       uint32 // foreground operations that gave up on the handle
	Overwrites uint32 // slot overwrites; non-zero is a defect
	Recorded   uint32 // failures recorded for the foreground (pump errors, chip faults)
}

// Controller is the foreground API. It is not safe for use from more than
// one goroutine at a time.
type Controller struct {
	drv  *slot.Slot[*Handle]
	disp *Dispatcher
	opt  Options

	last snapshot            // taken at every release, served when busy
	info winc.ConnectionInfo // last info read while connected
	busy uint32
}

// Open wires a driver and its signal line into a controller and the
// dispatcher to arm on the line.
func Open(d winc.Driver, line winc.SignalLine, opt Options) (*Controller, *Dispatcher) {
	ds := slot.New(NewHandle(d))
	ls := slot.New(line)
	disp := NewDispatcher(ds, ls)
	return NewController(ds, disp, opt), disp
}

func NewController(drv *slot.Slot[*Handle], disp *Dispatcher, opt Options) *Controller {
	if opt.Attempts <= 0 {
		opt.Attempts = 64
	}
	if opt.Yield == nil {
		opt.Yield = runtime.Gosched
	}
	if opt.Delay == nil {
		opt.Delay = time.Sleep
	}
	opt.Timing = opt.Timing.Normalize()
	return &Controller{drv: drv, disp: disp, opt: opt}
}

func (c *Controller) Timing() winc.Timing { return c.opt.Timing }

func (c *Controller) acquire(op string) (*Handle, error) {
	for i := 0; i < c.opt.Attempts; i++ {
		if h, ok := c.drv.Take(); ok {
			return h, nil
		}
		c.opt.Yield()
	}
	c.busy++
	return nil, errcode.New(errcode.Busy, op, "driver handle held by interrupt context")
}

func (c *Controller) release(h *Handle) {
	c.last = h.snapshot()
	c.drv.Put(h)
	if c.disp != nil && c.disp.Replay() {
		if h, ok := c.drv.Take(); ok {
			c.last = h.snapshot()
			c.drv.Put(h)
		}
	}
}

// with runs f on the handle between acquire and release.
func (c *Controller) with(op string, f func(h *Handle) error) error {
	h, err := c.acquire(op)
	if err != nil {
		return err
	}
	defer c.release(h)
	return f(h)
}

// mapErr classifies a driver error; already classified errors pass through.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	code := errcode.MapDriverErr(err)
	if errcode.Of(err) == code {
		return err
	}
	return errcode.Wrap(code, op, err)
}

// Initialize powers the chip up and runs the boot handshake. It may only
// be called once per session; a session in Error may be re-initialized.
func (c *Controller) Initialize() error {
	const op = "initialize"
	return c.with(op, func(h *Handle) error {
		switch h.conn.Status() {
		case winc.StatusNotInitialized, winc.StatusError:
		default:
			return errcode.New(errcode.InvalidState, op, "already initialized")
		}
		if err := h.drv.Initialize(); err != nil {
			return mapErr(op, err)
		}
		h.reset()
		h.conn.Boot(h.drv.GetStatus())
		return nil
	})
}

// Connect asks the chip to associate and returns once the request is
// accepted. Progress is observed through Status.
func (c *Controller) Connect(p winc.ConnectionParameters) error {
	const op = "connect"
	if err := p.Validate(); err != nil {
		return err
	}
	return c.with(op, func(h *Handle) error {
		if err := h.usable(op); err != nil {
			return err
		}
		return mapErr(op, h.drv.ConnectNetwork(p))
	})
}

// refresh takes and releases the handle so c.last is current. When the
// interrupt context holds it, c.last stays as of the previous release.
func (c *Controller) refresh(op string) {
	if h, err := c.acquire(op); err == nil {
		c.release(h)
	}
}

// Status is a snapshot of the connection state, or Scanning while a scan
// runs on an idle link. Apart from pumping edges deferred while the handle
// was held, it does not call the driver.
func (c *Controller) Status() winc.Status {
	c.refresh("status")
	return c.last.status
}

// ConnectionInfo is present only while connected. When the handle is busy
// the info last read is returned if the cached status is Connected.
func (c *Controller) ConnectionInfo() (info winc.ConnectionInfo, ok bool) {
	err := c.with("connection_info", func(h *Handle) error {
		if h.conn.Status() == winc.StatusConnected {
			info, ok = h.drv.GetConnectionInfo()
		}
		return nil
	})
	if err != nil {
		return c.info, c.last.status == winc.StatusConnected && c.info.SSID != ""
	}
	if ok {
		c.info = info
	}
	return info, ok
}

// RequestScan starts an asynchronous scan. A scan already running is
// rejected with InvalidState.
func (c *Controller) RequestScan(ch winc.Channel) error {
	const op = "request_scan"
	if !ch.Valid() {
		return winc.ErrBadChannel
	}
	return c.with(op, func(h *Handle) error {
		if err := h.usable(op); err != nil {
			return err
		}
		if err := h.scan.CanBegin(op); err != nil {
			return err
		}
		if err := h.drv.RequestNetworkScan(ch); err != nil {
			return mapErr(op, err)
		}
		h.scan.Begin()
		return nil
	})
}

// APCount is the number of access points found so far in the current scan.
// It never goes down before the next scan starts: while the handle is busy
// the count from the last release is served.
func (c *Controller) APCount() uint8 {
	c.refresh("ap_count")
	return c.last.count
}

// ScanPhase reports where the current scan is.
func (c *Controller) ScanPhase() ScanPhase {
	c.refresh("scan_phase")
	return c.last.phase
}

// FetchScanEntry asks the chip to stage result index. index must be below
// APCount.
func (c *Controller) FetchScanEntry(index uint8) error {
	const op = "fetch_scan_entry"
	return c.with(op, func(h *Handle) error {
		if err := h.usable(op); err != nil {
			return err
		}
		if err := h.scan.CheckIndex(op, index); err != nil {
			return err
		}
		return mapErr(op, h.drv.RequestScanResult(index))
	})
}

// TakeScanResult consumes the most recently staged entry. It reports false
// when nothing is staged yet or the handle is busy; callers poll.
func (c *Controller) TakeScanResult() (e winc.ScanEntry, ok bool) {
	_ = c.with("take_scan_result", func(h *Handle) error {
		e, ok = h.scan.Take()
		return nil
	})
	return e, ok
}

// SetGPIO sets the direction of one of the chip's own pins.
func (c *Controller) SetGPIO(pin winc.GPIO, dir winc.GPIODirection) error {
	const op = "set_gpio"
	if !pin.Valid() {
		return winc.ErrBadGPIO
	}
	return c.with(op, func(h *Handle) error {
		if err := h.usable(op); err != nil {
			return err
		}
		return mapErr(op, h.drv.SetGPIODirection(pin, dir))
	})
}

// SetGPIOValue drives one of the chip's own pins.
func (c *Controller) SetGPIOValue(pin winc.GPIO, v winc.GPIOValue) error {
	const op = "set_gpio_value"
	if !pin.Valid() {
		return winc.ErrBadGPIO
	}
	return c.with(op, func(h *Handle) error {
		if err := h.usable(op); err != nil {
			return err
		}
		return mapErr(op, h.drv.SetGPIOValue(pin, v))
	})
}

// FirmwareVersion reads the chip's firmware version. It works on a faulted
// session so the failure can be diagnosed.
func (c *Controller) FirmwareVersion() (v winc.FirmwareVersion, err error) {
	const op = "firmware_version"
	err = c.with(op, func(h *Handle) error {
		if h.conn.Status() == winc.StatusNotInitialized {
			return errcode.New(errcode.InvalidState, op, "not initialized")
		}
		var derr error
		v, derr = h.drv.GetFirmwareVersion()
		return mapErr(op, derr)
	})
	return v, err
}

// MACAddress reads the chip's station MAC. Like FirmwareVersion it works on
// a faulted session.
func (c *Controller) MACAddress() (m winc.MACAddress, err error) {
	const op = "mac_address"
	err = c.with(op, func(h *Handle) error {
		if h.conn.Status() == winc.StatusNotInitialized {
			return errcode.New(errcode.InvalidState, op, "not initialized")
		}
		var derr error
		m, derr = h.drv.GetMACAddress()
		return mapErr(op, derr)
	})
	return m, err
}

// Fault returns the last failure recorded by the interrupt context, or
// nil. It is cleared by Initialize.
func (c *Controller) Fault() error {
	c.refresh("fault")
	return c.last.fault
}

// WaitStatus polls Status until it equals want. It gives up with Timeout
// after bound (or the Timing connect timeout when bound is zero), and
// returns early with HardwareFault if the session faults.
func (c *Controller) WaitStatus(ctx context.Context, want winc.Status, bound time.Duration) error {
	const op = "wait_status"
	if bound <= 0 {
		bound = c.opt.Timing.ConnectTimeout
	}
	poll := c.opt.Timing.PollInterval
	for waited := time.Duration(0); ; waited += poll {
		s := c.Status()
		if s == want {
			return nil
		}
		if s == winc.StatusError && want != winc.StatusError {
			if f := c.Fault(); f != nil {
				return errcode.Wrap(errcode.HardwareFault, op, f)
			}
			return errcode.New(errcode.HardwareFault, op, "session faulted")
		}
		if waited >= bound {
			return errcode.New(errcode.Timeout, op, "still "+s.String()+", want "+want.String())
		}
		if err := ctx.Err(); err != nil {
			return errcode.Wrap(errcode.Timeout, op, err)
		}
		c.opt.Delay(poll)
	}
}

// Stats snapshots the dispatcher and state machine counters.
func (c *Controller) Stats() Stats {
	st := Stats{Busy: c.busy, Overwrites: c.drv.Overwrites()}
	if c.disp != nil {
		st.DispatchStats = c.disp.Stats()
	}
	c.refresh("stats")
	st.Ignored, st.Recorded = c.last.ignored, c.last.recorded
	return st
}
