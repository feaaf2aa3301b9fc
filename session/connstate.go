package session

import "winclink-go/drivers/winc"

// ConnState is the logical connection state. It only moves when the
// dispatcher pumps an event (or on the boot report after initialize).
type ConnState struct {
	s       winc.Status
	code    uint8
	ignored uint32
}

func (c *ConnState) Status() winc.Status { return c.s }

// FaultCode is the chip error number that moved the state to Error.
func (c *ConnState) FaultCode() uint8 { return c.code }

// Ignored counts events that were not valid in the state they arrived in.
func (c *ConnState) Ignored() uint32 { return c.ignored }

// Boot applies the chip's first status report after a successful
// initialize. Anything but an error report lands in Idle.
func (c *ConnState) Boot(reported winc.Status) {
	c.code = 0
	if reported == winc.StatusError {
		c.s = winc.StatusError
		return
	}
	c.s = winc.StatusIdle
}

// Fault moves to Error without an event, for pump failures classified as
// hardware faults.
func (c *ConnState) Fault(code uint8) {
	c.s = winc.StatusError
	c.code = code
}

// Apply advances the machine by one event. It reports whether the event
// caused a transition.
func (c *ConnState) Apply(ev winc.Event) bool {
	next, ok := connNext(c.s, ev.Kind)
	if !ok {
		c.ignored++
		return false
	}
	if ev.Kind == winc.EvFault {
		c.code = ev.Code
	}
	c.s = next
	return true
}

func connNext(s winc.Status, k winc.EventKind) (winc.Status, bool) {
	if k == winc.EvFault {
		return winc.StatusError, true
	}
	switch s {
	case winc.StatusIdle, winc.StatusDisconnected:
		if k == winc.EvConnecting {
			return winc.StatusConnecting, true
		}
	case winc.StatusConnecting:
		switch k {
		case winc.EvConnected:
			return winc.StatusConnected, true
		case winc.EvConnectFailed, winc.EvDisconnected:
			return winc.StatusDisconnected, true
		}
	case winc.StatusConnected:
		if k == winc.EvDisconnected {
			return winc.StatusDisconnected, true
		}
	}
	return s, false
}
