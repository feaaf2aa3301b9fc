package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Session error kinds.
	TransportError  Code = "transport_error"
	Timeout         Code = "timeout"
	InvalidState    Code = "invalid_state"
	InvalidArgument Code = "invalid_argument"
	HardwareFault   Code = "hardware_fault"
	Busy            Code = "busy" // slot contention

	// Service/control plane.
	Unsupported    Code = "unsupported"
	InvalidPayload Code = "invalid_payload"
	NotReady       Code = "not_ready"
	UnknownDriver  Code = "unknown_driver"
	UnknownPin     Code = "unknown_pin"
	UnknownBus     Code = "unknown_bus"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil && e.Msg == "" {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Timeout) match wrapped codes.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches an op and code to err. A nil err yields nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// New builds an E without a cause.
func New(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}

// Retryable reports whether the caller may retry the whole operation.
// Invalid-state/argument are programmer errors; hardware faults need a
// re-initialize first.
func Retryable(err error) bool {
	switch Of(err) {
	case TransportError, Timeout, Busy:
		return true
	}
	return false
}

// MapDriverErr maps low-level driver errors to a Code. Errors that already
// carry a session code keep it; anything else is treated as a byte-level
// transport failure.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	switch c := Of(err); c {
	case TransportError, Timeout, InvalidState, InvalidArgument, HardwareFault, Busy, Unsupported:
		return c
	}
	return TransportError
}
