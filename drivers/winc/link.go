package winc

import (
	"time"

	"tinygo.org/x/drivers"

	"winclink-go/errcode"
	"winclink-go/x/mathx"
)

// PinOutput drives a control line. true is electrically high.
type PinOutput func(level bool)

// PinInput samples a line. true is electrically high.
type PinInput func() bool

// Link bundles the transport, delay source and control lines a driver
// needs. It is built once at startup after the lines are configured and
// is owned by the driver from then on.
type Link struct {
	SPI drivers.SPI

	CS     PinOutput // active low during each transaction
	Reset  PinOutput // active low
	Enable PinOutput // chip enable, high to run
	Wake   PinOutput // optional; high keeps the chip awake
	IRQ    PinInput  // optional level read of the signal line

	// Delay blocks the foreground for d. Defaults to time.Sleep.
	Delay func(d time.Duration)
}

// Validate checks that the mandatory lines are present.
func (l *Link) Validate() error {
	if l == nil || l.SPI == nil || l.CS == nil || l.Reset == nil || l.Enable == nil {
		return ErrNoLink
	}
	return nil
}

func (l *Link) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if l.Delay != nil {
		l.Delay(d)
		return
	}
	time.Sleep(d)
}

// Tx runs one SPI transaction with chip-select asserted around it.
// Bus failures come back as errcode.TransportError.
func (l *Link) Tx(w, r []byte) error {
	l.CS(false)
	err := l.SPI.Tx(w, r)
	l.CS(true)
	if err != nil {
		return errcode.Wrap(errcode.TransportError, "spi", err)
	}
	return nil
}

// Asserted reports whether the chip is holding the signal line low.
// Without an IRQ input it reports false.
func (l *Link) Asserted() bool {
	return l.IRQ != nil && !l.IRQ()
}

// SignalLine is the host's edge-triggered input from the co-processor.
type SignalLine interface {
	// Asserted reports whether the chip is holding the line active.
	Asserted() bool
	// ClearInterrupt clears the host-side edge latch after servicing.
	ClearInterrupt()
}

// IRQLine is a SignalLine that can be armed with an interrupt handler.
// handler runs in interrupt context.
type IRQLine interface {
	SignalLine
	Arm(handler func()) error
	Disarm() error
}

// Timing holds the externally configurable delays. Zero fields take the
// defaults from DefaultTiming when passed through Normalize.
type Timing struct {
	ResetHold      time.Duration // reset held low at power-up
	EnableSettle   time.Duration // after enable/wake before releasing reset
	BootSettle     time.Duration // after reset release before the first transaction
	ScanWindow     time.Duration // how long a scan is left to run before collecting
	ResultSettle   time.Duration // bound on waiting for one requested scan result
	ConnectSettle  time.Duration // pause after a connect request before polling
	ConnectTimeout time.Duration // bound for the foreground connect poll
	PollInterval   time.Duration // foreground status poll period
}

// DefaultTiming mirrors the delays used by the reference boards.
func DefaultTiming() Timing {
	return Timing{
		ResetHold:      10 * time.Millisecond,
		EnableSettle:   10 * time.Millisecond,
		BootSettle:     50 * time.Millisecond,
		ScanWindow:     2 * time.Second,
		ResultSettle:   500 * time.Millisecond,
		ConnectSettle:  500 * time.Millisecond,
		ConnectTimeout: 6 * time.Second,
		PollInterval:   100 * time.Millisecond,
	}
}

// Normalize fills zero fields with defaults and clamps the rest to sane
// ranges.
func (t Timing) Normalize() Timing {
	d := DefaultTiming()
	pick := func(v, def, lo, hi time.Duration) time.Duration {
		if v <= 0 {
			return def
		}
		return mathx.Clamp(v, lo, hi)
	}
	t.ResetHold = pick(t.ResetHold, d.ResetHold, time.Millisecond, time.Second)
	t.EnableSettle = pick(t.EnableSettle, d.EnableSettle, time.Millisecond, time.Second)
	t.BootSettle = pick(t.BootSettle, d.BootSettle, time.Millisecond, 5*time.Second)
	t.ScanWindow = pick(t.ScanWindow, d.ScanWindow, 10*time.Millisecond, 30*time.Second)
	t.ResultSettle = pick(t.ResultSettle, d.ResultSettle, time.Millisecond, 10*time.Second)
	t.ConnectSettle = pick(t.ConnectSettle, d.ConnectSettle, 0, 10*time.Second)
	t.ConnectTimeout = pick(t.ConnectTimeout, d.ConnectTimeout, 10*time.Millisecond, 2*time.Minute)
	t.PollInterval = pick(t.PollInterval, d.PollInterval, time.Millisecond, 10*time.Second)
	return t
}

// PowerOn walks the chip through enable, wake and reset release. It is the
// first half of Driver.Initialize for drivers built on a Link.
func PowerOn(l *Link, t Timing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.CS(true)
	l.Reset(false)
	l.Enable(false)
	l.sleep(t.ResetHold)
	l.Enable(true)
	if l.Wake != nil {
		l.Wake(true)
	}
	l.sleep(t.EnableSettle)
	l.Reset(true)
	l.sleep(t.BootSettle)
	return nil
}

// PowerOff holds the chip in reset with enable low.
func PowerOff(l *Link) {
	if l.Validate() != nil {
		return
	}
	l.Reset(false)
	l.Enable(false)
	if l.Wake != nil {
		l.Wake(false)
	}
}
