// Package wincperiph wires the co-processor to a Linux host through
// periph.io: an spidev port for the transport, gpiochip lines for the
// control pins, and a goroutine blocked in WaitForEdge standing in for the
// interrupt.
package wincperiph

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"winclink-go/drivers/winc"
)

// Options name the host resources. Pin names are gpioreg names such as
// "GPIO25"; SPI is a spireg name such as "/dev/spidev0.0" ("" picks the
// first port).
type Options struct {
	SPI                          string
	Hz                           int
	CS, Reset, Enable, Wake, IRQ string
	// Poll bounds each WaitForEdge so Disarm is noticed. Default 100ms.
	Poll time.Duration
}

// Pins are resolved lines. Wake may be nil.
type Pins struct {
	CS, Reset, Enable, Wake gpio.PinOut
	IRQ                     gpio.PinIn
}

var (
	initOnce sync.Once
	initErr  error
)

func hostInit() error {
	initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			initErr = errors.Wrap(err, "wincperiph: host init")
		}
	})
	return initErr
}

func pinByName(role, name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, errors.Errorf("wincperiph: %s pin not set", role)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("wincperiph: no gpio %q for %s", name, role)
	}
	return p, nil
}

// Open initialises periph, opens the SPI port and resolves the pins.
func Open(o Options) (*Board, error) {
	if err := hostInit(); err != nil {
		return nil, err
	}
	var ps Pins
	for _, r := range []struct {
		role, name string
		set        func(gpio.PinIO)
	}{
		{"cs", o.CS, func(p gpio.PinIO) { ps.CS = p }},
		{"reset", o.Reset, func(p gpio.PinIO) { ps.Reset = p }},
		{"enable", o.Enable, func(p gpio.PinIO) { ps.Enable = p }},
		{"irq", o.IRQ, func(p gpio.PinIO) { ps.IRQ = p }},
	} {
		p, err := pinByName(r.role, r.name)
		if err != nil {
			return nil, err
		}
		r.set(p)
	}
	if o.Wake != "" {
		p, err := pinByName("wake", o.Wake)
		if err != nil {
			return nil, err
		}
		ps.Wake = p
	}
	port, err := spireg.Open(o.SPI)
	if err != nil {
		return nil, errors.Wrapf(err, "wincperiph: open spi %q", o.SPI)
	}
	b, err := New(port, o.Hz, ps, o.Poll)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return b, nil
}

// Board owns the opened port and lines.
type Board struct {
	port spi.PortCloser
	conn spi.Conn
	pins Pins
	line *EdgeLine
	errs uint32
}

// New connects port in mode 0 at hz (default 12MHz) and configures the
// control lines idle: CS high, reset and enable low.
func New(port spi.PortCloser, hz int, ps Pins, poll time.Duration) (*Board, error) {
	if ps.CS == nil || ps.Reset == nil || ps.Enable == nil || ps.IRQ == nil {
		return nil, errors.New("wincperiph: cs, reset, enable and irq are required")
	}
	if hz <= 0 {
		hz = 12000000
	}
	c, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, errors.Wrap(err, "wincperiph: spi connect")
	}
	b := &Board{port: port, conn: c, pins: ps}
	b.out(ps.CS)(true)
	b.out(ps.Reset)(false)
	b.out(ps.Enable)(false)
	if ps.Wake != nil {
		b.out(ps.Wake)(false)
	}
	if err := ps.IRQ.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrap(err, "wincperiph: irq input")
	}
	b.line = &EdgeLine{pin: ps.IRQ, poll: poll}
	return b, nil
}

// out adapts a periph output; failures are counted, not returned, since
// the link drives lines from inside transactions.
func (b *Board) out(p gpio.PinOut) winc.PinOutput {
	return func(level bool) {
		if err := p.Out(gpio.Level(level)); err != nil {
			atomic.AddUint32(&b.errs, 1)
		}
	}
}

// Link returns the transport for driver construction.
func (b *Board) Link() *winc.Link {
	l := &winc.Link{
		SPI:    spiConn{b.conn},
		CS:     b.out(b.pins.CS),
		Reset:  b.out(b.pins.Reset),
		Enable: b.out(b.pins.Enable),
		IRQ:    func() bool { return b.pins.IRQ.Read() == gpio.High },
		Delay:  time.Sleep,
	}
	if b.pins.Wake != nil {
		l.Wake = b.out(b.pins.Wake)
	}
	return l
}

func (b *Board) Line() *EdgeLine { return b.line }

// PinErrors counts failed output writes.
func (b *Board) PinErrors() uint32 { return atomic.LoadUint32(&b.errs) }

// Close disarms the line, parks the chip in reset and releases the port.
func (b *Board) Close() error {
	_ = b.line.Disarm()
	winc.PowerOff(b.Link())
	return errors.Wrap(b.port.Close(), "wincperiph: close spi")
}

// spiConn adapts a periph connection to tinygo's drivers.SPI.
type spiConn struct{ c spi.Conn }

func (s spiConn) Tx(w, r []byte) error {
	switch {
	case w == nil && r != nil:
		w = make([]byte, len(r))
	case r == nil && w != nil:
		r = make([]byte, len(w))
	}
	return s.c.Tx(w, r)
}

func (s spiConn) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.c.Tx([]byte{b}, r[:])
	return r[0], err
}

// EdgeLine turns falling edges on the IRQ pin into handler calls from a
// watcher goroutine.
type EdgeLine struct {
	pin  gpio.PinIn
	poll time.Duration

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	edges  uint32
	clears uint32
}

func (l *EdgeLine) Asserted() bool { return l.pin.Read() == gpio.Low }

// ClearInterrupt is a count only; the kernel has already consumed the edge
// by the time WaitForEdge returns.
func (l *EdgeLine) ClearInterrupt() { atomic.AddUint32(&l.clears, 1) }

func (l *EdgeLine) Arm(handler func()) error {
	if err := l.Disarm(); err != nil {
		return err
	}
	if handler == nil {
		return nil
	}
	if err := l.pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return errors.Wrap(err, "wincperiph: arm irq")
	}
	poll := l.poll
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	stop, done := make(chan struct{}), make(chan struct{})
	l.mu.Lock()
	l.stop, l.done = stop, done
	l.mu.Unlock()
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if l.pin.WaitForEdge(poll) {
				atomic.AddUint32(&l.edges, 1)
				handler()
			}
		}
	}()
	return nil
}

func (l *EdgeLine) Disarm() error {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return errors.Wrap(l.pin.In(gpio.PullUp, gpio.NoEdge), "wincperiph: disarm irq")
}

// Edges counts handler invocations.
func (l *EdgeLine) Edges() uint32 { return atomic.LoadUint32(&l.edges) }

func (l *EdgeLine) Clears() uint32 { return atomic.LoadUint32(&l.clears) }

var _ winc.IRQLine = (*EdgeLine)(nil)
