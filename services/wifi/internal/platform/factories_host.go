//go:build !rp2040 && !rp2350

package platform

import (
	"sync"
	"time"

	"winclink-go/drivers/winc"
	"winclink-go/types"
)

// HostSPI implements tinygo drivers.SPI for host runs. It records the last
// transaction and answers with zeros.
type HostSPI struct {
	mu     sync.Mutex
	Count  int
	LastTx []byte
}

func (h *HostSPI) Tx(w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Count++
	h.LastTx = append(h.LastTx[:0], w...)
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (h *HostSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := h.Tx([]byte{b}, r[:])
	return r[0], err
}

// FakePin is an output or input line for host runs. Driving it from high to
// low runs the armed handler synchronously, like an interrupt would.
type FakePin struct {
	mu      sync.Mutex
	number  int
	level   bool
	handler func()
	clears  int
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	falling := p.level && !level
	p.level = level
	h := p.handler
	p.mu.Unlock()
	if falling && h != nil {
		h()
	}
}

func (p *FakePin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) Asserted() bool { return !p.Get() }

func (p *FakePin) ClearInterrupt() {
	p.mu.Lock()
	p.clears++
	p.mu.Unlock()
}

func (p *FakePin) Clears() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clears
}

func (p *FakePin) Arm(handler func()) error {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Disarm() error { return p.Arm(nil) }

// HostBoard holds the fakes behind the last NewLink call so tests can
// inspect them.
type HostBoard struct {
	SPI  *HostSPI
	Pins map[int]*FakePin
}

var (
	boardMu sync.Mutex
	board   *HostBoard
)

// LastBoard returns the fakes created by the most recent NewLink.
func LastBoard() *HostBoard {
	boardMu.Lock()
	defer boardMu.Unlock()
	return board
}

// NewLink builds a link over host fakes using the pin numbers in cfg.
func NewLink(cfg types.WiFiConfig) (*winc.Link, winc.IRQLine, error) {
	pins, err := parsePins(cfg.Pins)
	if err != nil {
		return nil, nil, err
	}
	hb := &HostBoard{SPI: &HostSPI{}, Pins: map[int]*FakePin{}}
	pin := func(n int, level bool) *FakePin {
		p := &FakePin{number: n, level: level}
		hb.Pins[n] = p
		return p
	}
	l := &winc.Link{
		SPI:    hb.SPI,
		CS:     pin(pins.cs, true).Set,
		Reset:  pin(pins.reset, false).Set,
		Enable: pin(pins.enable, false).Set,
		Delay:  func(d time.Duration) {},
	}
	if pins.hasWake {
		l.Wake = pin(pins.wake, false).Set
	}
	irq := pin(pins.irq, true)
	l.IRQ = irq.Get

	boardMu.Lock()
	board = hb
	boardMu.Unlock()
	return l, irq, nil
}
