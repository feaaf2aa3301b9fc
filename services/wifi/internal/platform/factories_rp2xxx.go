//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"sync/atomic"
	"time"

	"winclink-go/drivers/winc"
	"winclink-go/types"
)

const defaultSPIHz = 12 * machine.MHz

// NewLink configures the SPI peripheral and control lines named in cfg.
func NewLink(cfg types.WiFiConfig) (*winc.Link, winc.IRQLine, error) {
	pins, err := parsePins(cfg.Pins)
	if err != nil {
		return nil, nil, err
	}
	spi := machine.SPI0
	if cfg.Pins.SPI == "spi1" {
		spi = machine.SPI1
	}
	hz := uint32(cfg.Pins.HzSPI)
	if hz == 0 {
		hz = defaultSPIHz
	}
	sc := machine.SPIConfig{Frequency: hz, Mode: 0}
	if cfg.Pins.SCK != 0 || cfg.Pins.SDO != 0 || cfg.Pins.SDI != 0 {
		sc.SCK = machine.Pin(cfg.Pins.SCK)
		sc.SDO = machine.Pin(cfg.Pins.SDO)
		sc.SDI = machine.Pin(cfg.Pins.SDI)
	}
	if err := spi.Configure(sc); err != nil {
		return nil, nil, err
	}

	l := &winc.Link{
		SPI:    spi,
		CS:     output(pins.cs, true),
		Reset:  output(pins.reset, false),
		Enable: output(pins.enable, false),
		Delay:  time.Sleep,
	}
	if pins.hasWake {
		l.Wake = output(pins.wake, false)
	}
	irq := machine.Pin(pins.irq)
	irq.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	l.IRQ = irq.Get
	return l, &rp2Line{p: irq}, nil
}

func output(n int, initial bool) winc.PinOutput {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(initial)
	return p.Set
}

// rp2Line is the falling-edge interrupt on the chip's IRQ output.
type rp2Line struct {
	p      machine.Pin
	clears uint32
}

func (r *rp2Line) Asserted() bool { return !r.p.Get() }

// ClearInterrupt only counts: the RP2 port acknowledges the edge before
// calling the handler.
func (r *rp2Line) ClearInterrupt() { atomic.AddUint32(&r.clears, 1) }

func (r *rp2Line) Arm(handler func()) error {
	return r.p.SetInterrupt(machine.PinFalling, func(machine.Pin) { handler() })
}

func (r *rp2Line) Disarm() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}
