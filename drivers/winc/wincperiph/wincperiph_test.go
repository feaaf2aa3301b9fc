package wincperiph

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"

	"winclink-go/drivers/winc"
)

type rig struct {
	port                         *spitest.Playback
	cs, reset, enable, wake, irq *gpiotest.Pin
	b                            *Board
}

func newRig(t *testing.T, ops ...conntest.IO) *rig {
	t.Helper()
	r := &rig{
		port:   &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}},
		cs:     &gpiotest.Pin{N: "GPIO8", Num: 8},
		reset:  &gpiotest.Pin{N: "GPIO25", Num: 25, L: gpio.High},
		enable: &gpiotest.Pin{N: "GPIO24", Num: 24, L: gpio.High},
		wake:   &gpiotest.Pin{N: "GPIO23", Num: 23},
		irq:    &gpiotest.Pin{N: "GPIO22", Num: 22, EdgesChan: make(chan gpio.Level, 4)},
	}
	b, err := New(r.port, 0, Pins{CS: r.cs, Reset: r.reset, Enable: r.enable, Wake: r.wake, IRQ: r.irq}, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.b = b
	return r
}

func TestNewRequiresPins(t *testing.T) {
	port := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	if _, err := New(port, 0, Pins{CS: &gpiotest.Pin{}}, 0); err == nil {
		t.Fatal("expected error without reset/enable/irq")
	}
}

func TestNewParksLines(t *testing.T) {
	r := newRig(t)
	if r.cs.Read() != gpio.High || r.reset.Read() != gpio.Low || r.enable.Read() != gpio.Low || r.wake.Read() != gpio.Low {
		t.Fatalf("idle levels cs=%v reset=%v enable=%v wake=%v", r.cs.Read(), r.reset.Read(), r.enable.Read(), r.wake.Read())
	}
	if r.irq.Pull() != gpio.PullUp {
		t.Fatalf("irq pull = %v", r.irq.Pull())
	}
	if r.b.Line().Asserted() {
		t.Fatal("line asserted while pulled up")
	}
}

func TestLinkPowerOnAndTx(t *testing.T) {
	r := newRig(t,
		conntest.IO{W: []byte{0xc0, 0x00, 0x00}, R: []byte{0x00, 0x00, 0xaa}},
		conntest.IO{W: []byte{0x55}, R: []byte{0x5a}},
	)
	l := r.b.Link()
	l.Delay = func(time.Duration) {}
	if err := winc.PowerOn(l, winc.DefaultTiming()); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	if r.reset.Read() != gpio.High || r.enable.Read() != gpio.High || r.wake.Read() != gpio.High {
		t.Fatal("chip not released from reset")
	}

	rx := make([]byte, 3)
	if err := l.Tx([]byte{0xc0, 0x00, 0x00}, rx); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if rx[2] != 0xaa || r.cs.Read() != gpio.High {
		t.Fatalf("rx=%x cs=%v", rx, r.cs.Read())
	}
	if v, err := l.SPI.Transfer(0x55); err != nil || v != 0x5a {
		t.Fatalf("Transfer = %#x, %v", v, err)
	}
	if err := r.b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if r.reset.Read() != gpio.Low || r.enable.Read() != gpio.Low {
		t.Fatal("Close must hold the chip in reset")
	}
}

func TestTxErrorIsTransport(t *testing.T) {
	r := newRig(t)
	if err := r.b.Link().Tx([]byte{1}, nil); err == nil {
		t.Fatal("unexpected transaction must fail")
	}
	if r.cs.Read() != gpio.High {
		t.Fatal("cs left asserted after failure")
	}
}

func TestEdgeLineRunsHandler(t *testing.T) {
	r := newRig(t)
	line := r.b.Line()
	fired := make(chan struct{}, 4)
	if err := line.Arm(func() { fired <- struct{}{} }); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	r.irq.EdgesChan <- gpio.Low
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
	if !line.Asserted() {
		t.Fatal("line should read asserted after a falling edge")
	}
	line.ClearInterrupt()
	if err := line.Disarm(); err != nil {
		t.Fatalf("Disarm: %v", err)
	}
	r.irq.EdgesChan <- gpio.Low
	select {
	case <-fired:
		t.Fatal("handler called after Disarm")
	case <-time.After(30 * time.Millisecond):
	}
	if line.Edges() != 1 || line.Clears() != 1 {
		t.Fatalf("edges=%d clears=%d", line.Edges(), line.Clears())
	}
}
