//go:build !rp2040 && !rp2350

package platform

import (
	"testing"

	"winclink-go/drivers/winc"
	"winclink-go/types"
)

func testPins() types.WiFiPins {
	return types.WiFiPins{CS: "17", Reset: "20", Enable: "21", Wake: "22", IRQ: "15"}
}

func TestNewLinkRequiresPins(t *testing.T) {
	if _, _, err := NewLink(types.WiFiConfig{Pins: types.WiFiPins{CS: "17"}}); err == nil {
		t.Fatal("expected error for missing pins")
	}
	if _, _, err := NewLink(types.WiFiConfig{Pins: types.WiFiPins{CS: "x", Reset: "1", Enable: "2", IRQ: "3"}}); err == nil {
		t.Fatal("expected error for a non-numeric pin")
	}
}

func TestNewLinkPowerOnDrivesPins(t *testing.T) {
	l, _, err := NewLink(types.WiFiConfig{Pins: testPins()})
	if err != nil {
		t.Fatal(err)
	}
	if err := winc.PowerOn(l, winc.DefaultTiming()); err != nil {
		t.Fatalf("PowerOn: %v", err)
	}
	b := LastBoard()
	for _, n := range []int{17, 20, 21, 22} {
		if !b.Pins[n].Get() {
			t.Fatalf("pin %d low after power on", n)
		}
	}
	if err := l.Tx([]byte{0xc0, 0}, make([]byte, 2)); err != nil {
		t.Fatal(err)
	}
	if b.SPI.Count != 1 || b.SPI.LastTx[0] != 0xc0 {
		t.Fatalf("spi %+v", b.SPI)
	}
	if !b.Pins[17].Get() {
		t.Fatal("chip select left asserted")
	}
}

func TestFakeIRQFiresOnFallingEdge(t *testing.T) {
	l, line, err := NewLink(types.WiFiConfig{Pins: testPins()})
	if err != nil {
		t.Fatal(err)
	}
	fired := 0
	_ = line.Arm(func() { fired++ })
	irq := LastBoard().Pins[15]

	irq.Set(false)
	irq.Set(false)
	if fired != 1 || !line.Asserted() || !l.Asserted() {
		t.Fatalf("fired %d asserted %v", fired, line.Asserted())
	}
	irq.Set(true)
	_ = line.Disarm()
	irq.Set(false)
	if fired != 1 {
		t.Fatal("disarmed line still fires")
	}
	line.ClearInterrupt()
	if irq.Clears() != 1 {
		t.Fatal("clear not counted")
	}
}
