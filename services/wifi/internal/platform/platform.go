// Package platform turns the pin block of a wifi config into a winc.Link
// and a signal line for the current target.
package platform

import (
	"errors"

	"winclink-go/types"
	"winclink-go/x/conv"
)

var errNoPins = errors.New("platform: cs, reset, enable and irq pins are required")

// pinNumber parses a board GPIO number from a config pin name.
func pinNumber(name string) (int, bool) {
	n, ok := conv.ParseUint(name)
	if !ok || n > 47 {
		return 0, false
	}
	return int(n), true
}

type pinSet struct {
	cs, reset, enable, wake, irq int
	hasWake                      bool
}

func parsePins(p types.WiFiPins) (pinSet, error) {
	var s pinSet
	var ok1, ok2, ok3, ok4 bool
	s.cs, ok1 = pinNumber(p.CS)
	s.reset, ok2 = pinNumber(p.Reset)
	s.enable, ok3 = pinNumber(p.Enable)
	s.irq, ok4 = pinNumber(p.IRQ)
	if !(ok1 && ok2 && ok3 && ok4) {
		return s, errNoPins
	}
	if p.Wake != "" {
		s.wake, s.hasWake = pinNumber(p.Wake)
	}
	return s, nil
}
