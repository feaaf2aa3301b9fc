//go:build tinygo && baremetal

package critsec

import "runtime/interrupt"

// State is the interrupt mask saved on Enter.
type State = interrupt.State

// Enter masks interrupts and returns the previous state.
func Enter() State { return interrupt.Disable() }

// Exit restores the state saved by Enter.
func Exit(s State) { interrupt.Restore(s) }
