//go:build !(tinygo && baremetal)

package critsec

import "sync"

// State is a placeholder so both builds share one signature.
type State struct{}

var mu sync.Mutex

// Enter acquires the process-wide section.
func Enter() State {
	mu.Lock()
	return State{}
}

// Exit releases the section acquired by Enter.
func Exit(State) { mu.Unlock() }
