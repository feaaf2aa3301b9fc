package wincsim

import "sync"

// Line models the co-processor's open-drain signal line as seen by the host
// pin. Pulling it low produces a falling edge that runs the armed handler
// synchronously on the caller's goroutine, the way a host interrupt would
// preempt whatever was running.
type Line struct {
	mu      sync.Mutex
	low     bool
	latched bool
	handler func()

	edges  uint32
	clears uint32
}

// NewLine returns an idle (high) line.
func NewLine() *Line { return &Line{} }

func (l *Line) Arm(handler func()) error {
	l.mu.Lock()
	l.handler = handler
	l.mu.Unlock()
	return nil
}

func (l *Line) Disarm() error {
	l.mu.Lock()
	l.handler = nil
	l.mu.Unlock()
	return nil
}

// Asserted reports whether the chip is holding the line low.
func (l *Line) Asserted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.low
}

// ClearInterrupt clears the host edge latch.
func (l *Line) ClearInterrupt() {
	l.mu.Lock()
	l.latched = false
	l.clears++
	l.mu.Unlock()
}

// Pull drives the line low. A high-to-low transition latches an edge and
// fires the handler; pulling an already low line does nothing.
func (l *Line) Pull() {
	l.mu.Lock()
	if l.low {
		l.mu.Unlock()
		return
	}
	l.low = true
	l.latched = true
	l.edges++
	h := l.handler
	l.mu.Unlock()
	if h != nil {
		h()
	}
}

// Release lets the line float high again.
func (l *Line) Release() {
	l.mu.Lock()
	l.low = false
	l.mu.Unlock()
}

// Latched reports whether an edge is waiting to be cleared.
func (l *Line) Latched() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latched
}

func (l *Line) Edges() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.edges
}

func (l *Line) Clears() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clears
}
