// Package slot holds at most one value that is handed between execution
// contexts. A slot observed empty means "held elsewhere right now", not
// "gone": the holder is expected to Put the value back.
//
// Take and Put run inside a critsec section and never block, so both are
// safe from interrupt handlers. WithMut runs its callback outside the
// section, while the slot is empty.
package slot

import "winclink-go/x/critsec"

// Slot is a single-item container.
type Slot[T any] struct {
	v          T
	full       bool
	overwrites uint32
}

// New returns a slot already holding v.
func New[T any](v T) *Slot[T] {
	return &Slot[T]{v: v, full: true}
}

// Take removes and returns the value. ok is false if the slot was empty.
func (s *Slot[T]) Take() (v T, ok bool) {
	st := critsec.Enter()
	if s.full {
		v, ok = s.v, true
		var zero T
		s.v = zero
		s.full = false
	}
	critsec.Exit(st)
	return v, ok
}

// Put stores v. Putting into a full slot overwrites silently; that is a
// logic defect in the caller and is counted in Overwrites.
func (s *Slot[T]) Put(v T) {
	st := critsec.Enter()
	if s.full {
		s.overwrites++
	}
	s.v = v
	s.full = true
	critsec.Exit(st)
}

// Full reports whether a value is currently parked in the slot.
func (s *Slot[T]) Full() bool {
	st := critsec.Enter()
	f := s.full
	critsec.Exit(st)
	return f
}

// Overwrites returns how many times Put replaced a parked value.
func (s *Slot[T]) Overwrites() uint32 {
	st := critsec.Enter()
	n := s.overwrites
	critsec.Exit(st)
	return n
}

// WithMut takes the value, applies f, and always puts the (possibly
// mutated) value back before returning f's result. ok is false, and f is
// not called, if the slot was empty.
func WithMut[T, R any](s *Slot[T], f func(*T) R) (r R, ok bool) {
	v, ok := s.Take()
	if !ok {
		return r, false
	}
	defer func() { s.Put(v) }()
	return f(&v), true
}
