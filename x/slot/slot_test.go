package slot

import (
	"sync"
	"sync/atomic"
	"testing"
)

type handle struct{ uses int }

func TestTakeEmptyReturnsImmediately(t *testing.T) {
	var s Slot[*handle]
	if _, ok := s.Take(); ok {
		t.Fatal("zero slot should be empty")
	}
	if s.Full() {
		t.Fatal("Full on zero slot")
	}
}

func TestTakePutRoundTrip(t *testing.T) {
	h := &handle{}
	s := New(h)
	got, ok := s.Take()
	if !ok || got != h {
		t.Fatalf("Take = %v, %v", got, ok)
	}
	if _, ok := s.Take(); ok {
		t.Fatal("second Take should find the slot empty")
	}
	s.Put(got)
	if !s.Full() {
		t.Fatal("slot should be full after Put")
	}
}

func TestPutOverwriteIsCounted(t *testing.T) {
	s := New(1)
	s.Put(2)
	if s.Overwrites() != 1 {
		t.Fatalf("Overwrites = %d", s.Overwrites())
	}
	v, _ := s.Take()
	if v != 2 {
		t.Fatalf("overwrite should keep the newest value, got %d", v)
	}
}

func TestWithMutPutsBack(t *testing.T) {
	s := New(handle{})
	n, ok := WithMut(s, func(h *handle) int {
		h.uses++
		if s.Full() {
			t.Error("slot must be empty while f runs")
		}
		return h.uses
	})
	if !ok || n != 1 {
		t.Fatalf("WithMut = %d, %v", n, ok)
	}
	h, ok := s.Take()
	if !ok || h.uses != 1 {
		t.Fatalf("mutation lost: %+v %v", h, ok)
	}
}

func TestWithMutOnEmpty(t *testing.T) {
	var s Slot[int]
	called := false
	if _, ok := WithMut(&s, func(*int) bool { called = true; return true }); ok || called {
		t.Fatal("WithMut on empty slot must not call f")
	}
}

func TestWithMutPutsBackOnPanic(t *testing.T) {
	s := New(3)
	func() {
		defer func() { _ = recover() }()
		WithMut(s, func(*int) int { panic("boom") })
	}()
	if !s.Full() {
		t.Fatal("value must be returned to the slot after a panic")
	}
}

func TestAtMostOneHolder(t *testing.T) {
	s := New(&handle{})
	var holders, maxHolders atomic.Int32
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				h, ok := s.Take()
				if !ok {
					continue
				}
				n := holders.Add(1)
				for {
					m := maxHolders.Load()
					if n <= m || maxHolders.CompareAndSwap(m, n) {
						break
					}
				}
				h.uses++
				holders.Add(-1)
				s.Put(h)
			}
		}()
	}
	wg.Wait()
	if maxHolders.Load() != 1 {
		t.Fatalf("observed %d concurrent holders", maxHolders.Load())
	}
	if s.Overwrites() != 0 {
		t.Fatalf("unexpected overwrites: %d", s.Overwrites())
	}
}
