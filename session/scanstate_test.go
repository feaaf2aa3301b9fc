package session

import (
	"testing"

	"winclink-go/drivers/winc"
	"winclink-go/errcode"
)

func scanned(n uint8) *ScanState {
	var s ScanState
	s.Begin()
	for i := uint8(0); i < n; i++ {
		s.Apply(winc.Event{Kind: winc.EvAPFound, Index: i})
	}
	s.Apply(winc.Event{Kind: winc.EvScanDone, Index: n})
	s.Reconcile(n)
	return &s
}

func TestScanBeginRejectsWhileScanning(t *testing.T) {
	var s ScanState
	if err := s.CanBegin("scan"); err != nil {
		t.Fatalf("idle: %v", err)
	}
	s.Begin()
	if err := s.CanBegin("scan"); errcode.Of(err) != errcode.InvalidState {
		t.Fatalf("scanning: got %v", err)
	}
}

func TestScanCountMonotonic(t *testing.T) {
	var s ScanState
	s.Begin()
	s.Apply(winc.Event{Kind: winc.EvAPFound})
	s.Apply(winc.Event{Kind: winc.EvAPFound})
	if s.Count() != 2 || s.Phase() != ScanScanning {
		t.Fatalf("count %d phase %v", s.Count(), s.Phase())
	}
	s.Apply(winc.Event{Kind: winc.EvScanDone, Index: 1})
	s.Reconcile(1)
	if s.Count() != 2 {
		t.Fatalf("count went backwards: %d", s.Count())
	}
	if s.Phase() != ScanResultsAvailable {
		t.Fatalf("phase %v", s.Phase())
	}
	s.Reconcile(4)
	if s.Count() != 4 {
		t.Fatalf("reconcile should raise the count, got %d", s.Count())
	}
}

func TestScanEventsOutsideScanAreIgnored(t *testing.T) {
	var s ScanState
	s.Apply(winc.Event{Kind: winc.EvAPFound})
	s.Apply(winc.Event{Kind: winc.EvScanDone})
	s.Apply(winc.Event{Kind: winc.EvScanResult, Index: 0})
	if s.Count() != 0 || s.Phase() != ScanIdle || s.Ignored() != 3 {
		t.Fatalf("count %d phase %v ignored %d", s.Count(), s.Phase(), s.Ignored())
	}
}

func TestScanStageAndTake(t *testing.T) {
	s := scanned(2)
	if _, ok := s.Take(); ok {
		t.Fatal("nothing staged yet")
	}
	s.Apply(winc.Event{Kind: winc.EvScanResult, Index: 1})
	if s.Stage(winc.ScanEntry{Index: 0}) {
		t.Fatal("entry for another index must not be staged")
	}
	if !s.Stage(winc.ScanEntry{Index: 1, SSID: "b"}) {
		t.Fatal("awaited entry not staged")
	}
	e, ok := s.Take()
	if !ok || e.SSID != "b" {
		t.Fatalf("Take = %+v %v", e, ok)
	}
	if _, ok := s.Take(); ok {
		t.Fatal("entry consumed twice")
	}
	if s.Phase() != ScanResultsAvailable {
		t.Fatalf("one index still untaken, phase %v", s.Phase())
	}
	s.Apply(winc.Event{Kind: winc.EvScanResult, Index: 0})
	s.Stage(winc.ScanEntry{Index: 0, SSID: "a"})
	s.Take()
	if s.Phase() != ScanIdle {
		t.Fatalf("all taken, phase %v", s.Phase())
	}
	if err := s.CheckIndex("fetch", 1); err != nil {
		t.Fatalf("results must stay fetchable: %v", err)
	}
}

func TestScanBeginDiscardsStaged(t *testing.T) {
	s := scanned(1)
	s.Apply(winc.Event{Kind: winc.EvScanResult, Index: 0})
	s.Stage(winc.ScanEntry{Index: 0})
	s.Begin()
	if s.Staged() || s.Count() != 0 {
		t.Fatalf("staged %v count %d after Begin", s.Staged(), s.Count())
	}
}

func TestScanEmptyResultReturnsToIdle(t *testing.T) {
	s := scanned(0)
	if s.Phase() != ScanIdle {
		t.Fatalf("phase %v", s.Phase())
	}
}

func TestScanCheckIndex(t *testing.T) {
	s := scanned(3)
	if err := s.CheckIndex("fetch", 5); errcode.Of(err) != errcode.InvalidArgument {
		t.Fatalf("got %v", err)
	}
	if err := s.CheckIndex("fetch", 2); err != nil {
		t.Fatalf("got %v", err)
	}
}
