package session

import (
	"winclink-go/drivers/winc"
	"winclink-go/errcode"
)

type ScanPhase uint8

const (
	ScanIdle ScanPhase = iota
	ScanScanning
	ScanResultsAvailable
)

func (p ScanPhase) String() string {
	switch p {
	case ScanScanning:
		return "scanning"
	case ScanResultsAvailable:
		return "results_available"
	default:
		return "idle"
	}
}

// ScanState tracks one scan and the retrieval of its results.
//
// The AP count only grows until the next Begin. A result is staged when the
// chip reports it ready (EvScanResult, picked up after the pump) and is
// consumed by Take. Once every index has been taken the phase returns to
// Idle; the results stay fetchable until the next Begin.
type ScanState struct {
	phase ScanPhase
	count uint8

	reconcile bool // EvScanDone seen, count to be checked against NumAP
	awaiting  bool // EvScanResult seen, entry to be read from the driver
	awaitIdx  uint8

	staged    winc.ScanEntry
	hasStaged bool

	taken  [4]uint64 // bit per index consumed at least once
	ntaken int

	ignored uint32
}

func (s *ScanState) Phase() ScanPhase { return s.phase }
func (s *ScanState) Count() uint8     { return s.count }
func (s *ScanState) Staged() bool     { return s.hasStaged }
func (s *ScanState) Ignored() uint32  { return s.ignored }

// CanBegin rejects a new scan while one is running.
func (s *ScanState) CanBegin(op string) error {
	if s.phase == ScanScanning {
		return errcode.New(errcode.InvalidState, op, "scan already in progress")
	}
	return nil
}

// Begin resets the count and drops unread results. Call it once the chip
// has accepted the scan request.
func (s *ScanState) Begin() {
	*s = ScanState{phase: ScanScanning, ignored: s.ignored}
}

// CheckIndex validates a fetch request against the current count.
func (s *ScanState) CheckIndex(op string, i uint8) error {
	if i >= s.count {
		return errcode.New(errcode.InvalidArgument, op, "scan index out of range")
	}
	return nil
}

// Apply handles the scan events of one pump.
func (s *ScanState) Apply(ev winc.Event) {
	switch ev.Kind {
	case winc.EvAPFound:
		if s.phase != ScanScanning {
			s.ignored++
			return
		}
		if s.count < 255 {
			s.count++
		}
	case winc.EvScanDone:
		if s.phase != ScanScanning {
			s.ignored++
			return
		}
		if ev.Index > s.count {
			s.count = ev.Index
		}
		s.phase = ScanResultsAvailable
		s.reconcile = true
	case winc.EvScanResult:
		if ev.Index >= s.count {
			s.ignored++
			return
		}
		s.awaiting = true
		s.awaitIdx = ev.Index
	}
}

// Reconcile folds the driver's own AP count into ours after a scan ends.
// The count never decreases.
func (s *ScanState) Reconcile(n uint8) {
	s.reconcile = false
	if n > s.count {
		s.count = n
	}
	if s.phase == ScanResultsAvailable && s.count == 0 {
		s.phase = ScanIdle
	}
}

// Stage records the entry read from the driver for an awaited index.
// Entries for any other index are dropped.
func (s *ScanState) Stage(e winc.ScanEntry) bool {
	if !s.awaiting || e.Index != s.awaitIdx {
		return false
	}
	s.awaiting = false
	s.staged = e
	s.hasStaged = true
	return true
}

// Take consumes the staged entry.
func (s *ScanState) Take() (winc.ScanEntry, bool) {
	if !s.hasStaged {
		return winc.ScanEntry{}, false
	}
	e := s.staged
	s.hasStaged = false
	s.staged = winc.ScanEntry{}
	w, b := e.Index/64, uint64(1)<<(e.Index%64)
	if s.taken[w]&b == 0 {
		s.taken[w] |= b
		s.ntaken++
	}
	if s.phase == ScanResultsAvailable && s.ntaken >= int(s.count) {
		s.phase = ScanIdle
	}
	return e, true
}

// Abort stops tracking a running scan, as after a chip fault.
func (s *ScanState) Abort() {
	if s.phase == ScanScanning {
		s.phase = ScanIdle
	}
	s.awaiting = false
	s.reconcile = false
}
