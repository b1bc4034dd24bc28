// Package telemetry provides a named key/value sink for dashboard data.
//
// Commands and subsystems publish values during their cycle; a dashboard
// (TUI, log file) pulls snapshots. The scheduler never reads the board.
package telemetry

import "sync"

// Board is a concurrency-safe key/value sink. Writers (the control loop)
// and readers (the dashboard goroutine) may touch it at the same time.
type Board struct {
	mu      sync.RWMutex
	numbers map[string]float64
	bools   map[string]bool
	strings map[string]string
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{
		numbers: make(map[string]float64),
		bools:   make(map[string]bool),
		strings: make(map[string]string),
	}
}

// PutNumber publishes a numeric value under key.
func (b *Board) PutNumber(key string, v float64) {
	b.mu.Lock()
	b.numbers[key] = v
	b.mu.Unlock()
}

// PutBool publishes a boolean value under key.
func (b *Board) PutBool(key string, v bool) {
	b.mu.Lock()
	b.bools[key] = v
	b.mu.Unlock()
}

// PutString publishes a string value under key.
func (b *Board) PutString(key string, v string) {
	b.mu.Lock()
	b.strings[key] = v
	b.mu.Unlock()
}

// Snapshot is a point-in-time copy of the board contents.
type Snapshot struct {
	Numbers map[string]float64
	Bools   map[string]bool
	Strings map[string]string
}

// Snapshot returns copies of all published values.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Numbers: make(map[string]float64, len(b.numbers)),
		Bools:   make(map[string]bool, len(b.bools)),
		Strings: make(map[string]string, len(b.strings)),
	}
	for k, v := range b.numbers {
		snap.Numbers[k] = v
	}
	for k, v := range b.bools {
		snap.Bools[k] = v
	}
	for k, v := range b.strings {
		snap.Strings[k] = v
	}
	return snap
}
