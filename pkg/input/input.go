// Package input holds controller input snapshots for the control loop.
//
// Decoding hardware input (gamepad, keyboard, network) is someone else's job:
// whatever reads the device calls Store.Update with a fresh State, and
// trigger conditions or commands read axes and buttons from the Store each
// cycle. The Store is the only piece of the framework that is written from
// outside the control loop goroutine, so it carries its own lock.
package input

import "sync"

// State is one snapshot of controller input. Axis values are clamped to
// [-1, 1] on update.
type State struct {
	Axes    []float64
	Buttons []bool
}

// Store holds the most recent input snapshot.
type Store struct {
	mu  sync.RWMutex
	cur State
}

// NewStore returns an empty store; all axes read 0 and all buttons false
// until the first Update.
func NewStore() *Store {
	return &Store{}
}

// Update replaces the current snapshot. The slices are copied, so the caller
// may reuse them.
func (s *Store) Update(st State) {
	axes := make([]float64, len(st.Axes))
	for i, v := range st.Axes {
		axes[i] = Clamp(v, -1, 1)
	}
	buttons := make([]bool, len(st.Buttons))
	copy(buttons, st.Buttons)

	s.mu.Lock()
	s.cur = State{Axes: axes, Buttons: buttons}
	s.mu.Unlock()
}

// Axis returns the value of axis i, or 0 if the axis does not exist.
func (s *Store) Axis(i int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.cur.Axes) {
		return 0
	}
	return s.cur.Axes[i]
}

// Button returns the state of button i, or false if the button does not
// exist.
func (s *Store) Button(i int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.cur.Buttons) {
		return false
	}
	return s.cur.Buttons[i]
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Deadband zeroes v when its magnitude is below band, and rescales the
// remaining range so output is continuous at the band edge.
func Deadband(v, band float64) float64 {
	if band <= 0 {
		return v
	}
	switch {
	case v > band:
		return (v - band) / (1 - band)
	case v < -band:
		return (v + band) / (1 - band)
	default:
		return 0
	}
}
