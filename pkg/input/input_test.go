package input

import (
	"math"
	"testing"
)

func TestStore_UpdateAndRead(t *testing.T) {
	s := NewStore()

	// Empty store reads zero values.
	if s.Axis(0) != 0 || s.Button(0) {
		t.Fatal("empty store should read zero values")
	}

	s.Update(State{
		Axes:    []float64{0.5, -2.0, 1.5},
		Buttons: []bool{true, false},
	})

	if got := s.Axis(0); got != 0.5 {
		t.Errorf("Axis(0) = %f, want 0.5", got)
	}
	// Out-of-range values are clamped.
	if got := s.Axis(1); got != -1.0 {
		t.Errorf("Axis(1) = %f, want -1.0", got)
	}
	if got := s.Axis(2); got != 1.0 {
		t.Errorf("Axis(2) = %f, want 1.0", got)
	}
	if !s.Button(0) || s.Button(1) {
		t.Error("button states wrong")
	}

	// Out-of-range indexes read zero values.
	if s.Axis(99) != 0 || s.Button(99) {
		t.Error("out-of-range index should read zero values")
	}
}

func TestDeadband(t *testing.T) {
	tests := []struct {
		v, band  float64
		expected float64
	}{
		{0.0, 0.1, 0.0},
		{0.05, 0.1, 0.0},  // inside band -> zero
		{-0.05, 0.1, 0.0}, // inside band -> zero
		{0.1, 0.1, 0.0},   // band edge -> zero
		{1.0, 0.1, 1.0},   // full deflection stays full
		{-1.0, 0.1, -1.0},
		{0.55, 0.1, 0.5}, // rescaled to stay continuous
		{0.3, 0.0, 0.3},  // no band -> passthrough
	}

	for _, tt := range tests {
		got := Deadband(tt.v, tt.band)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Deadband(%f, %f) = %f, want %f", tt.v, tt.band, got, tt.expected)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, expected float64
	}{
		{0.5, -1, 1, 0.5},
		{-3, -1, 1, -1},
		{3, -1, 1, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.expected {
			t.Errorf("Clamp(%f) = %f, want %f", tt.v, got, tt.expected)
		}
	}
}
