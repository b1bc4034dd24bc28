package robot

import (
	"context"
	"sync"
)

// SimBus is an in-memory MotorBus for demo mode and tests. Motors move
// toward their targets by at most MaxStep per Positions read, which is enough
// physics to exercise at-target checks.
type SimBus struct {
	mu      sync.Mutex
	motors  []MotorName
	current map[MotorName]float64
	targets map[MotorName]float64
	enabled bool
	maxStep float64
}

// NewSimBus creates a simulated bus for the named motors, all resting at 0.
func NewSimBus(motors []MotorName, maxStep float64) *SimBus {
	if maxStep <= 0 {
		maxStep = 5
	}
	current := make(map[MotorName]float64, len(motors))
	targets := make(map[MotorName]float64, len(motors))
	for _, m := range motors {
		current[m] = 0
		targets[m] = 0
	}
	return &SimBus{
		motors:  motors,
		current: current,
		targets: targets,
		maxStep: maxStep,
	}
}

// Positions advances the simulation one step and returns the new positions.
func (b *SimBus) Positions(ctx context.Context) (map[MotorName]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[MotorName]float64, len(b.motors))
	for _, m := range b.motors {
		if b.enabled {
			delta := b.targets[m] - b.current[m]
			switch {
			case delta > b.maxStep:
				delta = b.maxStep
			case delta < -b.maxStep:
				delta = -b.maxStep
			}
			b.current[m] += delta
		}
		out[m] = b.current[m]
	}
	return out, nil
}

// SetPositions records new targets. Unknown motors are ignored.
func (b *SimBus) SetPositions(ctx context.Context, positions map[MotorName]float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, pos := range positions {
		if _, ok := b.targets[name]; ok {
			b.targets[name] = clampPosition(pos)
		}
	}
	return nil
}

// Enable turns the simulated torque on; motors only move while enabled.
func (b *SimBus) Enable(ctx context.Context) error {
	b.mu.Lock()
	b.enabled = true
	b.mu.Unlock()
	return nil
}

// Disable turns the simulated torque off.
func (b *SimBus) Disable(ctx context.Context) error {
	b.mu.Lock()
	b.enabled = false
	b.mu.Unlock()
	return nil
}

func clampPosition(v float64) float64 {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}
