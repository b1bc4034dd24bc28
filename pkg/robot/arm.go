package robot

import (
	"context"
	"math"
	"time"

	"github.com/gwillem/robokit/pkg/telemetry"
)

// ioTimeout bounds a single bus transaction. The control loop runs every
// 20 ms, so a stuck read must give up well before cycles pile up.
const ioTimeout = 50 * time.Millisecond

// Arm is the scheduler subsystem for the five arm joints. Commands mutate
// targets through MoveTo/Adjust/Hold; the Periodic hook reads positions from
// the bus, flushes pending targets and publishes telemetry once per cycle.
// All access happens on the control loop goroutine.
type Arm struct {
	bus   MotorBus
	board *telemetry.Board

	positions map[MotorName]float64
	targets   map[MotorName]float64
	dirty     bool
}

// NewArm creates the arm subsystem. The board may be nil.
func NewArm(bus MotorBus, board *telemetry.Board) *Arm {
	return &Arm{
		bus:       bus,
		board:     board,
		positions: make(map[MotorName]float64),
		targets:   make(map[MotorName]float64),
	}
}

// Name implements sched.Subsystem.
func (a *Arm) Name() string { return "arm" }

// Periodic runs once per scheduler cycle: read joint positions, flush any
// targets set since the last cycle, publish telemetry.
func (a *Arm) Periodic() {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	if positions, err := a.bus.Positions(ctx); err == nil {
		a.positions = positions
	}

	if a.dirty {
		pending := make(map[MotorName]float64, len(a.targets))
		for name, pos := range a.targets {
			pending[name] = pos
		}
		// On a write error the targets stay recorded and the next cycle
		// retries.
		if err := a.bus.SetPositions(ctx, pending); err == nil {
			a.dirty = false
		}
	}

	if a.board != nil {
		for name, pos := range a.positions {
			a.board.PutNumber("arm/"+string(name), pos)
		}
	}
}

// MoveTo replaces the targets for the given joints. Positions are normalized
// [-100, 100]; the write happens on the next Periodic.
func (a *Arm) MoveTo(targets map[MotorName]float64) {
	for name, pos := range targets {
		a.targets[name] = clampPosition(pos)
	}
	a.dirty = true
}

// Adjust shifts the targets for the given joints by the given deltas. A joint
// without a target starts from its last read position.
func (a *Arm) Adjust(deltas map[MotorName]float64) {
	for name, d := range deltas {
		if d == 0 {
			continue
		}
		base, ok := a.targets[name]
		if !ok {
			base = a.positions[name]
		}
		a.targets[name] = clampPosition(base + d)
		a.dirty = true
	}
}

// Hold freezes the arm at its current position.
func (a *Arm) Hold() {
	for name, pos := range a.positions {
		a.targets[name] = pos
	}
	a.dirty = true
}

// Positions returns the joint positions read on the last cycle.
func (a *Arm) Positions() map[MotorName]float64 {
	out := make(map[MotorName]float64, len(a.positions))
	for name, pos := range a.positions {
		out[name] = pos
	}
	return out
}

// AtTarget reports whether every joint with a target is within tol of it,
// based on the last read positions.
func (a *Arm) AtTarget(tol float64) bool {
	for name, target := range a.targets {
		if math.Abs(a.positions[name]-target) > tol {
			return false
		}
	}
	return true
}

// Enable enables torque on the arm joints.
func (a *Arm) Enable(ctx context.Context) error { return a.bus.Enable(ctx) }

// Disable disables torque on the arm joints.
func (a *Arm) Disable(ctx context.Context) error { return a.bus.Disable(ctx) }
