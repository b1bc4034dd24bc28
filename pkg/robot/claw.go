package robot

import (
	"context"
	"math"

	"github.com/gwillem/robokit/pkg/telemetry"
)

// Gripper open/close setpoints in normalized position units.
const (
	gripperOpenPos   = 90.0
	gripperClosedPos = -90.0
)

// Claw is the scheduler subsystem for the gripper motor. It is a separate
// subsystem from the arm so a gripper command and an arm command can run at
// the same time.
type Claw struct {
	bus    MotorBus
	board  *telemetry.Board
	pos    float64
	target float64
	dirty  bool
}

// NewClaw creates the gripper subsystem. The board may be nil.
func NewClaw(bus MotorBus, board *telemetry.Board) *Claw {
	return &Claw{bus: bus, board: board}
}

// Name implements sched.Subsystem.
func (c *Claw) Name() string { return "claw" }

// Periodic reads the gripper position, flushes a pending setpoint and
// publishes telemetry. Runs on the control loop goroutine only, so unlike
// the input store no lock is needed.
func (c *Claw) Periodic() {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	if positions, err := c.bus.Positions(ctx); err == nil {
		if pos, ok := positions[Gripper]; ok {
			c.pos = pos
		}
	}

	if c.dirty {
		if err := c.bus.SetPositions(ctx, map[MotorName]float64{Gripper: c.target}); err == nil {
			c.dirty = false
		}
	}

	if c.board != nil {
		c.board.PutNumber("claw/position", c.pos)
		c.board.PutBool("claw/closed", c.pos <= gripperClosedPos+5)
	}
}

// Open sets the gripper target to fully open.
func (c *Claw) Open() { c.setTarget(gripperOpenPos) }

// Close sets the gripper target to fully closed.
func (c *Claw) Close() { c.setTarget(gripperClosedPos) }

// SetPosition sets an explicit gripper target in [-100, 100].
func (c *Claw) SetPosition(pos float64) { c.setTarget(clampPosition(pos)) }

func (c *Claw) setTarget(pos float64) {
	c.target = pos
	c.dirty = true
}

// Position returns the gripper position read on the last cycle.
func (c *Claw) Position() float64 { return c.pos }

// AtTarget reports whether the gripper is within tol of its setpoint.
func (c *Claw) AtTarget(tol float64) bool {
	return math.Abs(c.pos-c.target) <= tol
}
