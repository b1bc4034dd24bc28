package robot

import (
	"fmt"

	"github.com/gwillem/robokit/pkg/input"
	"github.com/gwillem/robokit/pkg/sched"
)

// Pose is a named set of joint targets.
type Pose struct {
	Name    string
	Targets map[MotorName]float64
}

// Built-in poses. Positions are normalized to each joint's calibrated range,
// so the same pose works on any calibrated SO-101.
var (
	PoseHome  = Pose{Name: "home", Targets: map[MotorName]float64{ShoulderPan: 0, ShoulderLift: 0, ElbowFlex: 0, WristFlex: 0, WristRoll: 0}}
	PoseReach = Pose{Name: "reach", Targets: map[MotorName]float64{ShoulderPan: 0, ShoulderLift: 40, ElbowFlex: 55, WristFlex: -30, WristRoll: 0}}
	PoseStow  = Pose{Name: "stow", Targets: map[MotorName]float64{ShoulderPan: 0, ShoulderLift: -70, ElbowFlex: -80, WristFlex: 60, WristRoll: 0}}
)

// poseTolerance is how close (normalized units) every joint must be to its
// target before a pose command reports finished.
const poseTolerance = 3.0

// HoldArm returns the arm's default command: freeze at the current position
// and keep holding it. Never finishes on its own.
func HoldArm(arm *Arm) sched.Command {
	return &sched.FuncCommand{
		Name:   "hold-arm",
		Reqs:   []sched.Subsystem{arm},
		OnInit: arm.Hold,
	}
}

// TeleopArm returns the teleop default command: map controller axes onto
// per-cycle joint target deltas. Axis layout: 0 shoulder pan, 1 shoulder
// lift, 2 elbow, 3 wrist flex.
func TeleopArm(arm *Arm, store *input.Store, rate float64) sched.Command {
	if rate <= 0 {
		rate = 1.5
	}
	return &sched.FuncCommand{
		Name:   "teleop-arm",
		Reqs:   []sched.Subsystem{arm},
		OnInit: arm.Hold,
		OnExec: func() {
			arm.Adjust(map[MotorName]float64{
				ShoulderPan:  input.Deadband(store.Axis(0), 0.1) * rate,
				ShoulderLift: input.Deadband(store.Axis(1), 0.1) * rate,
				ElbowFlex:    input.Deadband(store.Axis(2), 0.1) * rate,
				WristFlex:    input.Deadband(store.Axis(3), 0.1) * rate,
			})
		},
	}
}

// ArmTo returns a command that drives the arm to pose and finishes once every
// joint is within tolerance.
func ArmTo(arm *Arm, pose Pose) sched.Command {
	return &sched.FuncCommand{
		Name:     fmt.Sprintf("arm-to-%s", pose.Name),
		Reqs:     []sched.Subsystem{arm},
		OnInit:   func() { arm.MoveTo(pose.Targets) },
		Finished: func() bool { return arm.AtTarget(poseTolerance) },
	}
}

// OpenClaw returns a command that opens the gripper and finishes when it
// reaches the open position.
func OpenClaw(claw *Claw) sched.Command {
	return &sched.FuncCommand{
		Name:     "open-claw",
		Reqs:     []sched.Subsystem{claw},
		OnInit:   claw.Open,
		Finished: func() bool { return claw.AtTarget(poseTolerance) },
	}
}

// CloseClaw returns a command that closes the gripper. It is marked
// non-interruptible: once closing on a payload, a stray button press must not
// drop it.
func CloseClaw(claw *Claw) sched.Command {
	return &sched.FuncCommand{
		Name:     "close-claw",
		Reqs:     []sched.Subsystem{claw},
		OnInit:   claw.Close,
		Finished: func() bool { return claw.AtTarget(poseTolerance) },
		Locked:   true,
	}
}

// PickRoutine returns the demo autonomous routine: reach out with the claw
// opening on the way, grab, and stow.
func PickRoutine(arm *Arm, claw *Claw) sched.Command {
	return sched.Sequence("pick-routine",
		sched.Parallel("approach",
			ArmTo(arm, PoseReach),
			OpenClaw(claw),
		),
		CloseClaw(claw),
		ArmTo(arm, PoseStow),
	)
}
