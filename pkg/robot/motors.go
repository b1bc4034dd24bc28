// Package robot provides subsystems and commands for an SO-101 arm driven by
// the command scheduler.
package robot

// MotorName identifies a motor on the servo bus.
type MotorName string

// Motor names for the SO-101 arm. IDs 1-5 are the arm joints, ID 6 drives
// the gripper.
const (
	ShoulderPan  MotorName = "shoulder_pan"
	ShoulderLift MotorName = "shoulder_lift"
	ElbowFlex    MotorName = "elbow_flex"
	WristFlex    MotorName = "wrist_flex"
	WristRoll    MotorName = "wrist_roll"
	Gripper      MotorName = "gripper"
)

// ArmMotors returns the arm joint motors in servo ID order (1-5).
func ArmMotors() []MotorName {
	return []MotorName{
		ShoulderPan,
		ShoulderLift,
		ElbowFlex,
		WristFlex,
		WristRoll,
	}
}

// AllMotors returns every motor in servo ID order (1-6).
func AllMotors() []MotorName {
	return append(ArmMotors(), Gripper)
}
