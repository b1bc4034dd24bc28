package main

import (
	"github.com/gwillem/robokit/pkg/robot"
)

type DemoCommand struct {
	Hz  int    `long:"hz" default:"50" description:"Control loop frequency"`
	Log string `long:"log" default:"robokit.log" description:"Structured log file"`
}

// Execute runs the full control stack against a simulated arm, no hardware
// or calibration needed.
func (c *DemoCommand) Execute(args []string) error {
	armBus := robot.NewSimBus(robot.ArmMotors(), 4)
	clawBus := robot.NewSimBus([]robot.MotorName{robot.Gripper}, 10)
	return startControl(armBus, clawBus, c.Hz, c.Log)
}
