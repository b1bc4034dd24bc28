package main

import (
	"fmt"
	"os"

	"github.com/gwillem/robokit/pkg/robot"
)

type RunCommand struct {
	Hz  int    `long:"hz" default:"50" description:"Control loop frequency"`
	Log string `long:"log" default:"robokit.log" description:"Structured log file"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := robot.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'robokit setup' first.")
		os.Exit(1)
	}
	if cfg.Port == "" || !cfg.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Arm not calibrated. Run 'robokit setup' first.")
		os.Exit(1)
	}

	bus, err := robot.OpenBus(cfg.Port)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	defer bus.Close()

	armBus, err := robot.NewServoBus(bus, cfg.Calibration, robot.ArmMotors())
	if err != nil {
		return fmt.Errorf("create arm bus: %w", err)
	}
	clawBus, err := robot.NewServoBus(bus, cfg.Calibration, []robot.MotorName{robot.Gripper})
	if err != nil {
		return fmt.Errorf("create claw bus: %w", err)
	}

	fmt.Printf("Loaded configuration from %s\n", robot.DefaultConfigFile)
	return startControl(armBus, clawBus, c.Hz, c.Log)
}
