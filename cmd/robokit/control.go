package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/gwillem/robokit/pkg/input"
	"github.com/gwillem/robokit/pkg/loop"
	"github.com/gwillem/robokit/pkg/robot"
	"github.com/gwillem/robokit/pkg/sched"
	"github.com/gwillem/robokit/pkg/telemetry"
)

// initLogger writes structured logs to a file; stdout belongs to the TUI.
func initLogger(path string) (zerolog.Logger, func()) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.New(io.Discard), func() {}
	}
	output := zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "robokit").Logger()
	return logger, func() { f.Close() }
}

// startControl wires the scheduler, subsystems, triggers and runner, then
// hands the terminal to the dashboard until the user quits.
func startControl(armBus, clawBus robot.MotorBus, hz int, logPath string) error {
	logger, closeLog := initLogger(logPath)
	defer closeLog()

	board := telemetry.NewBoard()
	store := input.NewStore()

	arm := robot.NewArm(armBus, board)
	claw := robot.NewClaw(clawBus, board)

	s := sched.New(logger)
	s.Register(arm)
	s.Register(claw)

	// The arm always holds position when nothing else wants it.
	if err := s.SetDefault(arm, func() sched.Command { return robot.HoldArm(arm) }); err != nil {
		return fmt.Errorf("wire defaults: %w", err)
	}

	runner, err := loop.NewRunner(loop.Config{
		Scheduler: s,
		Board:     board,
		Hz:        hz,
		Log:       logger,
	})
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	// Teleop control runs only while the teleop mode is active; on exit the
	// hold-arm default takes the arm back.
	s.When(func() bool { return runner.Mode() == loop.Teleop }).
		WhileTrue(robot.TeleopArm(arm, store, 2))

	// Grip button: press to close, press again to let go.
	s.When(func() bool { return store.Button(0) }).
		ToggleOnTrue(robot.CloseClaw(claw))

	// Torque follows the mode.
	enable := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := arm.Enable(ctx); err != nil {
			logger.Warn().Err(err).Msg("enable arm torque")
		}
		if err := clawBus.Enable(ctx); err != nil {
			logger.Warn().Err(err).Msg("enable claw torque")
		}
	}
	disable := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := arm.Disable(ctx); err != nil {
			logger.Warn().Err(err).Msg("disable arm torque")
		}
		if err := clawBus.Disable(ctx); err != nil {
			logger.Warn().Err(err).Msg("disable claw torque")
		}
	}
	runner.OnMode(loop.Teleop, enable)
	runner.OnMode(loop.Disabled, disable)
	// Autonomous needs torque before its routine starts moving joints.
	runner.OnMode(loop.Autonomous, func() {
		enable()
		s.Schedule(robot.PickRoutine(arm, claw))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := runner.Start(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("control loop stopped")
		}
	}()

	p := tea.NewProgram(newDashModel(runner, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}

	cancel()
	disable()
	return nil
}
