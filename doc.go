// Package robokit provides command-based control for SO-101 robot arms.
//
// The core is a cooperative scheduler: commands declare which subsystems they
// need, the scheduler advances every running command once per 20 ms cycle and
// guarantees exclusive subsystem access, with default commands taking over
// idle subsystems.
//
// # Installation
//
//	go install github.com/gwillem/robokit/cmd/robokit@latest
//
// # Usage
//
// First, run setup to detect the arm and record its calibration:
//
//	robokit setup
//
// Then start the control loop (or try it without hardware):
//
//	robokit run
//	robokit demo
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/robokit: CLI with setup, run and demo commands plus the dashboard TUI
//   - pkg/sched: command scheduler, triggers and command composition
//   - pkg/loop: fixed-cadence runner and operating modes
//   - pkg/robot: arm and gripper subsystems, calibration, configuration
//   - pkg/input: controller input snapshots
//   - pkg/telemetry: dashboard key/value sink
package robokit
