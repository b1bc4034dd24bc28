package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/robokit/pkg/robot"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct {
	Port    string `long:"port" description:"Serial port (skip scanning)"`
	Seconds int    `long:"seconds" default:"15" description:"Range-of-motion recording time"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Robokit Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	port := c.Port
	if port == "" {
		var err error
		port, err = scanForArm()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	bus, servos, err := connectToArm(port)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", port, err)
	}
	defer bus.Close()

	calibration, err := recordCalibration(bus, servos, c.Seconds)
	if err != nil {
		return err
	}

	cfg := &robot.Config{Port: port, Calibration: calibration}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", robot.DefaultConfigFile)
	fmt.Println()
	fmt.Println("Start the control loop with: " + headerStyle.Render("robokit run"))
	return nil
}

func scanForArm() (string, error) {
	fmt.Println("Scanning for the arm...")

	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}

	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		bus, servos, err := connectToArm(port)
		if err != nil {
			continue
		}
		bus.Close()
		fmt.Printf("  Found arm with %d servos on %s\n", len(servos), port)
		return port, nil
	}

	return "", fmt.Errorf("no SO-101 arm found; connect it, power it on, or pass --port")
}

func connectToArm(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, 6)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	if !hasAllServos(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("expected 6 servos with IDs 1-6, found %d", len(servos))
	}
	return bus, servos, nil
}

func hasAllServos(servos []feetech.FoundServo) bool {
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= 6; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

// recordCalibration tracks each servo's min and max position while the user
// moves every joint through its full range of motion.
func recordCalibration(bus *feetech.Bus, found []feetech.FoundServo, seconds int) (robot.Calibration, error) {
	ctx := context.Background()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range found {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable torque so the user can move the arm freely.
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	fmt.Println()
	fmt.Println("Move every joint (and the gripper) to its minimum AND maximum position.")
	fmt.Printf("Recording for %d seconds once you continue.\n", seconds)
	if err := confirm("Ready?"); err != nil {
		return nil, err
	}

	motors := robot.AllMotors()
	minPos := make(map[robot.MotorName]int)
	maxPos := make(map[robot.MotorName]int)
	for i, name := range motors {
		pos, err := servoMap[i+1].Position(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		minPos[name] = pos
		maxPos[name] = pos
	}

	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	for time.Now().Before(deadline) {
		for i, name := range motors {
			pos, err := servoMap[i+1].Position(ctx)
			if err != nil {
				continue
			}
			if pos < minPos[name] {
				minPos[name] = pos
			}
			if pos > maxPos[name] {
				maxPos[name] = pos
			}
		}
		fmt.Printf("\r  %ds left...  ", int(time.Until(deadline).Seconds())+1)
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Println()

	calibration := make(robot.Calibration)
	for i, name := range motors {
		rangeSize := maxPos[name] - minPos[name]
		marker := successStyle.Render("ok")
		if rangeSize < 500 {
			marker = dimStyle.Render("narrow range, consider re-running setup")
		}
		fmt.Printf("  %-13s min %4d  max %4d  %s\n", name, minPos[name], maxPos[name], marker)
		calibration[name] = robot.MotorCalibration{
			ID:       i + 1,
			RangeMin: minPos[name],
			RangeMax: maxPos[name],
		}
	}
	return calibration, nil
}

func confirm(title string) error {
	ok := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Continue").
				Negative("Abort").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("setup aborted")
	}
	return nil
}
