package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// MotorBus reads and writes normalized motor positions in [-100, 100].
// Subsystems talk to their motors through this interface; the real
// implementation is a serial servo bus, tests and demo mode use a simulated
// one.
type MotorBus interface {
	Positions(ctx context.Context) (map[MotorName]float64, error)
	SetPositions(ctx context.Context, positions map[MotorName]float64) error
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// ServoBus drives a subset of motors on a shared feetech serial bus. Several
// ServoBus views (arm, gripper) may share one underlying bus; whoever opened
// the bus owns closing it.
type ServoBus struct {
	group       *feetech.ServoGroup
	calibration Calibration
}

// OpenBus opens the serial servo bus at port.
func OpenBus(port string) (*feetech.Bus, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	return bus, nil
}

// NewServoBus creates a view over the named motors on bus.
func NewServoBus(bus *feetech.Bus, cal Calibration, motors []MotorName) (*ServoBus, error) {
	if !cal.Covers(motors) {
		return nil, fmt.Errorf("create servo bus: calibration missing motors")
	}
	ids := cal.IDsFor(motors)
	return &ServoBus{
		group:       feetech.NewServoGroupByIDs(bus, ids...),
		calibration: cal,
	}, nil
}

// Positions reads current positions from all motors in the view, normalized
// to [-100, 100].
func (b *ServoBus) Positions(ctx context.Context) (map[MotorName]float64, error) {
	rawPositions, err := b.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	positions := make(map[MotorName]float64, len(rawPositions))
	for id, raw := range rawPositions {
		name, cal, ok := b.calibration.ByID(id)
		if !ok {
			continue
		}
		positions[name] = cal.Normalize(raw)
	}
	return positions, nil
}

// SetPositions writes normalized target positions to the motors in the view.
func (b *ServoBus) SetPositions(ctx context.Context, positions map[MotorName]float64) error {
	rawPositions := make(feetech.PositionMap, len(positions))
	for name, norm := range positions {
		cal, ok := b.calibration[name]
		if !ok {
			continue
		}
		rawPositions[cal.ID] = cal.Denormalize(norm)
	}

	if err := b.group.SetPositions(ctx, rawPositions); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// Enable enables torque on all motors in the view.
func (b *ServoBus) Enable(ctx context.Context) error {
	return b.group.EnableAll(ctx)
}

// Disable disables torque on all motors in the view.
func (b *ServoBus) Disable(ctx context.Context) error {
	return b.group.DisableAll(ctx)
}
