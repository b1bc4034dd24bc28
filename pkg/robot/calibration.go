package robot

// MotorCalibration holds the recorded range of motion for a single motor.
type MotorCalibration struct {
	ID       int `json:"id"`
	RangeMin int `json:"range_min"`
	RangeMax int `json:"range_max"`
}

// Calibration holds calibration data for all motors, keyed by motor name.
type Calibration map[MotorName]MotorCalibration

// Normalize converts a raw servo position to a normalized value in the range
// [-100, 100].
func (c MotorCalibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	return (float64(raw-c.RangeMin)/rangeSize)*200 - 100
}

// Denormalize converts a normalized value to a raw servo position, clamped to
// the calibrated range so a command can never drive a joint past its recorded
// limits.
func (c MotorCalibration) Denormalize(norm float64) int {
	if norm < -100 {
		norm = -100
	}
	if norm > 100 {
		norm = 100
	}
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int((norm+100)/200*rangeSize) + c.RangeMin
}

// IDsFor returns the servo IDs for the named motors, in the given order.
// Motors missing from the calibration are skipped.
func (c Calibration) IDsFor(motors []MotorName) []int {
	ids := make([]int, 0, len(motors))
	for _, name := range motors {
		if mc, ok := c[name]; ok {
			ids = append(ids, mc.ID)
		}
	}
	return ids
}

// ByID returns motor name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (MotorName, MotorCalibration, bool) {
	for name, mc := range c {
		if mc.ID == id {
			return name, mc, true
		}
	}
	return "", MotorCalibration{}, false
}

// Covers reports whether every named motor has calibration data.
func (c Calibration) Covers(motors []MotorName) bool {
	for _, name := range motors {
		if _, ok := c[name]; !ok {
			return false
		}
	}
	return true
}
