// Package drivecycle generates target-speed profiles for the powertrain
// engine, one target per tick.
package drivecycle

import (
	"errors"
	"fmt"
)

var ErrInvalidCycle = errors.New("drivecycle: invalid cycle")

// Phase boundaries of the trapezoidal urban/extra-urban cycle, in minutes.
const (
	idleEndMin      = 2.0
	lowRampEndMin   = 6.0
	lowCruiseEndMin = 16.0
	highRampEndMin  = 20.0
	highCruiseEnd   = 26.0
	stopEndMin      = 28.0

	LowCruiseFactor  = 0.85
	HighCruiseFactor = 1.25
)

const (
	DefaultDurationMin = 30.0
	DefaultStepMin     = 0.5
	DefaultAvgKmph     = 60.0
)

func validate(durationMin, stepMin, avgSpeedKmph float64) error {
	if !(stepMin > 0) {
		return fmt.Errorf("%w: step must be positive, got %g", ErrInvalidCycle, stepMin)
	}
	if !(durationMin > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidCycle, durationMin)
	}
	if avgSpeedKmph < 0 {
		return fmt.Errorf("%w: average speed must not be negative, got %g", ErrInvalidCycle, avgSpeedKmph)
	}
	return nil
}

// Generate returns int(durationMin/stepMin) target speeds in km/h following
// a fixed shape: idle, ramp to low cruise, hold, ramp to high cruise, hold,
// ramp to a stop, idle.
func Generate(durationMin, stepMin, avgSpeedKmph float64) ([]float64, error) {
	if err := validate(durationMin, stepMin, avgSpeedKmph); err != nil {
		return nil, err
	}

	low := avgSpeedKmph * LowCruiseFactor
	high := avgSpeedKmph * HighCruiseFactor

	n := int(durationMin / stepMin)
	speeds := make([]float64, n)
	for i := range speeds {
		speeds[i] = targetAt(float64(i)*stepMin, low, high)
	}
	return speeds, nil
}

func targetAt(t, low, high float64) float64 {
	switch {
	case t < idleEndMin:
		return 0
	case t < lowRampEndMin:
		return (t - idleEndMin) / (lowRampEndMin - idleEndMin) * low
	case t < lowCruiseEndMin:
		return low
	case t < highRampEndMin:
		return low + (t-lowCruiseEndMin)/(highRampEndMin-lowCruiseEndMin)*(high-low)
	case t < highCruiseEnd:
		return high
	case t < stopEndMin:
		return high - (t-highCruiseEnd)/(stopEndMin-highCruiseEnd)*high
	default:
		return 0
	}
}

// Constant holds speedKmph for the whole duration.
func Constant(durationMin, stepMin, speedKmph float64) ([]float64, error) {
	if err := validate(durationMin, stepMin, speedKmph); err != nil {
		return nil, err
	}
	speeds := make([]float64, int(durationMin/stepMin))
	for i := range speeds {
		speeds[i] = speedKmph
	}
	return speeds, nil
}

// Times returns the start time of each of n ticks.
func Times(n int, stepMin float64) []float64 {
	if n <= 0 {
		return nil
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * stepMin
	}
	return times
}

// Kinds of profile accepted by Build.
const (
	KindStandard = "standard"
	KindConstant = "constant"
)

// Build dispatches on kind; an empty kind selects the standard cycle.
func Build(kind string, durationMin, stepMin, speedKmph float64) ([]float64, error) {
	switch kind {
	case "", KindStandard:
		return Generate(durationMin, stepMin, speedKmph)
	case KindConstant:
		return Constant(durationMin, stepMin, speedKmph)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidCycle, kind)
	}
}
