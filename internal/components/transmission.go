package components

import (
	"fmt"
	"math"
)

const (
	DefaultFinalDrive   = 9.0
	DefaultWheelRadiusM = 0.3
)

// DefaultGearRatios returns a fresh copy of the stock five-speed gearbox.
func DefaultGearRatios() []float64 {
	return []float64{3.6, 2.1, 1.4, 1.0, 0.8}
}

// Transmission is a fixed-ratio gearbox plus final drive. It performs no
// shifting of its own; CurrentGear is set by an external policy.
type Transmission struct {
	gearRatios   []float64
	finalDrive   float64
	wheelRadiusM float64

	// CurrentGear is 1-based. Out-of-range values are clamped on use.
	CurrentGear int
}

func NewTransmission(gearRatios []float64, finalDrive, wheelRadiusM float64) (*Transmission, error) {
	if len(gearRatios) == 0 {
		return nil, &ParamError{Component: "transmission", Field: "gear_ratios", Reason: "must not be empty"}
	}
	for i, r := range gearRatios {
		if err := requirePositive("transmission", fmt.Sprintf("gear_ratios[%d]", i), r); err != nil {
			return nil, err
		}
	}
	if err := requirePositive("transmission", "final_drive_ratio", finalDrive); err != nil {
		return nil, err
	}
	if err := requirePositive("transmission", "wheel_radius_m", wheelRadiusM); err != nil {
		return nil, err
	}
	ratios := make([]float64, len(gearRatios))
	copy(ratios, gearRatios)
	return &Transmission{
		gearRatios:   ratios,
		finalDrive:   finalDrive,
		wheelRadiusM: wheelRadiusM,
		CurrentGear:  1,
	}, nil
}

func (t *Transmission) NumGears() int         { return len(t.gearRatios) }
func (t *Transmission) FinalDrive() float64   { return t.finalDrive }
func (t *Transmission) WheelRadiusM() float64 { return t.wheelRadiusM }
func (t *Transmission) GearRatios() []float64 {
	out := make([]float64, len(t.gearRatios))
	copy(out, t.gearRatios)
	return out
}

// SetGear selects a gear, clamped to [1, NumGears].
func (t *Transmission) SetGear(gear int) {
	t.CurrentGear = t.gear(gear)
}

func (t *Transmission) gear(g int) int {
	if g < 1 {
		return 1
	}
	if g > len(t.gearRatios) {
		return len(t.gearRatios)
	}
	return g
}

// TotalRatio is the current gear ratio times the final drive.
func (t *Transmission) TotalRatio() float64 {
	return t.gearRatios[t.gear(t.CurrentGear)-1] * t.finalDrive
}

// MotorRPMFromWheelSpeed converts road speed to motor shaft speed.
func (t *Transmission) MotorRPMFromWheelSpeed(speedKmph float64) float64 {
	wheelMPS := speedKmph * 1000.0 / 3600.0
	wheelRPS := wheelMPS / (2.0 * math.Pi * t.wheelRadiusM)
	return wheelRPS * t.TotalRatio() * 60.0
}

func (t *Transmission) Info() map[string]any {
	return map[string]any{
		"gear_ratios":       t.GearRatios(),
		"current_gear":      t.gear(t.CurrentGear),
		"final_drive_ratio": t.finalDrive,
		"wheel_radius_m":    t.wheelRadiusM,
	}
}
