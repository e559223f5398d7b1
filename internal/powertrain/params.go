package powertrain

import (
	"errors"
	"fmt"

	"github.com/san-kum/evtwin/internal/components"
)

// Motor variants accepted by Params.MotorVariant.
const (
	MotorPMSM    = "pmsm"
	MotorGeneric = "generic"
)

const (
	DefaultMassKg            = 1700.0
	DefaultRollingResistance = 0.01
	DefaultDragArea          = 0.7
)

// Constants are the physical environment of a run.
type Constants struct {
	AirDensity float64 // kg/m³
	Gravity    float64 // m/s²
	AmbientC   float64 // thermal relaxation target
}

func DefaultConstants() Constants {
	return Constants{
		AirDensity: 1.225,
		Gravity:    9.81,
		AmbientC:   25.0,
	}
}

// Params is the full construction-time configuration of an Engine.
type Params struct {
	CapacityKWh    float64
	NominalVoltage float64

	MotorVariant  string
	MaxPowerKW    float64
	MaxTorqueNm   float64
	RegenFraction float64 // zero keeps the motor default

	PeakEfficiency float64

	GearRatios   []float64
	FinalDrive   float64
	WheelRadiusM float64

	MassKg            float64
	RollingResistance float64
	DragArea          float64

	Constants Constants
}

func DefaultParams() Params {
	return Params{
		CapacityKWh:       components.DefaultCapacityKWh,
		NominalVoltage:    components.DefaultNominalVoltage,
		MotorVariant:      MotorPMSM,
		MaxPowerKW:        components.DefaultPMSMPowerKW,
		MaxTorqueNm:       components.DefaultPMSMTorqueNm,
		PeakEfficiency:    components.DefaultPeakEfficiency,
		GearRatios:        components.DefaultGearRatios(),
		FinalDrive:        components.DefaultFinalDrive,
		WheelRadiusM:      components.DefaultWheelRadiusM,
		MassKg:            DefaultMassKg,
		RollingResistance: DefaultRollingResistance,
		DragArea:          DefaultDragArea,
		Constants:         DefaultConstants(),
	}
}

// Validate reports every invalid field at once.
func (p Params) Validate() error {
	var errs []error
	check := func(field string, v float64) {
		if !(v > 0) {
			errs = append(errs, &components.ParamError{Component: "vehicle", Field: field, Value: v})
		}
	}
	check("mass_kg", p.MassKg)
	check("rolling_resistance", p.RollingResistance)
	check("drag_area", p.DragArea)
	check("air_density", p.Constants.AirDensity)
	check("gravity", p.Constants.Gravity)
	if p.RegenFraction < 0 || p.RegenFraction > 1 {
		errs = append(errs, &components.ParamError{
			Component: "motor",
			Field:     "regen_fraction",
			Value:     p.RegenFraction,
			Reason:    "must be in [0, 1]",
		})
	}
	switch p.MotorVariant {
	case "", MotorPMSM, MotorGeneric:
	default:
		errs = append(errs, fmt.Errorf("motor: unknown variant %q: %w", p.MotorVariant, components.ErrInvalidParameter))
	}
	return errors.Join(errs...)
}

func (p Params) newMotor() (*components.Motor, error) {
	var (
		m   *components.Motor
		err error
	)
	if p.MotorVariant == MotorGeneric {
		m, err = components.NewMotor(p.MaxPowerKW, p.MaxTorqueNm, components.GenericEfficiency{})
	} else {
		m, err = components.NewPMSM(p.MaxPowerKW, p.MaxTorqueNm)
	}
	if err != nil {
		return nil, err
	}
	if p.RegenFraction > 0 {
		m.RegenFraction = p.RegenFraction
	}
	return m, nil
}
