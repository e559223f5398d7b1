package components

import "math"

const (
	DefaultMotorPowerKW  = 100.0
	DefaultMotorTorqueNm = 300.0
	DefaultPMSMPowerKW   = 120.0
	DefaultPMSMTorqueNm  = 320.0

	// ReferenceSpeedRPM normalises shaft speed for efficiency lookups.
	ReferenceSpeedRPM = 8000.0

	MinMotorEfficiency = 0.5
	MaxMotorEfficiency = 0.98

	DefaultRegenFraction = 0.5
)

// EfficiencyModel maps normalised torque and speed to an efficiency.
// Both fractions are nominally in [0, 1]; the motor clamps the result.
type EfficiencyModel interface {
	Efficiency(torqueFrac, speedFrac float64) float64
}

// EfficiencyFunc adapts a plain function to EfficiencyModel.
type EfficiencyFunc func(torqueFrac, speedFrac float64) float64

func (f EfficiencyFunc) Efficiency(torqueFrac, speedFrac float64) float64 {
	return f(torqueFrac, speedFrac)
}

// GenericEfficiency is the base motor heuristic: a torque-only tent
// peaking at 20% torque.
type GenericEfficiency struct{}

func (GenericEfficiency) Efficiency(torqueFrac, _ float64) float64 {
	return 0.85 + 0.10*(1-math.Abs(torqueFrac-0.2))
}

// PMSMEfficiency is the permanent-magnet synchronous surface, a quadratic
// bowl peaking near 20% torque and 30% speed.
type PMSMEfficiency struct{}

func (PMSMEfficiency) Efficiency(torqueFrac, speedFrac float64) float64 {
	dt := torqueFrac - 0.2
	ds := speedFrac - 0.3
	return 0.9 - 0.1*dt*dt - 0.05*ds*ds
}

// Motor converts shaft torque and speed to electrical power.
type Motor struct {
	MaxPowerKW  float64
	MaxTorqueNm float64
	Model       EfficiencyModel

	// RegenFraction is the share of braking power recoverable as AC power.
	RegenFraction float64

	variant string
}

func NewMotor(maxPowerKW, maxTorqueNm float64, model EfficiencyModel) (*Motor, error) {
	if err := requirePositive("motor", "max_power_kw", maxPowerKW); err != nil {
		return nil, err
	}
	if err := requirePositive("motor", "max_torque_nm", maxTorqueNm); err != nil {
		return nil, err
	}
	variant := "custom"
	switch model.(type) {
	case nil:
		model = GenericEfficiency{}
		variant = "generic"
	case GenericEfficiency:
		variant = "generic"
	case PMSMEfficiency:
		variant = "pmsm"
	}
	return &Motor{
		MaxPowerKW:    maxPowerKW,
		MaxTorqueNm:   maxTorqueNm,
		Model:         model,
		RegenFraction: DefaultRegenFraction,
		variant:       variant,
	}, nil
}

// NewPMSM returns a permanent-magnet synchronous motor.
func NewPMSM(maxPowerKW, maxTorqueNm float64) (*Motor, error) {
	return NewMotor(maxPowerKW, maxTorqueNm, PMSMEfficiency{})
}

func (m *Motor) Variant() string { return m.variant }

// ShaftPowerKW is the mechanical power for a torque/speed pair.
func ShaftPowerKW(torqueNm, rpm float64) float64 {
	return torqueNm * rpm * 2.0 * math.Pi / 60000.0
}

func (m *Motor) ShaftPowerKW(torqueNm, rpm float64) float64 {
	return ShaftPowerKW(torqueNm, rpm)
}

// Efficiency looks up the model at the normalised operating point and
// clamps the result to [0.5, 0.98].
func (m *Motor) Efficiency(torqueNm, rpm float64) float64 {
	torqueFrac := math.Abs(torqueNm) / math.Max(1e-6, m.MaxTorqueNm)
	speedFrac := math.Min(1.0, rpm/ReferenceSpeedRPM)
	return clamp(m.Model.Efficiency(torqueFrac, speedFrac), MinMotorEfficiency, MaxMotorEfficiency)
}

// ProducePower returns shaft and electrical power in kW. Electrical power is
// capped at MaxPowerKW and the shaft power is recomputed from the capped
// value so both sides reflect saturation.
func (m *Motor) ProducePower(torqueNm, rpm float64) (shaftKW, elecKW float64) {
	shaftKW = ShaftPowerKW(torqueNm, rpm)
	eff := m.Efficiency(torqueNm, rpm)
	if eff <= 0 {
		return 0, 0
	}
	elecKW = math.Min(shaftKW/eff, m.MaxPowerKW)
	shaftKW = elecKW * eff
	return shaftKW, elecKW
}

// RegenEfficiencyFraction is the share of braking power returned as AC power.
func (m *Motor) RegenEfficiencyFraction() float64 {
	return m.RegenFraction
}

func (m *Motor) Info() map[string]any {
	return map[string]any{
		"variant":        m.variant,
		"max_power_kw":   m.MaxPowerKW,
		"max_torque_nm":  m.MaxTorqueNm,
		"regen_fraction": m.RegenFraction,
	}
}
