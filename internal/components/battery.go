package components

import "math"

const (
	DefaultCapacityKWh    = 50.0
	DefaultNominalVoltage = 400.0

	initialTemperatureC = 25.0

	dischargeHeatCoeff = 0.02
	chargeHeatCoeff    = 0.01

	healthLossPerCycle = 0.01
	hotHealthLoss      = 0.02
	hotThresholdC      = 50.0

	relaxationRate = 0.1
)

// Battery is an energy reservoir measured in kWh.
//
// Stored energy is clamped to [0, CapacityKWh] on every charge and
// discharge, so the state of charge always lies in [0, 100].
type Battery struct {
	capacityKWh    float64
	energyKWh      float64
	nominalVoltage float64

	TemperatureC  float64
	HealthPercent float64
}

// NewBattery returns a fully charged battery at 25 °C and 100% health.
func NewBattery(capacityKWh, nominalVoltage float64) (*Battery, error) {
	if err := requirePositive("battery", "capacity_kwh", capacityKWh); err != nil {
		return nil, err
	}
	if err := requirePositive("battery", "nominal_voltage", nominalVoltage); err != nil {
		return nil, err
	}
	return &Battery{
		capacityKWh:    capacityKWh,
		energyKWh:      capacityKWh,
		nominalVoltage: nominalVoltage,
		TemperatureC:   initialTemperatureC,
		HealthPercent:  100.0,
	}, nil
}

func (b *Battery) CapacityKWh() float64    { return b.capacityKWh }
func (b *Battery) EnergyKWh() float64      { return b.energyKWh }
func (b *Battery) NominalVoltage() float64 { return b.nominalVoltage }

// SOCPercent is the stored energy as a percentage of capacity.
func (b *Battery) SOCPercent() float64 {
	return 100.0 * b.energyKWh / b.capacityKWh
}

// SetEnergyKWh overrides the stored energy, clamped to [0, capacity].
func (b *Battery) SetEnergyKWh(kwh float64) {
	b.energyKWh = clamp(kwh, 0, b.capacityKWh)
}

// Discharge draws up to requested kWh and returns what was delivered.
// Negative requests are treated as zero.
func (b *Battery) Discharge(requestedKWh float64) float64 {
	requested := math.Max(0, requestedKWh)
	delivered := math.Min(b.energyKWh, requested)
	b.energyKWh = math.Max(0, b.energyKWh-delivered)
	b.TemperatureC += dischargeHeatCoeff * b.heatFactor(delivered)
	return delivered
}

// Charge stores up to requested kWh and returns what was accepted.
// Acceptance is limited by the remaining headroom to capacity.
func (b *Battery) Charge(requestedKWh float64) float64 {
	requested := math.Max(0, requestedKWh)
	accepted := math.Min(b.capacityKWh-b.energyKWh, requested)
	b.energyKWh = math.Min(b.capacityKWh, b.energyKWh+accepted)
	b.TemperatureC += chargeHeatCoeff * b.heatFactor(accepted)
	return accepted
}

// heatFactor scales an energy flow by the inverse of voltage/100, floored at 1.
func (b *Battery) heatFactor(kwh float64) float64 {
	return kwh * 1000.0 / math.Max(1.0, b.nominalVoltage/100.0)
}

// UpdateHealth applies 0.01 points of wear per cycle, plus 0.02 points when
// the pack is above 50 °C. Health stays within [0, 100].
func (b *Battery) UpdateHealth(cycles float64) {
	b.HealthPercent -= healthLossPerCycle * cycles
	if b.TemperatureC > hotThresholdC {
		b.HealthPercent -= hotHealthLoss
	}
	b.HealthPercent = clamp(b.HealthPercent, 0, 100)
}

// Relax moves the pack temperature toward ambient over dtMinutes.
func (b *Battery) Relax(ambientC, dtMinutes float64) {
	b.TemperatureC += -relaxationRate * (b.TemperatureC - ambientC) * dtMinutes
}

func (b *Battery) Info() map[string]any {
	return map[string]any{
		"capacity_kwh":    b.capacityKWh,
		"energy_kwh":      b.energyKWh,
		"soc_percent":     b.SOCPercent(),
		"nominal_voltage": b.nominalVoltage,
		"temperature_c":   b.TemperatureC,
		"health_percent":  b.HealthPercent,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
