package powertrain

import (
	"fmt"
	"math"

	"github.com/san-kum/evtwin/internal/components"
)

const (
	// MaxAccelMPS2 and MaxDecelMPS2 bound the per-tick acceleration toward the target speed.
	MaxAccelMPS2 = 2.0
	MaxDecelMPS2 = -3.0

	// standstillMPS is the average speed below which braking force is ignored.
	standstillMPS = 0.1

	minDerate       = 0.5
	shortfallDerate = 0.8

	minRatio = 1e-6
	minEff   = 1e-6
)

// Engine advances a vehicle and its powertrain one tick at a time.
type Engine struct {
	battery      components.Battery
	motor        components.Motor
	inverter     components.Inverter
	transmission components.Transmission

	massKg            float64
	rollingResistance float64
	dragArea          float64
	constants         Constants

	speedKmph   float64
	distanceKm  float64
	timeMinutes float64
}

// New builds an engine at rest. Any invalid parameter aborts construction.
func New(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	battery, err := components.NewBattery(p.CapacityKWh, p.NominalVoltage)
	if err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	motor, err := p.newMotor()
	if err != nil {
		return nil, fmt.Errorf("motor: %w", err)
	}
	inverter, err := components.NewInverter(p.PeakEfficiency)
	if err != nil {
		return nil, fmt.Errorf("inverter: %w", err)
	}
	transmission, err := components.NewTransmission(p.GearRatios, p.FinalDrive, p.WheelRadiusM)
	if err != nil {
		return nil, fmt.Errorf("transmission: %w", err)
	}

	return &Engine{
		battery:           *battery,
		motor:             *motor,
		inverter:          *inverter,
		transmission:      *transmission,
		massKg:            p.MassKg,
		rollingResistance: p.RollingResistance,
		dragArea:          p.DragArea,
		constants:         p.Constants,
	}, nil
}

func (e *Engine) Battery() *components.Battery           { return &e.battery }
func (e *Engine) Motor() *components.Motor               { return &e.motor }
func (e *Engine) Inverter() *components.Inverter         { return &e.inverter }
func (e *Engine) Transmission() *components.Transmission { return &e.transmission }

func (e *Engine) SpeedKmph() float64   { return e.speedKmph }
func (e *Engine) DistanceKm() float64  { return e.distanceKm }
func (e *Engine) TimeMinutes() float64 { return e.timeMinutes }

// SetSpeedKmph places the vehicle at a given speed, e.g. to start a
// scenario mid-journey. Negative speeds are treated as zero.
func (e *Engine) SetSpeedKmph(v float64) {
	e.speedKmph = math.Max(0, v)
}

// Step advances the vehicle toward targetSpeedKmph over dtMinutes and
// returns the resulting record.
func (e *Engine) Step(targetSpeedKmph, dtMinutes float64) Record {
	dtHours := dtMinutes / 60.0
	dtSeconds := dtHours * 3600.0

	// kinematics
	curMPS := e.speedKmph / 3.6
	tgtMPS := targetSpeedKmph / 3.6
	dv := tgtMPS - curMPS
	accel := dv
	if dtSeconds > 0 {
		accel = dv / dtSeconds
	}
	accel = math.Max(MaxDecelMPS2, math.Min(MaxAccelMPS2, accel))
	newMPS := math.Max(0, curMPS+accel*dtSeconds)
	avgMPS := 0.5 * (curMPS + newMPS)

	e.speedKmph = newMPS * 3.6
	e.distanceKm += avgMPS * dtSeconds / 1000.0

	// force balance
	fAero := 0.5 * e.constants.AirDensity * e.dragArea * avgMPS * avgMPS
	fRoll := e.massKg * e.constants.Gravity * e.rollingResistance
	fAccel := e.massKg * accel
	fTotal := fAero + fRoll + fAccel
	if avgMPS < standstillMPS && fAccel < 0 {
		fTotal = 0
	}
	pMechKW := fTotal * avgMPS / 1000.0

	wheelTorque := fTotal * e.transmission.WheelRadiusM()
	motorTorque := wheelTorque / math.Max(minRatio, e.transmission.TotalRatio())
	motorRPM := e.transmission.MotorRPMFromWheelSpeed(e.speedKmph)

	rec := Record{
		MechanicalPowerKW: pMechKW,
		MotorRPM:          motorRPM,
		MotorTorqueNm:     motorTorque,
	}

	if pMechKW >= 0 {
		e.drive(&rec, motorTorque, motorRPM, dtHours)
	} else {
		e.regenerate(&rec, -pMechKW, dtHours)
	}

	e.battery.UpdateHealth(0)
	e.battery.Relax(e.constants.AmbientC, dtMinutes)
	e.timeMinutes += dtMinutes

	rec.TimeMinutes = e.timeMinutes
	rec.SpeedKmph = e.speedKmph
	rec.DistanceKm = e.distanceKm
	rec.BatteryEnergyKWh = e.battery.EnergyKWh()
	rec.BatterySOCPercent = e.battery.SOCPercent()
	rec.BatteryTempC = e.battery.TemperatureC
	rec.BatteryHealthPercent = e.battery.HealthPercent
	rec.Gear = e.transmission.CurrentGear
	return rec
}

// drive resolves the forward path: battery → inverter → motor.
func (e *Engine) drive(rec *Record, torqueNm, rpm, dtHours float64) {
	shaftKW, elecKW := e.motor.ProducePower(torqueNm, rpm)
	_, invEff := e.inverter.DCToAC(elecKW)

	dcKW := elecKW
	if invEff > minEff {
		dcKW = elecKW + elecKW*(1.0/invEff-1.0)
	}

	needed := dcKW * dtHours
	drawn := e.battery.Discharge(needed)
	if drawn < needed && needed > 0 {
		shortfall := 1.0 - drawn/needed
		e.speedKmph *= math.Max(minDerate, 1.0-shortfallDerate*shortfall)
		rec.ShortfallFraction = shortfall
	}

	rec.ShaftPowerKW = shaftKW
	rec.ElectricalPowerKW = elecKW
	rec.DCPowerKW = dcKW
	rec.EnergyDrawnKWh = drawn
}

// regenerate recovers part of brakingKW through the inverter into the battery.
func (e *Engine) regenerate(rec *Record, brakingKW, dtHours float64) {
	acKW := brakingKW * e.motor.RegenEfficiencyFraction()
	dcKW, _ := e.inverter.ACToDC(acKW)
	charged := e.battery.Charge(dcKW * dtHours)

	rec.Regen = true
	rec.ShaftPowerKW = 0
	rec.ElectricalPowerKW = -dcKW
	if dtHours > 0 {
		rec.DCPowerKW = -charged / dtHours
	}
	rec.EnergyRegenKWh = charged
}

// Info snapshots the components and vehicle constants.
func (e *Engine) Info() Summary {
	return Summary{
		Battery:           e.battery.Info(),
		Motor:             e.motor.Info(),
		Inverter:          e.inverter.Info(),
		Transmission:      e.transmission.Info(),
		MassKg:            e.massKg,
		RollingResistance: e.rollingResistance,
		DragArea:          e.dragArea,
	}
}
