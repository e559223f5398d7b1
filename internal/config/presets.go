package config

import (
	"sort"

	"github.com/san-kum/evtwin/internal/powertrain"
)

type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"compact": {
		Description: "small city car, generic motor",
		apply: func(c *Config) {
			c.Vehicle.MassKg, c.Vehicle.DragArea = 1250, 0.6
			c.Battery.CapacityKWh, c.Battery.NominalVoltage = 40, 350
			c.Motor.Variant, c.Motor.MaxPowerKW, c.Motor.MaxTorqueNm = powertrain.MotorGeneric, 80, 220
			c.Cycle.AvgSpeedKmph = 45
		},
	},
	"sedan": {
		Description: "mid-size sedan, PMSM",
		apply: func(c *Config) {
			c.Vehicle.MassKg, c.Vehicle.DragArea = 1750, 0.7
			c.Battery.CapacityKWh, c.Battery.NominalVoltage = 55, 420
			c.Motor.Variant, c.Motor.MaxPowerKW, c.Motor.MaxTorqueNm = powertrain.MotorPMSM, 150, 350
		},
	},
	"suv": {
		Description: "heavy SUV, large pack",
		apply: func(c *Config) {
			c.Vehicle.MassKg, c.Vehicle.DragArea, c.Vehicle.RollingResistance = 2300, 0.95, 0.012
			c.Battery.CapacityKWh, c.Battery.NominalVoltage = 85, 400
			c.Motor.Variant, c.Motor.MaxPowerKW, c.Motor.MaxTorqueNm = powertrain.MotorPMSM, 220, 450
			c.Cycle.AvgSpeedKmph = 70
		},
	},
	"delivery": {
		Description: "loaded delivery van, low speed",
		apply: func(c *Config) {
			c.Vehicle.MassKg, c.Vehicle.DragArea, c.Vehicle.RollingResistance = 3200, 1.3, 0.013
			c.Battery.CapacityKWh, c.Battery.NominalVoltage = 75, 400
			c.Motor.Variant, c.Motor.MaxPowerKW, c.Motor.MaxTorqueNm = powertrain.MotorGeneric, 130, 400
			c.Motor.RegenFraction = 0.6
			c.Cycle.AvgSpeedKmph = 40
		},
	},
}

// GetPreset returns a fresh config for name, or nil when unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = name
	p.apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
