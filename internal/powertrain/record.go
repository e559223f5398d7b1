package powertrain

// Record is the state of the vehicle at the end of one tick.
type Record struct {
	TimeMinutes float64 `json:"time_min" yaml:"time_min"`
	SpeedKmph   float64 `json:"speed_kmph" yaml:"speed_kmph"`
	DistanceKm  float64 `json:"distance_km" yaml:"distance_km"`

	MechanicalPowerKW float64 `json:"p_mech_kw" yaml:"p_mech_kw"`
	ShaftPowerKW      float64 `json:"p_motor_shaft_kw" yaml:"p_motor_shaft_kw"`
	ElectricalPowerKW float64 `json:"p_elec_kw" yaml:"p_elec_kw"`
	DCPowerKW         float64 `json:"p_dc_kw" yaml:"p_dc_kw"`

	BatteryEnergyKWh     float64 `json:"battery_energy_kwh" yaml:"battery_energy_kwh"`
	BatterySOCPercent    float64 `json:"battery_soc_percent" yaml:"battery_soc_percent"`
	BatteryTempC         float64 `json:"battery_temp_c" yaml:"battery_temp_c"`
	BatteryHealthPercent float64 `json:"battery_health_percent" yaml:"battery_health_percent"`

	MotorRPM      float64 `json:"motor_rpm" yaml:"motor_rpm"`
	MotorTorqueNm float64 `json:"torque_motor_nm" yaml:"torque_motor_nm"`
	Gear          int     `json:"transmission_gear" yaml:"transmission_gear"`

	EnergyDrawnKWh    float64 `json:"energy_drawn_kwh" yaml:"energy_drawn_kwh"`
	EnergyRegenKWh    float64 `json:"energy_regen_kwh" yaml:"energy_regen_kwh"`
	ShortfallFraction float64 `json:"shortfall_fraction" yaml:"shortfall_fraction"`
	Regen             bool    `json:"regen" yaml:"regen"`
}

// Starved reports whether the battery could not cover the tick's demand.
func (r Record) Starved() bool {
	return r.ShortfallFraction > 0
}

// Summary is a snapshot of the vehicle configuration and component state.
type Summary struct {
	Battery      map[string]any `json:"battery" yaml:"battery"`
	Motor        map[string]any `json:"motor" yaml:"motor"`
	Inverter     map[string]any `json:"inverter" yaml:"inverter"`
	Transmission map[string]any `json:"transmission" yaml:"transmission"`

	MassKg            float64 `json:"mass_kg" yaml:"mass_kg"`
	RollingResistance float64 `json:"rolling_resistance" yaml:"rolling_resistance"`
	DragArea          float64 `json:"drag_area" yaml:"drag_area"`
}

// ComponentInfo is one named component snapshot.
type ComponentInfo struct {
	Name  string
	Attrs map[string]any
}

// Components lists the component snapshots in report order.
func (s Summary) Components() []ComponentInfo {
	return []ComponentInfo{
		{"battery", s.Battery},
		{"motor", s.Motor},
		{"inverter", s.Inverter},
		{"transmission", s.Transmission},
	}
}
