package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/evtwin/internal/drivecycle"
	"github.com/san-kum/evtwin/internal/powertrain"
	"github.com/san-kum/evtwin/internal/sim"
)

// EnvPrefix namespaces environment overrides, e.g. EVTWIN_BATTERY_CAPACITY_KWH.
const EnvPrefix = "EVTWIN"

const (
	DefaultMassKg       = 1750.0
	DefaultCapacityKWh  = 55.0
	DefaultVoltage      = 420.0
	DefaultMaxPowerKW   = 150.0
	DefaultMaxTorqueNm  = 350.0
	DefaultStorageDir   = "runs"
	DefaultSQLitePath   = "evtwin.db"
	DefaultInfluxBucket = "evtwin"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Name         string             `yaml:"name" mapstructure:"name"`
	Vehicle      VehicleConfig      `yaml:"vehicle" mapstructure:"vehicle"`
	Battery      BatteryConfig      `yaml:"battery" mapstructure:"battery"`
	Motor        MotorConfig        `yaml:"motor" mapstructure:"motor"`
	Inverter     InverterConfig     `yaml:"inverter" mapstructure:"inverter"`
	Transmission TransmissionConfig `yaml:"transmission" mapstructure:"transmission"`
	Cycle        CycleConfig        `yaml:"cycle" mapstructure:"cycle"`
	Sim          SimConfig          `yaml:"sim" mapstructure:"sim"`
	Storage      StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Influx       InfluxConfig       `yaml:"influx" mapstructure:"influx"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

type VehicleConfig struct {
	MassKg            float64 `yaml:"mass_kg" mapstructure:"mass_kg"`
	RollingResistance float64 `yaml:"rolling_resistance" mapstructure:"rolling_resistance"`
	DragArea          float64 `yaml:"drag_area" mapstructure:"drag_area"`
	AirDensity        float64 `yaml:"air_density" mapstructure:"air_density"`
	Gravity           float64 `yaml:"gravity" mapstructure:"gravity"`
	AmbientC          float64 `yaml:"ambient_c" mapstructure:"ambient_c"`
}

type BatteryConfig struct {
	CapacityKWh    float64 `yaml:"capacity_kwh" mapstructure:"capacity_kwh"`
	NominalVoltage float64 `yaml:"nominal_voltage" mapstructure:"nominal_voltage"`
}

type MotorConfig struct {
	Variant       string  `yaml:"variant" mapstructure:"variant"`
	MaxPowerKW    float64 `yaml:"max_power_kw" mapstructure:"max_power_kw"`
	MaxTorqueNm   float64 `yaml:"max_torque_nm" mapstructure:"max_torque_nm"`
	RegenFraction float64 `yaml:"regen_fraction,omitempty" mapstructure:"regen_fraction"`
}

type InverterConfig struct {
	PeakEfficiency float64 `yaml:"peak_efficiency" mapstructure:"peak_efficiency"`
}

type TransmissionConfig struct {
	GearRatios    []float64 `yaml:"gear_ratios" mapstructure:"gear_ratios"`
	FinalDrive    float64   `yaml:"final_drive" mapstructure:"final_drive"`
	WheelRadiusM  float64   `yaml:"wheel_radius_m" mapstructure:"wheel_radius_m"`
	UpshiftKmph   float64   `yaml:"upshift_kmph" mapstructure:"upshift_kmph"`
	DownshiftKmph float64   `yaml:"downshift_kmph" mapstructure:"downshift_kmph"`
}

type CycleConfig struct {
	Kind         string  `yaml:"kind" mapstructure:"kind"`
	DurationMin  float64 `yaml:"duration_min" mapstructure:"duration_min"`
	StepMin      float64 `yaml:"step_min" mapstructure:"step_min"`
	AvgSpeedKmph float64 `yaml:"avg_speed_kmph" mapstructure:"avg_speed_kmph"`
}

type SimConfig struct {
	InitialSOCPercent *float64 `yaml:"initial_soc_percent,omitempty" mapstructure:"initial_soc_percent"`
	InitialSpeedKmph  float64  `yaml:"initial_speed_kmph" mapstructure:"initial_speed_kmph"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend" mapstructure:"backend"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

type InfluxConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Token  string `yaml:"token" mapstructure:"token"`
	Org    string `yaml:"org" mapstructure:"org"`
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

func DefaultConfig() *Config {
	p := powertrain.DefaultParams()
	return &Config{
		Name: "default",
		Vehicle: VehicleConfig{
			MassKg:            DefaultMassKg,
			RollingResistance: p.RollingResistance,
			DragArea:          p.DragArea,
			AirDensity:        p.Constants.AirDensity,
			Gravity:           p.Constants.Gravity,
			AmbientC:          p.Constants.AmbientC,
		},
		Battery: BatteryConfig{
			CapacityKWh:    DefaultCapacityKWh,
			NominalVoltage: DefaultVoltage,
		},
		Motor: MotorConfig{
			Variant:     powertrain.MotorPMSM,
			MaxPowerKW:  DefaultMaxPowerKW,
			MaxTorqueNm: DefaultMaxTorqueNm,
		},
		Inverter: InverterConfig{PeakEfficiency: p.PeakEfficiency},
		Transmission: TransmissionConfig{
			GearRatios:    p.GearRatios,
			FinalDrive:    p.FinalDrive,
			WheelRadiusM:  p.WheelRadiusM,
			UpshiftKmph:   sim.DefaultUpshiftKmph,
			DownshiftKmph: sim.DefaultDownshiftKmph,
		},
		Cycle: CycleConfig{
			Kind:         drivecycle.KindStandard,
			DurationMin:  drivecycle.DefaultDurationMin,
			StepMin:      drivecycle.DefaultStepMin,
			AvgSpeedKmph: drivecycle.DefaultAvgKmph,
		},
		Storage: StorageConfig{
			Backend:    BackendFile,
			Dir:        DefaultStorageDir,
			SQLitePath: DefaultSQLitePath,
		},
		Influx: InfluxConfig{
			URL:    "http://localhost:8086",
			Bucket: DefaultInfluxBucket,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults and applies EVTWIN_* environment
// overrides. An empty path yields the defaults plus the environment.
func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver is Load with a caller-supplied base, typically a preset.
func LoadOver(base *Config, path string) (*Config, error) {
	seed, err := yaml.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("config: encode defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(seed)); err != nil {
		return nil, fmt.Errorf("config: seed defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(v, reflect.TypeOf(Config{}), "")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.Sim.InitialSOCPercent == nil && v.IsSet("sim.initial_soc_percent") {
		soc := v.GetFloat64("sim.initial_soc_percent")
		cfg.Sim.InitialSOCPercent = &soc
	}
	return cfg, nil
}

// bindEnv registers every leaf key of t with v. AutomaticEnv alone only
// consults the environment for keys the seeded YAML already holds, which
// misses omitempty fields.
func bindEnv(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if f.Type.Kind() == reflect.Struct {
			bindEnv(v, f.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Params() powertrain.Params {
	ratios := make([]float64, len(c.Transmission.GearRatios))
	copy(ratios, c.Transmission.GearRatios)
	return powertrain.Params{
		CapacityKWh:       c.Battery.CapacityKWh,
		NominalVoltage:    c.Battery.NominalVoltage,
		MotorVariant:      c.Motor.Variant,
		MaxPowerKW:        c.Motor.MaxPowerKW,
		MaxTorqueNm:       c.Motor.MaxTorqueNm,
		RegenFraction:     c.Motor.RegenFraction,
		PeakEfficiency:    c.Inverter.PeakEfficiency,
		GearRatios:        ratios,
		FinalDrive:        c.Transmission.FinalDrive,
		WheelRadiusM:      c.Transmission.WheelRadiusM,
		MassKg:            c.Vehicle.MassKg,
		RollingResistance: c.Vehicle.RollingResistance,
		DragArea:          c.Vehicle.DragArea,
		Constants: powertrain.Constants{
			AirDensity: c.Vehicle.AirDensity,
			Gravity:    c.Vehicle.Gravity,
			AmbientC:   c.Vehicle.AmbientC,
		},
	}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:                c.Cycle.StepMin,
		InitialSOCPercent: c.Sim.InitialSOCPercent,
		InitialSpeedKmph:  c.Sim.InitialSpeedKmph,
	}
}

func (c *Config) GearPolicy() sim.ThresholdShifter {
	return sim.ThresholdShifter{UpKmph: c.Transmission.UpshiftKmph, DownKmph: c.Transmission.DownshiftKmph}
}

func (c *Config) Profile() ([]float64, error) {
	return drivecycle.Build(c.Cycle.Kind, c.Cycle.DurationMin, c.Cycle.StepMin, c.Cycle.AvgSpeedKmph)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Profile(); err != nil {
		errs = append(errs, err)
	}
	if _, err := powertrain.New(c.Params()); err != nil {
		errs = append(errs, err)
	}
	if soc := c.Sim.InitialSOCPercent; soc != nil && (*soc < 0 || *soc > 100) {
		errs = append(errs, fmt.Errorf("sim: initial_soc_percent must be within [0, 100], got %g", *soc))
	}
	if c.Transmission.DownshiftKmph > c.Transmission.UpshiftKmph {
		errs = append(errs, fmt.Errorf("transmission: downshift speed %g above upshift speed %g",
			c.Transmission.DownshiftKmph, c.Transmission.UpshiftKmph))
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage: unknown backend %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Transmission.GearRatios = append([]float64(nil), c.Transmission.GearRatios...)
	if c.Sim.InitialSOCPercent != nil {
		soc := *c.Sim.InitialSOCPercent
		out.Sim.InitialSOCPercent = &soc
	}
	return &out
}
