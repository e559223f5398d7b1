// Package automation runs scripted batches of simulations and files their
// results into a run store.
package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/evtwin/internal/config"
	"github.com/san-kum/evtwin/internal/metrics"
	"github.com/san-kum/evtwin/internal/report"
	"github.com/san-kum/evtwin/internal/sim"
	"github.com/san-kum/evtwin/internal/storage"
)

// Scenario is a named list of runs loaded from YAML.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun configures one run. The effective configuration is built in
// layers: defaults or Preset, then ConfigFile, then Set, then the
// shorthand fields.
type ScenarioRun struct {
	Name              string    `yaml:"name"`
	Preset            string    `yaml:"preset"`
	ConfigFile        string    `yaml:"config_file"`
	Set               yaml.Node `yaml:"set"`
	Cycle             string    `yaml:"cycle"`
	DurationMin       float64   `yaml:"duration_min"`
	AvgSpeedKmph      float64   `yaml:"avg_speed_kmph"`
	InitialSOCPercent *float64  `yaml:"initial_soc_percent"`
	Report            bool      `yaml:"report"`
}

// LoadScenario loads a scenario from a YAML file. Relative config_file
// entries resolve against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s: no runs", path)
	}

	base := filepath.Dir(path)
	for i := range scenario.Runs {
		if f := scenario.Runs[i].ConfigFile; f != "" && !filepath.IsAbs(f) {
			scenario.Runs[i].ConfigFile = filepath.Join(base, f)
		}
	}
	return &scenario, nil
}

// Resolve builds the configuration for one run.
func (r ScenarioRun) Resolve() (*config.Config, error) {
	base := config.DefaultConfig()
	if r.Preset != "" {
		base = config.GetPreset(r.Preset)
		if base == nil {
			return nil, fmt.Errorf("unknown preset %q", r.Preset)
		}
	}

	cfg, err := config.LoadOver(base, r.ConfigFile)
	if err != nil {
		return nil, err
	}

	if !r.Set.IsZero() {
		if err := r.Set.Decode(cfg); err != nil {
			return nil, fmt.Errorf("set: %w", err)
		}
	}

	if r.Name != "" {
		cfg.Name = r.Name
	}
	if r.Cycle != "" {
		cfg.Cycle.Kind = r.Cycle
	}
	if r.DurationMin != 0 {
		cfg.Cycle.DurationMin = r.DurationMin
	}
	if r.AvgSpeedKmph != 0 {
		cfg.Cycle.AvgSpeedKmph = r.AvgSpeedKmph
	}
	if r.InitialSOCPercent != nil {
		soc := *r.InitialSOCPercent
		cfg.Sim.InitialSOCPercent = &soc
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Outcome is one finished, stored run.
type Outcome struct {
	RunID      string
	Name       string
	Result     *sim.Result
	ReportPath string
}

// Runner executes configurations and saves them to Store. ReportDir, when
// set, receives a <run id>/report.md for runs that ask for one.
type Runner struct {
	Store     storage.Backend
	ReportDir string
	Observers []sim.Observer
	Log       zerolog.Logger
	Now       func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Execute runs one configuration with the standard metrics and saves it.
func (r *Runner) Execute(ctx context.Context, cfg *config.Config, withReport bool) (*Outcome, error) {
	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}

	s := sim.New(cfg.Params(), cfg.GearPolicy())
	s.SetLogger(r.Log.With().Str("run", cfg.Name).Logger())
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	for _, o := range r.Observers {
		s.AddObserver(o)
	}

	started := r.now()
	result, err := s.Run(ctx, profile, cfg.SimConfig())
	if err != nil {
		return nil, err
	}

	out := &Outcome{Name: cfg.Name, Result: result}
	if r.Store != nil {
		id, err := r.Store.Save(Metadata(cfg, result, started), result.Records)
		if err != nil {
			return nil, fmt.Errorf("save: %w", err)
		}
		out.RunID = id
	}

	if withReport && r.ReportDir != "" {
		dir := filepath.Join(r.ReportDir, reportName(out))
		path, err := report.Write(dir, result.Records, result.Summary, started)
		if err != nil {
			return nil, err
		}
		out.ReportPath = path
	}

	r.Log.Info().
		Str("run_id", out.RunID).
		Int("ticks", result.StepsTaken).
		Float64("distance_km", result.Final().DistanceKm).
		Float64("soc_percent", result.Final().BatterySOCPercent).
		Msg("run stored")

	return out, nil
}

func reportName(o *Outcome) string {
	if o.RunID != "" {
		return o.RunID
	}
	if o.Name != "" {
		return o.Name
	}
	return "run"
}

// RunScenario executes every run in order and stops at the first failure,
// returning the outcomes completed so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		r.Log.Info().
			Str("scenario", scenario.Name).
			Msgf("running step %d/%d: %s", i+1, len(scenario.Runs), run.Name)

		cfg, err := run.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}
		if cfg.Name == "" {
			cfg.Name = fmt.Sprintf("%s-%d", scenario.Name, i+1)
		}

		out, err := r.Execute(ctx, cfg, run.Report)
		if err != nil {
			return outcomes, fmt.Errorf("step %d run: %w", i+1, err)
		}
		outcomes = append(outcomes, *out)
	}

	return outcomes, nil
}

// Metadata describes a finished run for storage.
func Metadata(cfg *config.Config, result *sim.Result, started time.Time) storage.RunMetadata {
	variant, _ := result.Summary.Motor["variant"].(string)
	return storage.RunMetadata{
		Name:         cfg.Name,
		Timestamp:    started,
		DtMin:        cfg.Cycle.StepMin,
		DurationMin:  cfg.Cycle.DurationMin,
		AvgSpeedKmph: cfg.Cycle.AvgSpeedKmph,
		MotorVariant: variant,
		MassKg:       cfg.Vehicle.MassKg,
		CapacityKWh:  cfg.Battery.CapacityKWh,
		StarvedTicks: result.StarvedTicks,
		Metrics:      result.Metrics,
		Summary:      result.Summary,
	}
}
