package sim

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/evtwin/internal/powertrain"
)

// Simulator drives one powertrain engine through a target-speed profile.
// Every Run builds a fresh engine from the same parameters.
type Simulator struct {
	params    powertrain.Params
	policy    GearPolicy
	metrics   []Metric
	observers []Observer
	log       zerolog.Logger
}

func New(params powertrain.Params, policy GearPolicy) *Simulator {
	return &Simulator{
		params:    params,
		policy:    policy,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       zerolog.Nop(),
	}
}

func (s *Simulator) AddMetric(m Metric)         { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l zerolog.Logger) { s.log = l }
func (s *Simulator) Params() powertrain.Params  { return s.params }
func (s *Simulator) GearPolicy() GearPolicy     { return s.policy }

func (s *Simulator) Run(ctx context.Context, profile []float64, cfg Config) (*Result, error) {
	result := &Result{
		Records: make([]powertrain.Record, 0, len(profile)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	eng, err := s.run(ctx, profile, cfg, func(rec powertrain.Record) bool {
		result.Records = append(result.Records, rec)
		result.StepsTaken++
		if rec.Starved() {
			result.StarvedTicks++
		}
		return true
	})
	if eng == nil {
		return nil, err
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Summary = eng.Info()

	return result, err
}

// RunWithCallback steps the profile and hands each record to callback after
// metrics and observers have seen it. A false return stops the run early.
func (s *Simulator) RunWithCallback(ctx context.Context, profile []float64, cfg Config, callback func(powertrain.Record) bool) error {
	_, err := s.run(ctx, profile, cfg, callback)
	return err
}

// run returns the engine it built, or nil when construction failed.
func (s *Simulator) run(ctx context.Context, profile []float64, cfg Config, callback func(powertrain.Record) bool) (*powertrain.Engine, error) {
	if err := validateConfig(profile, cfg); err != nil {
		return nil, err
	}

	eng, err := NewEngine(s.params, cfg)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("ticks", len(profile)).
		Float64("dt_min", cfg.Dt).
		Str("motor", eng.Motor().Variant()).
		Msg("run started")

	starved := 0
	defer func() {
		ev := s.log.Debug()
		if starved > 0 {
			ev = s.log.Warn()
		}
		ev.Float64("distance_km", eng.DistanceKm()).
			Float64("soc_percent", eng.Battery().SOCPercent()).
			Int("starved_ticks", starved).
			Msg("run finished")
	}()

	for i, target := range profile {
		select {
		case <-ctx.Done():
			return eng, ctx.Err()
		default:
		}

		rec := eng.Step(target, cfg.Dt)
		Shift(s.policy, eng.Transmission(), rec.SpeedKmph)

		if rec.Starved() {
			if starved == 0 {
				s.log.Warn().
					Int("step", i).
					Float64("shortfall", rec.ShortfallFraction).
					Msg("battery cannot meet demand, de-rating speed")
			}
			starved++
		}

		for _, m := range s.metrics {
			m.Observe(rec)
		}
		for _, obs := range s.observers {
			obs.OnStep(rec)
		}

		if !callback(rec) {
			return eng, nil
		}
	}

	return eng, nil
}

// NewEngine builds an engine from params and applies the initial state in cfg.
func NewEngine(params powertrain.Params, cfg Config) (*powertrain.Engine, error) {
	eng, err := powertrain.New(params)
	if err != nil {
		return nil, fmt.Errorf("sim: build engine: %w", err)
	}
	if cfg.InitialSOCPercent != nil {
		b := eng.Battery()
		b.SetEnergyKWh(b.CapacityKWh() * *cfg.InitialSOCPercent / 100.0)
	}
	eng.SetSpeedKmph(cfg.InitialSpeedKmph)
	return eng, nil
}

func validateConfig(profile []float64, cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if len(profile) == 0 {
		return fmt.Errorf("profile must not be empty")
	}
	if soc := cfg.InitialSOCPercent; soc != nil && (*soc < 0 || *soc > 100) {
		return fmt.Errorf("initial soc must be within [0, 100], got %f", *soc)
	}
	if cfg.InitialSpeedKmph < 0 {
		return fmt.Errorf("initial speed must not be negative, got %f", cfg.InitialSpeedKmph)
	}
	return nil
}
