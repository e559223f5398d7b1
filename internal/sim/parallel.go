package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/san-kum/evtwin/internal/powertrain"
)

// Variant is one parameter set in a sweep.
type Variant struct {
	Name   string
	Params powertrain.Params
}

// Ensemble runs independent variants of the same profile concurrently, one
// engine per goroutine. Metrics are built per run by the factory since
// metric state is not shared across goroutines.
type Ensemble struct {
	variants []Variant
	policy   GearPolicy
	metrics  func() []Metric
	log      zerolog.Logger
}

func NewEnsemble(variants []Variant, policy GearPolicy, metrics func() []Metric) *Ensemble {
	return &Ensemble{variants: variants, policy: policy, metrics: metrics, log: zerolog.Nop()}
}

func (e *Ensemble) SetLogger(l zerolog.Logger) { e.log = l }

// Run returns results in variant order. The first error aborts the sweep
// after all goroutines return.
func (e *Ensemble) Run(ctx context.Context, profile []float64, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.variants))
	errs := make([]error, len(e.variants))

	var wg sync.WaitGroup
	for i := range e.variants {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			v := e.variants[idx]
			sim := New(v.Params, e.policy)
			sim.SetLogger(e.log.With().Str("variant", v.Name).Logger())
			if e.metrics != nil {
				for _, m := range e.metrics() {
					sim.AddMetric(m)
				}
			}

			results[idx], errs[idx] = sim.Run(ctx, profile, cfg)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", e.variants[i].Name, err)
		}
	}

	return results, nil
}

// Sweep is a shorthand for a one-off Ensemble run.
func Sweep(ctx context.Context, variants []Variant, profile []float64, cfg Config, policy GearPolicy, metrics func() []Metric) ([]*Result, error) {
	return NewEnsemble(variants, policy, metrics).Run(ctx, profile, cfg)
}
