// Package optim searches powertrain parameter grids for the setting that
// minimises a run metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/evtwin/internal/powertrain"
	"github.com/san-kum/evtwin/internal/sim"
)

var knobs = map[string]func(*powertrain.Params, float64){
	"mass_kg":        func(p *powertrain.Params, v float64) { p.MassKg = v },
	"capacity_kwh":   func(p *powertrain.Params, v float64) { p.CapacityKWh = v },
	"max_power_kw":   func(p *powertrain.Params, v float64) { p.MaxPowerKW = v },
	"max_torque_nm":  func(p *powertrain.Params, v float64) { p.MaxTorqueNm = v },
	"regen_fraction": func(p *powertrain.Params, v float64) { p.RegenFraction = v },
	"final_drive":    func(p *powertrain.Params, v float64) { p.FinalDrive = v },
	"drag_area":      func(p *powertrain.Params, v float64) { p.DragArea = v },
	"wheel_radius_m": func(p *powertrain.Params, v float64) { p.WheelRadiusM = v },
}

// Knobs lists the tunable parameter names.
func Knobs() []string {
	names := make([]string, 0, len(knobs))
	for k := range knobs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Maximize flips the objective.
	Maximize bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters for %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := knobs[name]; !ok {
			return nil, fmt.Errorf("optim: unknown parameter %q (tunable: %s)", name, strings.Join(Knobs(), ", "))
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points returns the cartesian product of the ranges, first parameter
// varying slowest.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[i]))
		for _, p := range points {
			for _, v := range g.ranges[i] {
				q := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					q[k] = pv
				}
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Values map[string]float64
	Score  float64
	Result *sim.Result
}

// Label renders the point as "name=value" pairs in search order.
func (g *GridSearch) Label(values map[string]float64) string {
	parts := make([]string, len(g.paramNames))
	for i, name := range g.paramNames {
		parts[i] = fmt.Sprintf("%s=%g", name, values[name])
	}
	return strings.Join(parts, " ")
}

// Search runs every grid point concurrently and returns the best candidate
// plus all candidates in grid order. Ties keep the earlier point.
func (g *GridSearch) Search(
	ctx context.Context,
	base powertrain.Params,
	policy sim.GearPolicy,
	profile []float64,
	cfg sim.Config,
	metrics func() []sim.Metric,
	metricName string,
) (*Candidate, []Candidate, error) {
	points := g.Points()
	variants := make([]sim.Variant, len(points))
	for i, pt := range points {
		p := base
		p.GearRatios = append([]float64(nil), base.GearRatios...)
		for name, v := range pt {
			knobs[name](&p, v)
		}
		variants[i] = sim.Variant{Name: g.Label(pt), Params: p}
	}

	results, err := sim.NewEnsemble(variants, policy, metrics).Run(ctx, profile, cfg)
	if err != nil {
		return nil, nil, err
	}

	best := math.Inf(1)
	bestIdx := -1
	candidates := make([]Candidate, len(points))
	for i, res := range results {
		val, ok := res.Metrics[metricName]
		if !ok {
			return nil, nil, fmt.Errorf("optim: metric %q not collected", metricName)
		}
		candidates[i] = Candidate{Values: points[i], Score: val, Result: res}

		objective := val
		if g.Maximize {
			objective = -val
		}
		if objective < best {
			best = objective
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return nil, candidates, fmt.Errorf("optim: no finite score for %q", metricName)
	}
	return &candidates[bestIdx], candidates, nil
}
