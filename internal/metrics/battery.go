package metrics

import (
	"math"

	"github.com/san-kum/evtwin/internal/powertrain"
)

type PeakTemperature struct {
	name    string
	peak    float64
	samples int
}

func NewPeakTemperature() *PeakTemperature {
	return &PeakTemperature{name: "peak_battery_temp_c", peak: math.Inf(-1)}
}

func (p *PeakTemperature) Name() string { return p.name }

func (p *PeakTemperature) Observe(r powertrain.Record) {
	p.peak = math.Max(p.peak, r.BatteryTempC)
	p.samples++
}

func (p *PeakTemperature) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.peak
}

func (p *PeakTemperature) Reset() {
	p.peak = math.Inf(-1)
	p.samples = 0
}

// HealthLoss is the drop in battery health, in percentage points, from a
// fresh pack to the last observed tick.
type HealthLoss struct {
	name string
	last float64
}

const freshHealthPercent = 100.0

func NewHealthLoss() *HealthLoss {
	return &HealthLoss{name: "health_loss_pct", last: freshHealthPercent}
}

func (h *HealthLoss) Name() string                { return h.name }
func (h *HealthLoss) Observe(r powertrain.Record) { h.last = r.BatteryHealthPercent }
func (h *HealthLoss) Value() float64              { return freshHealthPercent - h.last }
func (h *HealthLoss) Reset()                      { h.last = freshHealthPercent }

// Starvation is the fraction of ticks in which the battery could not cover
// the demanded energy.
type Starvation struct {
	name    string
	starved int
	samples int
}

func NewStarvation() *Starvation {
	return &Starvation{name: "starved_fraction"}
}

func (s *Starvation) Name() string { return s.name }

func (s *Starvation) Observe(r powertrain.Record) {
	if r.Starved() {
		s.starved++
	}
	s.samples++
}

func (s *Starvation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.starved) / float64(s.samples)
}

func (s *Starvation) Reset() {
	s.starved = 0
	s.samples = 0
}
