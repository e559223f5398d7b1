package sim

import (
	"github.com/san-kum/evtwin/internal/powertrain"
)

// Metric accumulates a scalar over the records of one run.
type Metric interface {
	Name() string
	Observe(r powertrain.Record)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(r powertrain.Record)
}

type Config struct {
	Dt float64 // minutes per tick

	// InitialSOCPercent overrides the full-battery start when set.
	InitialSOCPercent *float64
	InitialSpeedKmph  float64
}

type Result struct {
	Records      []powertrain.Record
	Metrics      map[string]float64
	Summary      powertrain.Summary
	StarvedTicks int
	StepsTaken   int
}

// Times returns the end-of-tick time of every record.
func (r *Result) Times() []float64 {
	times := make([]float64, len(r.Records))
	for i, rec := range r.Records {
		times[i] = rec.TimeMinutes
	}
	return times
}

// Final returns the last record, or the zero record for an empty run.
func (r *Result) Final() powertrain.Record {
	if len(r.Records) == 0 {
		return powertrain.Record{}
	}
	return r.Records[len(r.Records)-1]
}
