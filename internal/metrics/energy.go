package metrics

import (
	"github.com/san-kum/evtwin/internal/powertrain"
	"github.com/san-kum/evtwin/internal/sim"
)

// minDistanceKm is the distance below which consumption reads as zero.
const minDistanceKm = 1e-6

// Consumption is net battery energy per distance in kWh/km: energy drawn
// minus energy regenerated, over the distance covered.
type Consumption struct {
	name       string
	drawnKWh   float64
	regenKWh   float64
	distanceKm float64
}

func NewConsumption() *Consumption {
	return &Consumption{name: "consumption_kwh_per_km"}
}

func (c *Consumption) Name() string { return c.name }

func (c *Consumption) Observe(r powertrain.Record) {
	c.drawnKWh += r.EnergyDrawnKWh
	c.regenKWh += r.EnergyRegenKWh
	c.distanceKm = r.DistanceKm
}

func (c *Consumption) Value() float64 {
	if c.distanceKm <= minDistanceKm {
		return 0
	}
	return (c.drawnKWh - c.regenKWh) / c.distanceKm
}

func (c *Consumption) Reset() {
	c.drawnKWh = 0
	c.regenKWh = 0
	c.distanceKm = 0
}

type RegenRecovered struct {
	name string
	kwh  float64
}

func NewRegenRecovered() *RegenRecovered {
	return &RegenRecovered{name: "regen_recovered_kwh"}
}

func (m *RegenRecovered) Name() string                { return m.name }
func (m *RegenRecovered) Observe(r powertrain.Record) { m.kwh += r.EnergyRegenKWh }
func (m *RegenRecovered) Value() float64              { return m.kwh }
func (m *RegenRecovered) Reset()                      { m.kwh = 0 }

// Standard returns a fresh set of every built-in metric.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewConsumption(),
		NewRegenRecovered(),
		NewPeakTemperature(),
		NewHealthLoss(),
		NewStarvation(),
	}
}
