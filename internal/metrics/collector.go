package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/evtwin/internal/powertrain"
)

// Collector exports the live state of a run as Prometheus metrics. It
// satisfies sim.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	Speed       prometheus.Gauge
	SOC         prometheus.Gauge
	BatteryTemp prometheus.Gauge
	Health      prometheus.Gauge
	Gear        prometheus.Gauge
	DCPower     prometheus.Gauge

	Ticks        prometheus.Counter
	StarvedTicks prometheus.Counter
	EnergyDrawn  prometheus.Counter
	EnergyRegen  prometheus.Counter
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}

	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.Speed, "evtwin_vehicle_speed_kmph", "Vehicle speed at the end of the last tick."},
		{&c.SOC, "evtwin_battery_soc_percent", "Battery state of charge."},
		{&c.BatteryTemp, "evtwin_battery_temp_celsius", "Battery temperature."},
		{&c.Health, "evtwin_battery_health_percent", "Battery state of health."},
		{&c.Gear, "evtwin_transmission_gear", "Selected gear, 1-based."},
		{&c.DCPower, "evtwin_dc_power_kw", "DC bus power; negative while regenerating."},
	}
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}

	counters := []struct {
		dst  *prometheus.Counter
		name string
		help string
	}{
		{&c.Ticks, "evtwin_ticks_total", "Simulated ticks."},
		{&c.StarvedTicks, "evtwin_starved_ticks_total", "Ticks in which the battery could not meet demand."},
		{&c.EnergyDrawn, "evtwin_energy_drawn_kwh_total", "Energy delivered by the battery."},
		{&c.EnergyRegen, "evtwin_energy_regen_kwh_total", "Energy accepted by the battery from regenerative braking."},
	}
	for _, ct := range counters {
		counter, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{Name: ct.name, Help: ct.help}), ct.name)
		if err != nil {
			return nil, err
		}
		*ct.dst = counter
	}

	return c, nil
}

func (c *Collector) OnStep(r powertrain.Record) {
	if c == nil {
		return
	}
	c.Speed.Set(r.SpeedKmph)
	c.SOC.Set(r.BatterySOCPercent)
	c.BatteryTemp.Set(r.BatteryTempC)
	c.Health.Set(r.BatteryHealthPercent)
	c.Gear.Set(float64(r.Gear))
	c.DCPower.Set(r.DCPowerKW)

	c.Ticks.Inc()
	if r.Starved() {
		c.StarvedTicks.Inc()
	}
	c.EnergyDrawn.Add(r.EnergyDrawnKWh)
	c.EnergyRegen.Add(r.EnergyRegenKWh)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
