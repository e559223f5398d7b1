package report

import (
	"math"

	"github.com/san-kum/evtwin/internal/powertrain"
)

// minDistanceKm is the distance below which consumption reads as zero.
const minDistanceKm = 1e-6

type Summary struct {
	Ticks       int     `json:"ticks"`
	DurationMin float64 `json:"duration_min"`

	DistanceKm         float64 `json:"distance_km"`
	SOCDropPercent     float64 `json:"soc_drop_percent"`
	ConsumptionKWhKm   float64 `json:"avg_consumption_kwh_per_km"`
	FinalSOCPercent    float64 `json:"final_soc_percent"`
	FinalTempC         float64 `json:"final_temp_c"`
	FinalHealthPercent float64 `json:"final_health_percent"`

	MaxSpeedKmph   float64 `json:"max_speed_kmph"`
	PeakMechKW     float64 `json:"peak_mech_kw"`
	PeakDCKW       float64 `json:"peak_dc_kw"`
	PeakTempC      float64 `json:"peak_temp_c"`
	EnergyDrawnKWh float64 `json:"energy_drawn_kwh"`
	RegenKWh       float64 `json:"regen_kwh"`
	StarvedTicks   int     `json:"starved_ticks"`
}

// Summarize reduces records to headline figures. The SOC drop and
// consumption are measured from the first record, i.e. after the first
// tick. An empty slice yields the zero Summary.
func Summarize(records []powertrain.Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	first, last := records[0], records[len(records)-1]
	s := Summary{
		Ticks:              len(records),
		DurationMin:        last.TimeMinutes,
		DistanceKm:         last.DistanceKm,
		SOCDropPercent:     first.BatterySOCPercent - last.BatterySOCPercent,
		FinalSOCPercent:    last.BatterySOCPercent,
		FinalTempC:         last.BatteryTempC,
		FinalHealthPercent: last.BatteryHealthPercent,
		PeakTempC:          math.Inf(-1),
	}
	if s.DistanceKm > minDistanceKm {
		s.ConsumptionKWhKm = (first.BatteryEnergyKWh - last.BatteryEnergyKWh) / s.DistanceKm
	}

	for _, r := range records {
		s.MaxSpeedKmph = math.Max(s.MaxSpeedKmph, r.SpeedKmph)
		s.PeakMechKW = math.Max(s.PeakMechKW, r.MechanicalPowerKW)
		s.PeakDCKW = math.Max(s.PeakDCKW, r.DCPowerKW)
		s.PeakTempC = math.Max(s.PeakTempC, r.BatteryTempC)
		s.EnergyDrawnKWh += r.EnergyDrawnKWh
		s.RegenKWh += r.EnergyRegenKWh
		if r.Starved() {
			s.StarvedTicks++
		}
	}
	return s
}
