package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/evtwin/internal/powertrain"
)

type column struct {
	name string
	get  func(*powertrain.Record) *float64
}

var floatColumns = []column{
	{"time_min", func(r *powertrain.Record) *float64 { return &r.TimeMinutes }},
	{"speed_kmph", func(r *powertrain.Record) *float64 { return &r.SpeedKmph }},
	{"distance_km", func(r *powertrain.Record) *float64 { return &r.DistanceKm }},
	{"p_mech_kw", func(r *powertrain.Record) *float64 { return &r.MechanicalPowerKW }},
	{"p_motor_shaft_kw", func(r *powertrain.Record) *float64 { return &r.ShaftPowerKW }},
	{"p_elec_kw", func(r *powertrain.Record) *float64 { return &r.ElectricalPowerKW }},
	{"p_dc_kw", func(r *powertrain.Record) *float64 { return &r.DCPowerKW }},
	{"battery_energy_kwh", func(r *powertrain.Record) *float64 { return &r.BatteryEnergyKWh }},
	{"battery_soc_percent", func(r *powertrain.Record) *float64 { return &r.BatterySOCPercent }},
	{"battery_temp_c", func(r *powertrain.Record) *float64 { return &r.BatteryTempC }},
	{"battery_health_percent", func(r *powertrain.Record) *float64 { return &r.BatteryHealthPercent }},
	{"motor_rpm", func(r *powertrain.Record) *float64 { return &r.MotorRPM }},
	{"torque_motor_nm", func(r *powertrain.Record) *float64 { return &r.MotorTorqueNm }},
	{"energy_drawn_kwh", func(r *powertrain.Record) *float64 { return &r.EnergyDrawnKWh }},
	{"energy_regen_kwh", func(r *powertrain.Record) *float64 { return &r.EnergyRegenKWh }},
	{"shortfall_fraction", func(r *powertrain.Record) *float64 { return &r.ShortfallFraction }},
}

const (
	gearColumn  = "transmission_gear"
	regenColumn = "regen"
)

// Header is the CSV column order for records.
func Header() []string {
	h := make([]string, 0, len(floatColumns)+2)
	for _, c := range floatColumns {
		h = append(h, c.name)
	}
	return append(h, gearColumn, regenColumn)
}

// Fields returns a record's numeric columns keyed by CSV name, gear included.
func Fields(r powertrain.Record) map[string]float64 {
	out := make(map[string]float64, len(floatColumns)+1)
	for _, c := range floatColumns {
		out[c.name] = *c.get(&r)
	}
	out[gearColumn] = float64(r.Gear)
	return out
}

func row(r powertrain.Record) []string {
	out := make([]string, 0, len(floatColumns)+2)
	for _, c := range floatColumns {
		out = append(out, strconv.FormatFloat(*c.get(&r), 'g', -1, 64))
	}
	return append(out, strconv.Itoa(r.Gear), strconv.FormatBool(r.Regen))
}

func WriteCSV(w io.Writer, records []powertrain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses records by header name, so column order may differ from
// Header and unknown columns are ignored.
func ReadCSV(r io.Reader) ([]powertrain.Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []powertrain.Record{}, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[name] = i
	}

	records := make([]powertrain.Record, 0, len(rows)-1)
	for line, fields := range rows[1:] {
		var rec powertrain.Record
		for _, c := range floatColumns {
			i, ok := index[c.name]
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line+2, c.name, err)
			}
			*c.get(&rec) = v
		}
		if i, ok := index[gearColumn]; ok {
			if rec.Gear, err = strconv.Atoi(fields[i]); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line+2, gearColumn, err)
			}
		}
		if i, ok := index[regenColumn]; ok {
			if rec.Regen, err = strconv.ParseBool(fields[i]); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line+2, regenColumn, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
