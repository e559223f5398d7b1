package report

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/evtwin/internal/drivecycle"
	"github.com/san-kum/evtwin/internal/powertrain"
	"github.com/san-kum/evtwin/internal/sim"
)

func simulated(t *testing.T) ([]powertrain.Record, powertrain.Summary) {
	t.Helper()
	profile, err := drivecycle.Generate(30, 0.5, 60)
	if err != nil {
		t.Fatal(err)
	}
	res, err := sim.New(powertrain.DefaultParams(), sim.DefaultShifter()).Run(context.Background(), profile, sim.Config{Dt: 0.5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return res.Records, res.Summary
}

func TestSummarize(t *testing.T) {
	records := []powertrain.Record{
		{TimeMinutes: 0.5, DistanceKm: 0.5, BatteryEnergyKWh: 49.9, BatterySOCPercent: 99.8, BatteryTempC: 26, BatteryHealthPercent: 100, SpeedKmph: 40, MechanicalPowerKW: 20, EnergyDrawnKWh: 0.1},
		{TimeMinutes: 1.0, DistanceKm: 1.5, BatteryEnergyKWh: 49.7, BatterySOCPercent: 99.4, BatteryTempC: 27, BatteryHealthPercent: 99.98, SpeedKmph: 70, MechanicalPowerKW: 35, EnergyDrawnKWh: 0.2, ShortfallFraction: 0.1},
		{TimeMinutes: 1.5, DistanceKm: 2.0, BatteryEnergyKWh: 49.75, BatterySOCPercent: 99.5, BatteryTempC: 26.5, BatteryHealthPercent: 99.98, SpeedKmph: 30, MechanicalPowerKW: -10, EnergyRegenKWh: 0.05, Regen: true},
	}

	s := Summarize(records)

	if s.Ticks != 3 {
		t.Errorf("expected 3 ticks, got %d", s.Ticks)
	}
	if s.DistanceKm != 2.0 {
		t.Errorf("expected distance 2.0, got %v", s.DistanceKm)
	}
	if math.Abs(s.SOCDropPercent-0.3) > 1e-9 {
		t.Errorf("expected SOC drop 0.3, got %v", s.SOCDropPercent)
	}
	if math.Abs(s.ConsumptionKWhKm-0.075) > 1e-9 {
		t.Errorf("expected consumption 0.075, got %v", s.ConsumptionKWhKm)
	}
	if s.FinalTempC != 26.5 || s.PeakTempC != 27 {
		t.Errorf("expected final 26.5 / peak 27, got %v / %v", s.FinalTempC, s.PeakTempC)
	}
	if s.MaxSpeedKmph != 70 || s.PeakMechKW != 35 {
		t.Errorf("expected max speed 70 / peak power 35, got %v / %v", s.MaxSpeedKmph, s.PeakMechKW)
	}
	if math.Abs(s.RegenKWh-0.05) > 1e-12 || math.Abs(s.EnergyDrawnKWh-0.3) > 1e-12 {
		t.Errorf("unexpected energy totals: drawn %v regen %v", s.EnergyDrawnKWh, s.RegenKWh)
	}
	if s.StarvedTicks != 1 {
		t.Errorf("expected 1 starved tick, got %d", s.StarvedTicks)
	}
}

func TestSummarizeNoDistance(t *testing.T) {
	s := Summarize([]powertrain.Record{{BatteryEnergyKWh: 50}, {BatteryEnergyKWh: 49.9}})
	if s.ConsumptionKWhKm != 0 {
		t.Errorf("expected zero consumption without distance, got %v", s.ConsumptionKWhKm)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestCharts(t *testing.T) {
	records, _ := simulated(t)
	charts := Charts(records)

	if len(charts) != len(ChartKeys) {
		t.Fatalf("expected %d charts, got %d", len(ChartKeys), len(charts))
	}
	for i, c := range charts {
		if c.Key != ChartKeys[i] {
			t.Errorf("chart %d: expected key %s, got %s", i, ChartKeys[i], c.Key)
		}
		for _, s := range c.Series {
			if len(s.Values) != len(records) {
				t.Errorf("%s/%s: expected %d values, got %d", c.Key, s.Label, len(records), len(s.Values))
			}
		}
	}
	if len(charts[2].Series) != 2 {
		t.Errorf("expected mechanical and electrical power series, got %d", len(charts[2].Series))
	}
}

func TestPlots(t *testing.T) {
	records, _ := simulated(t)
	plots := Plots(records, 60, 8)

	for _, key := range ChartKeys {
		if plots[key] == "" {
			t.Errorf("missing plot %s", key)
		}
	}
	if !strings.Contains(plots["power"], "Mechanical") {
		t.Error("power caption should name its series")
	}
	if len(Plots(nil, 60, 8)) != 0 {
		t.Error("expected no plots for no records")
	}
}

func TestChartToSVG(t *testing.T) {
	c := Chart{Key: "speed", Title: "Speed vs Time", YLabel: "Speed (km/h)",
		Series: []Series{{Label: "Speed", Color: "#4aa3ff", Values: []float64{0, 10, 20}}}}

	svg := ChartToSVG(c, []float64{0, 1, 2}, 400, 200)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatalf("malformed svg:\n%s", svg)
	}
	if strings.Count(svg, "<path") != 1 {
		t.Errorf("expected one path, got %d", strings.Count(svg, "<path"))
	}
	if !strings.Contains(svg, "Speed vs Time") {
		t.Error("title missing")
	}

	c.Series[0].Values = []float64{1}
	if ChartToSVG(c, []float64{0}, 400, 200) != "" {
		t.Error("expected empty svg for a single point")
	}
}

func TestWrite(t *testing.T) {
	records, info := simulated(t)
	dir := t.TempDir()

	path, err := Write(dir, records, info, time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	for _, key := range ChartKeys {
		if _, err := os.Stat(filepath.Join(dir, "plots", key+"_vs_time.svg")); err != nil {
			t.Errorf("missing %s chart: %v", key, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	md := string(data)
	for _, want := range []string{
		"# " + ReportTitle,
		"Generated: 2025-05-04 10:00:00",
		"## System Components",
		"### Battery",
		"- Capacity Kwh: 50",
		"## Simulation Summary",
		"| Total distance |",
		"![soc](plots/soc_vs_time.svg)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestMarkdownMissingPlots(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, Summary{}, powertrain.Summary{}, nil, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "No simulation results available.") {
		t.Error("expected empty-results notice")
	}
	if !strings.Contains(out, "(Plot for 'temp' could not be generated)") {
		t.Error("expected missing plot notice")
	}
}
