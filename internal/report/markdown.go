package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/san-kum/evtwin/internal/powertrain"
)

const ReportTitle = "Digital Twin - EV Powertrain Report"

var titleCaser = cases.Title(language.English)

func humanize(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// Markdown writes the report: cover, system components, simulation summary
// and plots. plotFiles maps chart keys to image paths; links are made
// relative to baseDir when possible.
func Markdown(w io.Writer, s Summary, info powertrain.Summary, plotFiles map[string]string, baseDir string, generated time.Time) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", ReportTitle)
	fmt.Fprintf(&b, "Generated: %s\n\n", generated.Format("2006-01-02 15:04:05"))
	b.WriteString("This report contains simulation results from the EV digital twin, " +
		"including component specs, summary metrics, and performance plots.\n\n")

	b.WriteString("## System Components\n\n")
	for _, c := range info.Components() {
		if len(c.Attrs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", humanize(c.Name))
		keys := make([]string, 0, len(c.Attrs))
		for k := range c.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", humanize(k), c.Attrs[k])
		}
		b.WriteString("\n")
	}
	if info.MassKg > 0 {
		b.WriteString("### Vehicle\n\n")
		fmt.Fprintf(&b, "- Mass Kg: %v\n- Rolling Resistance: %v\n- Drag Area: %v\n\n",
			info.MassKg, info.RollingResistance, info.DragArea)
	}

	b.WriteString("## Simulation Summary\n\n")
	if s.Ticks == 0 {
		b.WriteString("No simulation results available.\n\n")
	} else {
		b.WriteString("| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Total distance | %.2f km |\n", s.DistanceKm)
		fmt.Fprintf(&b, "| Battery SOC drop | %.2f %% |\n", s.SOCDropPercent)
		fmt.Fprintf(&b, "| Average consumption | %.4f kWh/km |\n", s.ConsumptionKWhKm)
		fmt.Fprintf(&b, "| Final battery SOC | %.2f %% |\n", s.FinalSOCPercent)
		fmt.Fprintf(&b, "| Final battery temperature | %.2f °C |\n", s.FinalTempC)
		fmt.Fprintf(&b, "| Final battery health | %.2f %% |\n", s.FinalHealthPercent)
		fmt.Fprintf(&b, "| Regenerated energy | %.3f kWh |\n", s.RegenKWh)
		fmt.Fprintf(&b, "| Peak mechanical power | %.1f kW |\n", s.PeakMechKW)
		if s.StarvedTicks > 0 {
			fmt.Fprintf(&b, "| Starved ticks | %d |\n", s.StarvedTicks)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Plots\n\n")
	for _, key := range ChartKeys {
		path, ok := plotFiles[key]
		if !ok || path == "" {
			fmt.Fprintf(&b, "_(Plot for '%s' could not be generated)_\n\n", key)
			continue
		}
		if baseDir != "" {
			if rel, err := filepath.Rel(baseDir, path); err == nil {
				path = rel
			}
		}
		fmt.Fprintf(&b, "![%s](%s)\n\n", key, filepath.ToSlash(path))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Write produces a complete report directory: SVG charts under plots/ and
// report.md next to them. It returns the report path.
func Write(dir string, records []powertrain.Record, info powertrain.Summary, generated time.Time) (string, error) {
	plots, err := WriteSVGs(filepath.Join(dir, "plots"), records)
	if err != nil {
		return "", fmt.Errorf("report: plots: %w", err)
	}

	path := filepath.Join(dir, "report.md")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	if err := Markdown(f, Summarize(records), info, plots, dir, generated); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	return path, nil
}
