package report

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/evtwin/internal/powertrain"
)

var plotColors = []asciigraph.AnsiColor{asciigraph.Green, asciigraph.Red, asciigraph.Blue}

// Plot renders a chart for the terminal; asciigraph interpolates the
// series to width.
func Plot(c Chart, width, height int) string {
	data := make([][]float64, 0, len(c.Series))
	colors := make([]asciigraph.AnsiColor, 0, len(c.Series))
	caption := c.YLabel
	for i, s := range c.Series {
		if len(s.Values) == 0 {
			continue
		}
		data = append(data, s.Values)
		colors = append(colors, plotColors[i%len(plotColors)])
		if len(c.Series) > 1 {
			caption += " " + s.Label
			if i < len(c.Series)-1 {
				caption += " /"
			}
		}
	}
	if len(data) == 0 {
		return ""
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}

// Plots renders every standard chart, keyed as ChartKeys.
func Plots(records []powertrain.Record, width, height int) map[string]string {
	out := make(map[string]string, len(ChartKeys))
	for _, c := range Charts(records) {
		if g := Plot(c, width, height); g != "" {
			out[c.Key] = g
		}
	}
	return out
}
