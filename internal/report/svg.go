package report

import (
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/evtwin/internal/powertrain"
)

const (
	svgWidth  = 720
	svgHeight = 360
	svgMargin = 48
)

// ChartToSVG draws every series of c against times on shared axes.
// Series shorter than two points are skipped; a chart with nothing to draw
// yields "".
func ChartToSVG(c Chart, times []float64, width, height int) string {
	var drawable []Series
	for _, s := range c.Series {
		if len(s.Values) >= 2 && len(s.Values) == len(times) {
			drawable = append(drawable, s)
		}
	}
	if len(drawable) == 0 {
		return ""
	}

	// Find bounds
	minX, maxX := times[0], times[0]
	for _, t := range times {
		minX = math.Min(minX, t)
		maxX = math.Max(maxX, t)
	}
	minY, maxY := drawable[0].Values[0], drawable[0].Values[0]
	for _, s := range drawable {
		for _, v := range s.Values {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	plotW := float64(width - 2*svgMargin)
	plotH := float64(height - 2*svgMargin)
	px := func(t float64) float64 { return svgMargin + (t-minX)/rangeX*plotW }
	py := func(v float64) float64 { return svgMargin + plotH - (v-minY)/rangeY*plotH }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace" font-size="11">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="%d" y="20" fill="#e0e0e0" text-anchor="middle" font-size="14">%s</text>
`, width, height, width, height, width/2, html.EscapeString(c.Title)))

	// axes
	sb.WriteString(fmt.Sprintf(`<g stroke="#555" stroke-width="1">
<line x1="%d" y1="%d" x2="%d" y2="%d"/>
<line x1="%d" y1="%d" x2="%d" y2="%d"/>
</g>
`, svgMargin, svgMargin, svgMargin, height-svgMargin,
		svgMargin, height-svgMargin, width-svgMargin, height-svgMargin))

	sb.WriteString(fmt.Sprintf(`<g fill="#aaa">
<text x="%d" y="%d" text-anchor="end">%.1f</text>
<text x="%d" y="%d" text-anchor="end">%.1f</text>
<text x="%d" y="%d">%.1f</text>
<text x="%d" y="%d" text-anchor="end">%.1f</text>
<text x="%d" y="%d" text-anchor="middle">Time (min)</text>
<text x="14" y="%d" transform="rotate(-90 14 %d)" text-anchor="middle">%s</text>
</g>
`, svgMargin-4, svgMargin+4, maxY,
		svgMargin-4, height-svgMargin, minY,
		svgMargin, height-svgMargin+16, minX,
		width-svgMargin, height-svgMargin+16, maxX,
		width/2, height-12,
		height/2, height/2, html.EscapeString(c.YLabel)))

	for i, s := range drawable {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color))
		for j, v := range s.Values {
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(times[j]), py(v)))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(times[j]), py(v)))
			}
		}
		sb.WriteString("\"/>\n")

		if len(drawable) > 1 {
			sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="%s">%s</text>
`, width-svgMargin-90, svgMargin+14*(i+1), s.Color, html.EscapeString(s.Label)))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteSVGs writes <key>_vs_time.svg for every standard chart into dir and
// returns the written paths keyed by chart key. Charts with too little data
// are left out.
func WriteSVGs(dir string, records []powertrain.Record) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	times := Times(records)
	files := make(map[string]string)
	for _, c := range Charts(records) {
		svg := ChartToSVG(c, times, svgWidth, svgHeight)
		if svg == "" {
			continue
		}
		path := filepath.Join(dir, c.Key+"_vs_time.svg")
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return files, err
		}
		files[c.Key] = path
	}
	return files, nil
}
