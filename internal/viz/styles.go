package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme of the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Good    lipgloss.Color
	Warning lipgloss.Color
	Bad     lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Good:    lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"), // green phosphor
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Good:    lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Good:    lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Bad:     lipgloss.Color("#ff0000"),
	}

	Themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Header  lipgloss.Style
	Panel   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Graph   lipgloss.Style
	Help    lipgloss.Style
	Running lipgloss.Style
	Paused  lipgloss.Style
	Alert   lipgloss.Style

	good, mid, bad lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 2).
			Width(40),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:   lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		Graph:   lipgloss.NewStyle().Foreground(t.Primary).Padding(0, 1),
		Help:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		Running: lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		Paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Alert:   lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		good:    lipgloss.NewStyle().Foreground(t.Good),
		mid:     lipgloss.NewStyle().Foreground(t.Warning),
		bad:     lipgloss.NewStyle().Foreground(t.Bad),
	}
}

// ProgressBar renders a gauge for a fraction in [0, 1], coloured by level.
func (s Styles) ProgressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if frac > 0.5 {
		return s.good.Render(bar)
	} else if frac > 0.2 {
		return s.mid.Render(bar)
	}
	return s.bad.Render(bar)
}

// Sparkline renders the last width values as block characters. Negative
// values (regeneration) are drawn in the alert colour.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var out strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		c := string(chars[idx])
		if v < 0 {
			out.WriteString(s.bad.Render(c))
		} else {
			out.WriteString(s.good.Render(c))
		}
	}
	return out.String()
}
