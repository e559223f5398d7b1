package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/evtwin/internal/powertrain"
	"github.com/san-kum/evtwin/internal/sim"
)

const (
	historyCapacity = 600
	chartWidth      = 60
	chartHeight     = 8
	maxStepsPerTick = 32
	frameInterval   = time.Second / 30
)

type TickMsg time.Time

// Model steps a powertrain engine through a target-speed profile and renders
// its state. It implements tea.Model.
type Model struct {
	params    powertrain.Params
	policy    sim.GearPolicy
	cfg       sim.Config
	profile   []float64
	observers []sim.Observer

	eng  *powertrain.Engine
	err  error
	tick int

	history  []powertrain.Record
	playHead int

	running       bool
	stepsPerFrame int
	showHelp      bool
	theme         Theme
	styles        Styles
}

// NewModel builds a live view. Observers see every record the view steps,
// so a metrics collector can be attached to the same run.
func NewModel(params powertrain.Params, policy sim.GearPolicy, profile []float64, cfg sim.Config, observers ...sim.Observer) Model {
	m := Model{
		params:        params,
		policy:        policy,
		cfg:           cfg,
		profile:       profile,
		observers:     observers,
		running:       true,
		stepsPerFrame: 1,
		theme:         Themes[0],
	}
	m.styles = NewStyles(m.theme)
	m.reset()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.stepsPerFrame = min(m.stepsPerFrame*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = NewStyles(m.theme)
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				for i := 0; i < m.stepsPerFrame && !m.Finished(); i++ {
					m.step()
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// Finished reports whether the whole profile has been stepped.
func (m Model) Finished() bool {
	return m.eng == nil || m.tick >= len(m.profile)
}

// History returns the retained records, oldest first.
func (m Model) History() []powertrain.Record { return m.history }

func (m Model) Err() error { return m.err }

func (m *Model) step() {
	rec := m.eng.Step(m.profile[m.tick], m.cfg.Dt)
	sim.Shift(m.policy, m.eng.Transmission(), rec.SpeedKmph)
	m.tick++

	for _, obs := range m.observers {
		obs.OnStep(rec)
	}

	m.history = append(m.history, rec)
	if len(m.history) > historyCapacity {
		m.history = m.history[len(m.history)-historyCapacity:]
	}
}

func (m *Model) scrub(dir int) {
	if len(m.history) == 0 {
		return
	}
	m.running = false
	if m.playHead == -1 {
		m.playHead = len(m.history) - 1
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) reset() {
	m.eng, m.err = sim.NewEngine(m.params, m.cfg)
	m.tick = 0
	m.history = make([]powertrain.Record, 0, historyCapacity)
	m.playHead = -1
	if m.err == nil && !(m.cfg.Dt > 0) {
		m.err = fmt.Errorf("dt must be positive, got %f", m.cfg.Dt)
	}
	if m.err != nil {
		m.eng = nil
	}
}

// current returns the record under the play head, or the latest one.
func (m Model) current() (powertrain.Record, bool) {
	if len(m.history) == 0 {
		return powertrain.Record{}, false
	}
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead], true
	}
	return m.history[len(m.history)-1], true
}

func (m Model) View() string {
	s := m.styles
	if m.err != nil {
		return s.Alert.Render("error: "+m.err.Error()) + "\n"
	}

	header := s.Header.Render(fmt.Sprintf("EV POWERTRAIN · %s motor · %.0f kWh",
		m.eng.Motor().Variant(), m.eng.Battery().CapacityKWh()))

	visible := m.history
	if m.playHead >= 0 {
		visible = m.history[:m.playHead+1]
	}

	charts := lipgloss.JoinVertical(lipgloss.Left,
		s.Graph.Render(m.chart(visible, "Speed (km/h)", func(r powertrain.Record) float64 { return r.SpeedKmph })),
		s.Graph.Render(m.chart(visible, "SOC (%)", func(r powertrain.Record) float64 { return r.BatterySOCPercent })),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, charts, m.stats(visible))
	out := lipgloss.JoinVertical(lipgloss.Left, header, body)

	if m.showHelp {
		out += "\n" + s.Help.Render(helpText)
	} else {
		out += "\n" + s.Help.Render("space pause · r restart · [ ] scrub · +/- speed · t theme · ? help · q quit")
	}
	return out + "\n"
}

const helpText = `Space  pause or resume
R      restart the cycle with a fresh engine
[ ]    step back or forward through history (pauses)
+ -    change ticks per frame
T      cycle color themes
Q      quit`

func (m Model) chart(records []powertrain.Record, caption string, field func(powertrain.Record) float64) string {
	if len(records) < 2 {
		return caption + "\n" + strings.Repeat("\n", chartHeight)
	}
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = field(r)
	}
	return asciigraph.Plot(values,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
	)
}

func (m Model) stats(visible []powertrain.Record) string {
	s := m.styles
	rec, ok := m.current()

	row := func(label, value string) string {
		return s.Label.Render(label) + s.Value.Render(value)
	}

	var status string
	switch {
	case m.playHead >= 0:
		status = s.Paused.Render(fmt.Sprintf("◀ REPLAY %d/%d", m.playHead+1, len(m.history)))
	case m.Finished():
		status = s.Running.Render("● FINISHED")
	case m.running:
		status = s.Running.Render(fmt.Sprintf("● RUNNING x%d", m.stepsPerFrame))
	default:
		status = s.Paused.Render("❚❚ PAUSED")
	}

	lines := []string{status, ""}
	if !ok {
		lines = append(lines, row("Tick", fmt.Sprintf("0/%d", len(m.profile))))
		return s.Panel.Render(strings.Join(lines, "\n"))
	}

	// history holds the last len(history) ticks of the profile
	target := 0.0
	if idx := m.tick - len(m.history) + m.headIndex(); idx >= 0 && idx < len(m.profile) {
		target = m.profile[idx]
	}

	power := make([]float64, len(visible))
	for i, r := range visible {
		power[i] = r.DCPowerKW
	}

	lines = append(lines,
		row("Time", fmt.Sprintf("%.1f min", rec.TimeMinutes)),
		row("Speed", fmt.Sprintf("%.1f / %.1f km/h", rec.SpeedKmph, target)),
		row("Distance", fmt.Sprintf("%.2f km", rec.DistanceKm)),
		row("SOC", fmt.Sprintf("%5.1f%% ", rec.BatterySOCPercent)+s.ProgressBar(rec.BatterySOCPercent/100, 14)),
		row("Temp", fmt.Sprintf("%.1f °C", rec.BatteryTempC)),
		row("Health", fmt.Sprintf("%.3f%%", rec.BatteryHealthPercent)),
		row("Gear", fmt.Sprintf("%d", rec.Gear)),
		row("Motor", fmt.Sprintf("%.0f rpm %.0f Nm", rec.MotorRPM, rec.MotorTorqueNm)),
		row("DC power", fmt.Sprintf("%.1f kW", rec.DCPowerKW)),
		"",
		s.Sparkline(power, 34),
	)
	if rec.Starved() {
		lines = append(lines, s.Alert.Render(fmt.Sprintf("battery limited, %.0f%% short", rec.ShortfallFraction*100)))
	}
	if rec.Regen {
		lines = append(lines, s.Running.Render("regenerating"))
	}

	return s.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) headIndex() int {
	if m.playHead >= 0 {
		return m.playHead
	}
	return len(m.history) - 1
}
