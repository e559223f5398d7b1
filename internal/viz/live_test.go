package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/evtwin/internal/powertrain"
	"github.com/san-kum/evtwin/internal/sim"
)

type countingObserver struct{ n int }

func (c *countingObserver) OnStep(powertrain.Record) { c.n++ }

func newTestModel(t *testing.T, ticks int, obs ...sim.Observer) Model {
	t.Helper()
	profile := make([]float64, ticks)
	for i := range profile {
		profile[i] = 50
	}
	m := NewModel(powertrain.DefaultParams(), sim.DefaultShifter(), profile, sim.Config{Dt: 0.1}, obs...)
	if m.Err() != nil {
		t.Fatalf("NewModel: %v", m.Err())
	}
	return m
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelStepsOnTick(t *testing.T) {
	obs := &countingObserver{}
	m := newTestModel(t, 5, obs)

	m = send(m, TickMsg(time.Now()))
	m = send(m, TickMsg(time.Now()))

	if got := len(m.History()); got != 2 {
		t.Fatalf("history = %d, want 2", got)
	}
	if obs.n != 2 {
		t.Errorf("observer saw %d records, want 2", obs.n)
	}
	if m.History()[1].SpeedKmph <= m.History()[0].SpeedKmph {
		t.Error("speed should rise toward the target")
	}
}

func TestModelStopsAtEndOfProfile(t *testing.T) {
	m := newTestModel(t, 3)
	for i := 0; i < 10; i++ {
		m = send(m, TickMsg(time.Now()))
	}
	if !m.Finished() {
		t.Fatal("expected finished")
	}
	if got := len(m.History()); got != 3 {
		t.Errorf("history = %d, want 3", got)
	}
	if !strings.Contains(m.View(), "FINISHED") {
		t.Error("view should show finished status")
	}
}

func TestModelPause(t *testing.T) {
	m := newTestModel(t, 5)
	m = send(m, key(" "))
	m = send(m, TickMsg(time.Now()))
	if got := len(m.History()); got != 0 {
		t.Errorf("paused model stepped %d times", got)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view should show paused status")
	}
}

func TestModelReset(t *testing.T) {
	m := newTestModel(t, 5)
	m = send(m, TickMsg(time.Now()))
	m = send(m, key("r"))
	if len(m.History()) != 0 || m.Finished() {
		t.Error("reset should clear history and restart the profile")
	}
}

func TestModelScrub(t *testing.T) {
	m := newTestModel(t, 5)
	for i := 0; i < 3; i++ {
		m = send(m, TickMsg(time.Now()))
	}
	m = send(m, key("["))
	if m.playHead != 1 {
		t.Fatalf("playHead = %d, want 1", m.playHead)
	}
	if !strings.Contains(m.View(), "REPLAY 2/3") {
		t.Error("view should show replay position")
	}
	m = send(m, key("]"))
	m = send(m, key("]"))
	if m.playHead != -1 {
		t.Errorf("playHead = %d, want live", m.playHead)
	}
}

func TestModelSpeedKeys(t *testing.T) {
	m := newTestModel(t, 10)
	m = send(m, key("+"))
	m = send(m, TickMsg(time.Now()))
	if got := len(m.History()); got != 2 {
		t.Errorf("history = %d, want 2 at double speed", got)
	}
	for i := 0; i < 10; i++ {
		m = send(m, key("-"))
	}
	if m.stepsPerFrame != 1 {
		t.Errorf("stepsPerFrame = %d, want 1", m.stepsPerFrame)
	}
}

func TestModelThemeCycle(t *testing.T) {
	m := newTestModel(t, 1)
	first := m.theme.Name
	m = send(m, key("t"))
	if m.theme.Name == first {
		t.Error("theme did not change")
	}
	for range Themes[1:] {
		m = send(m, key("t"))
	}
	if m.theme.Name != first {
		t.Errorf("theme = %s, want wrap to %s", m.theme.Name, first)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, 1)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelInvalidConfig(t *testing.T) {
	m := NewModel(powertrain.DefaultParams(), nil, []float64{10}, sim.Config{Dt: 0})
	if m.Err() == nil {
		t.Fatal("expected error for zero dt")
	}
	if !strings.Contains(m.View(), "error") {
		t.Error("view should report the error")
	}
	m = send(m, TickMsg(time.Now()))
	if len(m.History()) != 0 {
		t.Error("model with error should not step")
	}
}

func TestSparklineAndProgressBar(t *testing.T) {
	s := NewStyles(ThemeMinimal)
	if got := s.Sparkline(nil, 4); got != "────" {
		t.Errorf("empty sparkline = %q", got)
	}
	if !strings.Contains(s.Sparkline([]float64{1, 2, 3}, 10), "█") {
		t.Error("sparkline should reach the top block")
	}
	if !strings.Contains(s.ProgressBar(0.5, 10), "█████") {
		t.Error("progress bar should be half full")
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back")
	}
}
