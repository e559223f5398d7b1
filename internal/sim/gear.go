package sim

import "github.com/san-kum/evtwin/internal/components"

// GearPolicy picks the next 1-based gear after a tick.
type GearPolicy interface {
	Select(speedKmph float64, current, numGears int) int
}

type GearPolicyFunc func(speedKmph float64, current, numGears int) int

func (f GearPolicyFunc) Select(speedKmph float64, current, numGears int) int {
	return f(speedKmph, current, numGears)
}

const (
	DefaultUpshiftKmph   = 70.0
	DefaultDownshiftKmph = 30.0
)

// ThresholdShifter moves one gear up above UpKmph and one gear down below
// DownKmph, staying within the gearbox.
type ThresholdShifter struct {
	UpKmph   float64
	DownKmph float64
}

func DefaultShifter() ThresholdShifter {
	return ThresholdShifter{UpKmph: DefaultUpshiftKmph, DownKmph: DefaultDownshiftKmph}
}

func (s ThresholdShifter) Select(speedKmph float64, current, numGears int) int {
	switch {
	case speedKmph > s.UpKmph && current < numGears:
		return current + 1
	case speedKmph < s.DownKmph && current > 1:
		return current - 1
	}
	return current
}

// FixedGear never shifts.
type FixedGear struct{}

func (FixedGear) Select(_ float64, current, _ int) int { return current }

// Shift applies p to t after a tick at speedKmph.
func Shift(p GearPolicy, t *components.Transmission, speedKmph float64) {
	if p == nil {
		return
	}
	t.SetGear(p.Select(speedKmph, t.CurrentGear, t.NumGears()))
}
