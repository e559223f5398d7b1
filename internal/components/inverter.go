package components

import "math"

const (
	DefaultPeakEfficiency = 0.98

	// referenceLoadKW is the DC power at which the load fraction saturates.
	referenceLoadKW = 150.0

	minForwardEfficiency = 0.85
	minReverseEfficiency = 0.70
	reverseOffset        = 0.03
	loadPenalty          = 0.02
)

// Inverter converts between battery DC and motor AC power.
type Inverter struct {
	peak float64
}

func NewInverter(peakEfficiency float64) (*Inverter, error) {
	if !(peakEfficiency > 0 && peakEfficiency <= 1) {
		return nil, &ParamError{
			Component: "inverter",
			Field:     "peak_efficiency",
			Value:     peakEfficiency,
			Reason:    "must be in (0, 1]",
		}
	}
	return &Inverter{peak: peakEfficiency}, nil
}

func (inv *Inverter) PeakEfficiency() float64 { return inv.peak }

// DCToAC returns AC output and efficiency for a DC input. Efficiency falls
// from peak by up to two points as load approaches 150 kW and is clamped to
// [0.85, peak]. Non-positive input yields (0, 0).
func (inv *Inverter) DCToAC(pDCKW float64) (pACKW, eff float64) {
	if pDCKW <= 0 {
		return 0, 0
	}
	load := math.Min(1.0, pDCKW/referenceLoadKW)
	eff = inv.peak - loadPenalty*(1-(1-load)*(1-load))
	eff = math.Max(minForwardEfficiency, math.Min(inv.peak, eff))
	return pDCKW * eff, eff
}

// ACToDC returns DC output and efficiency for an AC input during regen.
// Efficiency is a fixed three points below peak, floored at 0.70.
func (inv *Inverter) ACToDC(pACKW float64) (pDCKW, eff float64) {
	if pACKW <= 0 {
		return 0, 0
	}
	eff = math.Max(minReverseEfficiency, inv.peak-reverseOffset)
	return pACKW * eff, eff
}

func (inv *Inverter) Info() map[string]any {
	return map[string]any{"peak_efficiency": inv.peak}
}
