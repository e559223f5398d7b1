package components

import (
	"errors"
	"math"
	"testing"
)

func TestShaftPowerKW(t *testing.T) {
	// 100 Nm at 3000 rpm
	want := 100 * 3000 * 2 * math.Pi / 60000
	if got := ShaftPowerKW(100, 3000); math.Abs(got-want) > 1e-9 {
		t.Errorf("ShaftPowerKW = %v, want %v", got, want)
	}
}

func TestMotorEfficiencyBounds(t *testing.T) {
	models := map[string]EfficiencyModel{
		"generic": GenericEfficiency{},
		"pmsm":    PMSMEfficiency{},
		"low":     EfficiencyFunc(func(_, _ float64) float64 { return 0.1 }),
		"high":    EfficiencyFunc(func(_, _ float64) float64 { return 1.5 }),
	}

	for name, model := range models {
		t.Run(name, func(t *testing.T) {
			m, err := NewMotor(120, 320, model)
			if err != nil {
				t.Fatalf("NewMotor: %v", err)
			}
			for _, torque := range []float64{-400, 0, 10, 64, 160, 320, 900} {
				for _, rpm := range []float64{0, 500, 2400, 8000, 15000} {
					eff := m.Efficiency(torque, rpm)
					if eff < MinMotorEfficiency || eff > MaxMotorEfficiency {
						t.Errorf("efficiency(%v, %v) = %v out of bounds", torque, rpm, eff)
					}
				}
			}
		})
	}
}

func TestPMSMPeak(t *testing.T) {
	m, _ := NewPMSM(120, 320)

	peak := m.Efficiency(0.2*320, 0.3*ReferenceSpeedRPM)
	if math.Abs(peak-0.9) > 1e-9 {
		t.Errorf("peak efficiency = %v, want 0.9", peak)
	}
	if off := m.Efficiency(0.9*320, 0.9*ReferenceSpeedRPM); off >= peak {
		t.Errorf("off-peak efficiency %v should be below peak %v", off, peak)
	}
}

func TestGenericEfficiencyIgnoresSpeed(t *testing.T) {
	m, _ := NewMotor(100, 300, nil)
	if m.Variant() != "generic" {
		t.Errorf("variant = %q, want generic", m.Variant())
	}
	a := m.Efficiency(60, 1000)
	b := m.Efficiency(60, 7000)
	if a != b {
		t.Errorf("generic efficiency depends on speed: %v vs %v", a, b)
	}
}

func TestProducePower(t *testing.T) {
	m, _ := NewPMSM(120, 320)

	shaft, elec := m.ProducePower(100, 3000)
	eff := m.Efficiency(100, 3000)
	if math.Abs(shaft-ShaftPowerKW(100, 3000)) > 1e-9 {
		t.Errorf("shaft = %v, want %v", shaft, ShaftPowerKW(100, 3000))
	}
	if math.Abs(elec-shaft/eff) > 1e-9 {
		t.Errorf("elec = %v, want %v", elec, shaft/eff)
	}
}

func TestProducePowerSaturation(t *testing.T) {
	m, _ := NewPMSM(120, 320)

	shaft, elec := m.ProducePower(320, 12000)
	eff := m.Efficiency(320, 12000)
	if elec != m.MaxPowerKW {
		t.Errorf("elec = %v, want cap %v", elec, m.MaxPowerKW)
	}
	if math.Abs(shaft-elec*eff) > 1e-9 {
		t.Errorf("shaft = %v, want %v", shaft, elec*eff)
	}
}

func TestProducePowerZero(t *testing.T) {
	m, _ := NewPMSM(120, 320)
	shaft, elec := m.ProducePower(0, 0)
	if shaft != 0 || elec != 0 {
		t.Errorf("ProducePower(0, 0) = (%v, %v), want zeros", shaft, elec)
	}
}

func TestRegenFraction(t *testing.T) {
	m, _ := NewMotor(100, 300, GenericEfficiency{})
	if m.RegenEfficiencyFraction() != 0.5 {
		t.Errorf("regen fraction = %v, want 0.5", m.RegenEfficiencyFraction())
	}
	m.RegenFraction = 0.65
	if m.RegenEfficiencyFraction() != 0.65 {
		t.Errorf("override not applied: %v", m.RegenEfficiencyFraction())
	}
}

func TestNewMotorInvalid(t *testing.T) {
	tests := []struct {
		name   string
		power  float64
		torque float64
	}{
		{"zero power", 0, 300},
		{"negative torque", 100, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMotor(tt.power, tt.torque, nil); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}
