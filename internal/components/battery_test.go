package components

import (
	"errors"
	"math"
	"testing"
)

func TestNewBatteryIdle(t *testing.T) {
	b, err := NewBattery(50, 400)
	if err != nil {
		t.Fatalf("NewBattery: %v", err)
	}
	if b.EnergyKWh() != 50 {
		t.Errorf("energy = %v, want 50", b.EnergyKWh())
	}
	if b.SOCPercent() != 100 {
		t.Errorf("soc = %v, want 100", b.SOCPercent())
	}
	if b.TemperatureC != 25 {
		t.Errorf("temperature = %v, want 25", b.TemperatureC)
	}
	if b.HealthPercent != 100 {
		t.Errorf("health = %v, want 100", b.HealthPercent)
	}
}

func TestNewBatteryInvalid(t *testing.T) {
	tests := []struct {
		name     string
		capacity float64
		voltage  float64
	}{
		{"zero capacity", 0, 400},
		{"negative capacity", -10, 400},
		{"NaN capacity", math.NaN(), 400},
		{"zero voltage", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBattery(tt.capacity, tt.voltage)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
			var pe *ParamError
			if !errors.As(err, &pe) || pe.Component != "battery" {
				t.Errorf("expected battery ParamError, got %v", err)
			}
		})
	}
}

func TestBatteryDischarge(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		requested float64
		delivered float64
	}{
		{"partial", 10, 4, 4},
		{"exact", 10, 10, 10},
		{"over request", 10, 15, 10},
		{"empty", 0, 3, 0},
		{"zero", 10, 0, 0},
		{"negative", 10, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := NewBattery(10, 400)
			b.SetEnergyKWh(tt.start)

			got := b.Discharge(tt.requested)
			if math.Abs(got-tt.delivered) > 1e-12 {
				t.Errorf("delivered = %v, want %v", got, tt.delivered)
			}
			if want := tt.start - tt.delivered; math.Abs(b.EnergyKWh()-want) > 1e-12 {
				t.Errorf("energy after = %v, want %v", b.EnergyKWh(), want)
			}
			if b.EnergyKWh() < 0 {
				t.Errorf("energy went negative: %v", b.EnergyKWh())
			}
		})
	}
}

func TestBatteryFullDischargeRequest(t *testing.T) {
	b, _ := NewBattery(10, 400)
	if got := b.Discharge(15); got != 10.0 {
		t.Errorf("Discharge(15) = %v, want 10", got)
	}
	if b.EnergyKWh() != 0 {
		t.Errorf("energy = %v, want 0", b.EnergyKWh())
	}
}

func TestBatteryChargeCap(t *testing.T) {
	b, _ := NewBattery(10, 400)
	b.SetEnergyKWh(9.5)

	got := b.Charge(2.0)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Charge(2) = %v, want 0.5", got)
	}
	if b.EnergyKWh() != 10.0 {
		t.Errorf("energy = %v, want 10", b.EnergyKWh())
	}
}

func TestBatteryCharge(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		requested float64
		accepted  float64
	}{
		{"headroom", 5, 2, 2},
		{"full", 10, 2, 0},
		{"zero", 5, 0, 0},
		{"negative", 5, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := NewBattery(10, 400)
			b.SetEnergyKWh(tt.start)

			got := b.Charge(tt.requested)
			if math.Abs(got-tt.accepted) > 1e-12 {
				t.Errorf("accepted = %v, want %v", got, tt.accepted)
			}
			if b.EnergyKWh() > b.CapacityKWh() {
				t.Errorf("energy %v exceeds capacity", b.EnergyKWh())
			}
		})
	}
}

func TestBatteryZeroFlowLeavesState(t *testing.T) {
	b, _ := NewBattery(10, 400)
	b.SetEnergyKWh(6)

	b.Discharge(0)
	b.Charge(0)

	if b.EnergyKWh() != 6 {
		t.Errorf("energy = %v, want 6", b.EnergyKWh())
	}
	if b.TemperatureC != 25 {
		t.Errorf("temperature = %v, want 25", b.TemperatureC)
	}
}

func TestBatterySOCBounds(t *testing.T) {
	b, _ := NewBattery(20, 350)
	requests := []float64{5, 30, -2, 12, 0.5, 40, 3, 25, 1e-9, 7}

	for i, r := range requests {
		if i%2 == 0 {
			b.Discharge(r)
		} else {
			b.Charge(r)
		}
		soc := b.SOCPercent()
		if soc < 0 || soc > 100 {
			t.Fatalf("step %d: soc %v out of bounds", i, soc)
		}
	}
}

func TestBatteryHeating(t *testing.T) {
	b, _ := NewBattery(50, 400)
	b.Discharge(1)
	// 0.02 * 1000 / 4
	if math.Abs(b.TemperatureC-30) > 1e-9 {
		t.Errorf("temperature after discharge = %v, want 30", b.TemperatureC)
	}

	b.Charge(1)
	// charging heats half as much
	if math.Abs(b.TemperatureC-32.5) > 1e-9 {
		t.Errorf("temperature after charge = %v, want 32.5", b.TemperatureC)
	}
}

func TestBatteryUpdateHealth(t *testing.T) {
	tests := []struct {
		name   string
		temp   float64
		cycles float64
		health float64
		want   float64
	}{
		{"cool idle", 25, 0, 100, 100},
		{"cycles", 25, 10, 100, 99.9},
		{"hot", 55, 0, 100, 99.98},
		{"at threshold", 50, 0, 100, 100},
		{"floor", 80, 0, 0.01, 0},
		{"ceiling", 25, -50, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := NewBattery(50, 400)
			b.TemperatureC = tt.temp
			b.HealthPercent = tt.health

			b.UpdateHealth(tt.cycles)
			if math.Abs(b.HealthPercent-tt.want) > 1e-9 {
				t.Errorf("health = %v, want %v", b.HealthPercent, tt.want)
			}
		})
	}
}

func TestBatteryRelax(t *testing.T) {
	b, _ := NewBattery(50, 400)
	b.TemperatureC = 35

	b.Relax(25, 1)
	if math.Abs(b.TemperatureC-34) > 1e-9 {
		t.Errorf("temperature = %v, want 34", b.TemperatureC)
	}
}

func TestBatteryInfo(t *testing.T) {
	b, _ := NewBattery(40, 360)
	info := b.Info()

	for _, key := range []string{"capacity_kwh", "energy_kwh", "soc_percent", "nominal_voltage", "temperature_c", "health_percent"} {
		if _, ok := info[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}
