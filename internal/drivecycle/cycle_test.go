package drivecycle

import (
	"errors"
	"math"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	tests := []struct {
		duration, step float64
		want           int
	}{
		{30, 0.5, 60},
		{30, 0.1, 300},
		{1, 0.3, 3},
		{0.4, 0.5, 0},
	}

	for _, tt := range tests {
		speeds, err := Generate(tt.duration, tt.step, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(speeds) != tt.want {
			t.Errorf("Generate(%v, %v): expected %d ticks, got %d", tt.duration, tt.step, tt.want, len(speeds))
		}
	}
}

func TestGenerateShape(t *testing.T) {
	speeds, err := Generate(30, 0.5, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := func(minute float64) float64 { return speeds[int(minute/0.5)] }

	tests := []struct {
		minute float64
		want   float64
	}{
		{0, 0},
		{1.5, 0},
		{2, 0},
		{4, 25.5},
		{6, 51},
		{10, 51},
		{15.5, 51},
		{18, 63},
		{20, 75},
		{25.5, 75},
		{27, 37.5},
		{28, 0},
		{29.5, 0},
	}

	for _, tt := range tests {
		if got := at(tt.minute); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("t=%v: expected %v, got %v", tt.minute, tt.want, got)
		}
	}
}

func TestGenerateNonNegative(t *testing.T) {
	speeds, err := Generate(45, 0.1, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range speeds {
		if v < 0 {
			t.Fatalf("tick %d: negative target %v", i, v)
		}
		if v > 90*HighCruiseFactor+1e-9 {
			t.Fatalf("tick %d: target %v above high cruise", i, v)
		}
	}
}

func TestGenerateInvalid(t *testing.T) {
	tests := []struct {
		name                string
		duration, step, avg float64
	}{
		{"zero step", 30, 0, 60},
		{"negative step", 30, -0.5, 60},
		{"zero duration", 0, 0.5, 60},
		{"negative speed", 30, 0.5, -1},
		{"nan step", 30, math.NaN(), 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.duration, tt.step, tt.avg)
			if !errors.Is(err, ErrInvalidCycle) {
				t.Errorf("expected ErrInvalidCycle, got %v", err)
			}
		})
	}
}

func TestConstant(t *testing.T) {
	speeds, err := Constant(5, 0.5, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(speeds) != 10 {
		t.Fatalf("expected 10 ticks, got %d", len(speeds))
	}
	for i, v := range speeds {
		if v != 42 {
			t.Errorf("tick %d: expected 42, got %v", i, v)
		}
	}
}

func TestBuild(t *testing.T) {
	std, err := Build("", 30, 0.5, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(std) != 60 || math.Abs(std[20]-51) > 1e-9 {
		t.Errorf("expected standard cycle, got len=%d v[20]=%v", len(std), std[20])
	}

	if _, err := Build("sawtooth", 30, 0.5, 60); !errors.Is(err, ErrInvalidCycle) {
		t.Errorf("expected ErrInvalidCycle, got %v", err)
	}
}

func TestTimes(t *testing.T) {
	times := Times(4, 0.5)
	expected := []float64{0, 0.5, 1.0, 1.5}
	if len(times) != len(expected) {
		t.Fatalf("expected %d times, got %d", len(expected), len(times))
	}
	for i := range expected {
		if times[i] != expected[i] {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], times[i])
		}
	}
	if Times(0, 0.5) != nil {
		t.Error("expected nil for zero ticks")
	}
}
