package main

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestParseGrid(t *testing.T) {
	names, ranges, err := parseGrid([]string{"regen_fraction=0.2, 0.4", "mass_kg=1400,1700,2000"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "mass_kg" || names[1] != "regen_fraction" {
		t.Fatalf("names = %v", names)
	}
	if len(ranges[0]) != 3 || ranges[0][2] != 2000 {
		t.Errorf("mass range = %v", ranges[0])
	}
	if len(ranges[1]) != 2 || ranges[1][1] != 0.4 {
		t.Errorf("regen range = %v", ranges[1])
	}

	for _, bad := range []string{"mass_kg", "mass_kg=heavy"} {
		if _, _, err := parseGrid([]string{bad}); err == nil {
			t.Errorf("parseGrid(%q) should fail", bad)
		}
	}
}

func TestVehicleFlagsOnlyChangedApply(t *testing.T) {
	var vf vehicleFlags
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	vf.register(fs)
	if err := fs.Parse([]string{"--mass", "2100", "--motor", "generic", "--soc", "40"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := vf.resolve(fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vehicle.MassKg != 2100 {
		t.Errorf("mass = %v", cfg.Vehicle.MassKg)
	}
	if cfg.Motor.Variant != "generic" {
		t.Errorf("motor = %v", cfg.Motor.Variant)
	}
	if cfg.Sim.InitialSOCPercent == nil || *cfg.Sim.InitialSOCPercent != 40 {
		t.Errorf("soc = %v", cfg.Sim.InitialSOCPercent)
	}
	if cfg.Motor.RegenFraction != 0 {
		t.Errorf("unset regen flag applied: %v", cfg.Motor.RegenFraction)
	}
}

func TestVehicleFlagsRejectInvalid(t *testing.T) {
	var vf vehicleFlags
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	vf.register(fs)
	if err := fs.Parse([]string{"--dt", "0"}); err != nil {
		t.Fatal(err)
	}
	if _, err := vf.resolve(fs); err == nil {
		t.Error("expected error for zero dt")
	}
}
