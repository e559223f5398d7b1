package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/evtwin/internal/automation"
	"github.com/san-kum/evtwin/internal/config"
	"github.com/san-kum/evtwin/internal/metrics"
	"github.com/san-kum/evtwin/internal/report"
	"github.com/san-kum/evtwin/internal/storage"
)

// vehicleFlags are the per-run overrides shared by run, live and cycle.
type vehicleFlags struct {
	duration, dt, avg    float64
	cycle                string
	mass, capacity, volt float64
	power, torque, regen float64
	motor                string
	soc                  float64
	name                 string
}

func (v *vehicleFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&v.duration, "duration", 30, "cycle duration in minutes")
	fs.Float64Var(&v.dt, "dt", 0.5, "time step in minutes")
	fs.Float64Var(&v.avg, "avg", 60, "average cycle speed in km/h")
	fs.StringVar(&v.cycle, "cycle", "standard", "drive cycle: standard or constant")
	fs.Float64Var(&v.mass, "mass", 1750, "vehicle mass in kg")
	fs.Float64Var(&v.capacity, "capacity", 55, "battery capacity in kWh")
	fs.Float64Var(&v.volt, "voltage", 420, "battery nominal voltage")
	fs.Float64Var(&v.power, "power", 150, "motor max power in kW")
	fs.Float64Var(&v.torque, "torque", 350, "motor max torque in Nm")
	fs.Float64Var(&v.regen, "regen", 0, "regenerative braking fraction (0 uses the motor default)")
	fs.StringVar(&v.motor, "motor", "pmsm", "motor model: pmsm or generic")
	fs.Float64Var(&v.soc, "soc", 100, "initial state of charge in percent")
	fs.StringVar(&v.name, "name", "", "run name")
}

// resolve layers the explicitly set flags over the preset and config file.
func (v *vehicleFlags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := baseConfig()
	if err != nil {
		return nil, err
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("duration", func() { cfg.Cycle.DurationMin = v.duration })
	set("dt", func() { cfg.Cycle.StepMin = v.dt })
	set("avg", func() { cfg.Cycle.AvgSpeedKmph = v.avg })
	set("cycle", func() { cfg.Cycle.Kind = v.cycle })
	set("mass", func() { cfg.Vehicle.MassKg = v.mass })
	set("capacity", func() { cfg.Battery.CapacityKWh = v.capacity })
	set("voltage", func() { cfg.Battery.NominalVoltage = v.volt })
	set("power", func() { cfg.Motor.MaxPowerKW = v.power })
	set("torque", func() { cfg.Motor.MaxTorqueNm = v.torque })
	set("regen", func() { cfg.Motor.RegenFraction = v.regen })
	set("motor", func() { cfg.Motor.Variant = v.motor })
	set("soc", func() {
		soc := v.soc
		cfg.Sim.InitialSOCPercent = &soc
	})
	set("name", func() { cfg.Name = v.name })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	var (
		vf          vehicleFlags
		metricsAddr string
		reportDir   string
		noSave      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a drive cycle and store the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vf.resolve(cmd.Flags())
			if err != nil {
				return err
			}

			runner := &automation.Runner{Log: log, ReportDir: reportDir}

			if !noSave {
				st, err := storageFor(cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				runner.Store = st
			}

			if metricsAddr != "" {
				collector, stop, err := serveMetrics(metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
				runner.Observers = append(runner.Observers, collector)
			}

			out, err := runner.Execute(cmd.Context(), cfg, reportDir != "")
			if err != nil {
				return err
			}

			printRunSummary(out)
			return nil
		},
	}

	vf.register(cmd.Flags())
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running, e.g. :9100")
	cmd.Flags().StringVar(&reportDir, "report", "", "write a markdown report under this directory")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

func storageFor(cfg *config.Config) (storage.Backend, error) {
	return storage.Open(cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.SQLitePath)
}

// serveMetrics starts a /metrics endpoint backed by a fresh registry.
func serveMetrics(addr string) (*metrics.Collector, func(), error) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return collector, stop, nil
}

func printRunSummary(out *automation.Outcome) {
	res := out.Result
	s := report.Summarize(res.Records)

	if out.RunID != "" {
		fmt.Printf("run: %s\n", out.RunID)
	}
	if out.ReportPath != "" {
		fmt.Printf("report: %s\n", out.ReportPath)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ticks\t%d\n", res.StepsTaken)
	fmt.Fprintf(w, "distance\t%.2f km\n", s.DistanceKm)
	fmt.Fprintf(w, "final soc\t%.1f %%\n", s.FinalSOCPercent)
	fmt.Fprintf(w, "soc drop\t%.1f %%\n", s.SOCDropPercent)
	fmt.Fprintf(w, "consumption\t%.3f kWh/km\n", s.ConsumptionKWhKm)
	fmt.Fprintf(w, "regen\t%.3f kWh\n", s.RegenKWh)
	fmt.Fprintf(w, "peak temp\t%.1f °C\n", s.PeakTempC)
	fmt.Fprintf(w, "final health\t%.3f %%\n", s.FinalHealthPercent)
	if res.StarvedTicks > 0 {
		fmt.Fprintf(w, "starved ticks\t%d\n", res.StarvedTicks)
	}
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%.4f\n", name, res.Metrics[name])
	}
	w.Flush()

	if len(res.Records) > 1 {
		soc := make([]float64, len(res.Records))
		for i, r := range res.Records {
			soc[i] = r.BatterySOCPercent
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(soc,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("battery soc (%)"),
		))
	}
}
