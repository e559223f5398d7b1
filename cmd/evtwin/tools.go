package main

import (
	"fmt"
	"sort"
	"strconv"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/evtwin/internal/automation"
	"github.com/san-kum/evtwin/internal/config"
	"github.com/san-kum/evtwin/internal/drivecycle"
	"github.com/san-kum/evtwin/internal/metrics"
	"github.com/san-kum/evtwin/internal/optim"
	"github.com/san-kum/evtwin/internal/sim"
	"github.com/san-kum/evtwin/internal/viz"
)

func newCycleCmd() *cobra.Command {
	var (
		vf    vehicleFlags
		table bool
	)
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "print the target-speed profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vf.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			profile, err := cfg.Profile()
			if err != nil {
				return err
			}

			if table {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "T_MIN\tTARGET_KMPH")
				for i, t := range drivecycle.Times(len(profile), cfg.Cycle.StepMin) {
					fmt.Fprintf(w, "%.2f\t%.2f\n", t, profile[i])
				}
				return w.Flush()
			}

			fmt.Println(asciigraph.Plot(profile,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("%s cycle, %d ticks of %.2f min", cfg.Cycle.Kind, len(profile), cfg.Cycle.StepMin)),
			))
			return nil
		},
	}
	vf.register(cmd.Flags())
	cmd.Flags().BoolVar(&table, "table", false, "print a table instead of a chart")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list vehicle presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMOTOR\tMASS\tPACK\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%.0fkg\t%.0fkWh\t%s\n",
					name, cfg.Motor.Variant, cfg.Vehicle.MassKg, cfg.Battery.CapacityKWh, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}
}

func newConfigCmd() *cobra.Command {
	var write string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig()
			if err != nil {
				return err
			}
			if write != "" {
				if err := config.Save(write, cfg); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", write)
				return nil
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "save the configuration to this file instead of printing it")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var (
		vf     vehicleFlags
		motors []string
		masses []float64
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "run motor and mass variants of one vehicle concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vf.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			profile, err := cfg.Profile()
			if err != nil {
				return err
			}

			if len(masses) == 0 {
				masses = []float64{cfg.Vehicle.MassKg}
			}
			var variants []sim.Variant
			for _, motor := range motors {
				for _, mass := range masses {
					p := cfg.Params()
					p.MotorVariant = motor
					p.MassKg = mass
					variants = append(variants, sim.Variant{
						Name:   fmt.Sprintf("%s/%.0fkg", motor, mass),
						Params: p,
					})
				}
			}

			ens := sim.NewEnsemble(variants, cfg.GearPolicy(), metrics.Standard)
			ens.SetLogger(log)
			results, err := ens.Run(cmd.Context(), profile, cfg.SimConfig())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VARIANT\tDIST\tFINAL SOC\tKWH/KM\tREGEN\tPEAK TEMP\tSTARVED")
			for i, res := range results {
				final := res.Final()
				fmt.Fprintf(w, "%s\t%.2fkm\t%.1f%%\t%.3f\t%.2fkWh\t%.1f°C\t%.0f%%\n",
					variants[i].Name,
					final.DistanceKm,
					final.BatterySOCPercent,
					res.Metrics["consumption_kwh_per_km"],
					res.Metrics["regen_recovered_kwh"],
					res.Metrics["peak_battery_temp_c"],
					res.Metrics["starved_fraction"]*100,
				)
			}
			return w.Flush()
		},
	}
	vf.register(cmd.Flags())
	cmd.Flags().StringSliceVar(&motors, "motors", []string{"pmsm", "generic"}, "motor models to compare")
	cmd.Flags().Float64SliceVar(&masses, "masses", nil, "vehicle masses to compare in kg")
	return cmd
}

func newLiveCmd() *cobra.Command {
	var (
		vf          vehicleFlags
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "live",
		Short: "step a drive cycle with a live terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vf.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			profile, err := cfg.Profile()
			if err != nil {
				return err
			}

			var observers []sim.Observer
			if metricsAddr != "" {
				collector, stop, err := serveMetrics(metricsAddr)
				if err != nil {
					return err
				}
				defer stop()
				observers = append(observers, collector)
			}

			m := viz.NewModel(cfg.Params(), cfg.GearPolicy(), profile, cfg.SimConfig(), observers...)
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			return final.(viz.Model).Err()
		},
	}
	vf.register(cmd.Flags())
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

func newScenarioCmd() *cobra.Command {
	var reportDir string
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of several runs and store them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runner := &automation.Runner{Store: st, ReportDir: reportDir, Log: log}
			outcomes, err := runner.RunScenario(cmd.Context(), sc)

			if len(outcomes) > 0 {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "RUN\tNAME\tDIST\tFINAL SOC\tREPORT")
				for _, o := range outcomes {
					final := o.Result.Final()
					fmt.Fprintf(w, "%s\t%s\t%.2fkm\t%.1f%%\t%s\n",
						o.RunID, o.Name, final.DistanceKm, final.BatterySOCPercent, dash(o.ReportPath))
				}
				w.Flush()
			}
			return err
		},
	}
	cmd.Flags().StringVar(&reportDir, "report-dir", "reports", "directory for reports of runs with report: true")
	return cmd
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func newTuneCmd() *cobra.Command {
	var (
		vf       vehicleFlags
		grid     []string
		metric   string
		maximize bool
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search powertrain parameters for the best run metric",
		Long:  "tune runs every combination of --grid values concurrently and reports the best.\n" +
			"Each --grid entry is name=v1,v2,...; tunable names: " + strings.Join(optim.Knobs(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := vf.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			profile, err := cfg.Profile()
			if err != nil {
				return err
			}

			names, ranges, err := parseGrid(grid)
			if err != nil {
				return err
			}
			search, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}
			search.Maximize = maximize

			best, all, err := search.Search(cmd.Context(), cfg.Params(), cfg.GearPolicy(), profile,
				cfg.SimConfig(), metrics.Standard, metric)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "POINT\t%s\tSTARVED\n", strings.ToUpper(metric))
			for _, c := range all {
				mark := ""
				if c.Result == best.Result {
					mark = " *"
				}
				fmt.Fprintf(w, "%s%s\t%.4f\t%d\n", search.Label(c.Values), mark, c.Score, c.Result.StarvedTicks)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\nbest: %s (%s = %.4f)\n", search.Label(best.Values), metric, best.Score)
			return nil
		},
	}
	vf.register(cmd.Flags())
	cmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter grid, e.g. mass_kg=1400,1700,2000 (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "consumption_kwh_per_km", "metric to optimise")
	cmd.Flags().BoolVar(&maximize, "maximize", false, "maximise instead of minimise the metric")
	cmd.MarkFlagRequired("grid")
	return cmd
}

// parseGrid turns "name=v1,v2" entries into names and value ranges, sorted
// by name so the search order is stable.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	parsed := make(map[string][]float64, len(entries))
	for _, e := range entries {
		name, list, ok := strings.Cut(e, "=")
		if !ok {
			return nil, nil, fmt.Errorf("grid %q: want name=v1,v2,...", e)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %q: %w", e, err)
			}
			values = append(values, v)
		}
		parsed[strings.TrimSpace(name)] = values
	}

	names := make([]string, 0, len(parsed))
	for n := range parsed {
		names = append(names, n)
	}
	sort.Strings(names)

	ranges := make([][]float64, len(names))
	for i, n := range names {
		ranges[i] = parsed[n]
	}
	return names, ranges, nil
}
