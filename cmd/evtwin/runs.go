package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/evtwin/internal/report"
	"github.com/san-kum/evtwin/internal/storage"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTIME\tMOTOR\tMASS\tPACK\tTICKS\tCYCLE\tSTARVED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0fkg\t%.0fkWh\t%d\t%.0fmin@%.0fkm/h\t%d\n",
					run.ID,
					run.Name,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.MotorVariant,
					run.MassKg,
					run.CapacityKWh,
					run.Ticks,
					run.DurationMin,
					run.AvgSpeedKmph,
					run.StarvedTicks,
				)
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot soc, speed, power and temperature of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, records, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no data to plot")
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("motor: %s\n", meta.MotorVariant)
			fmt.Printf("samples: %d\n\n", len(records))

			plots := report.Plots(records, width, height)
			for _, key := range report.ChartKeys {
				fmt.Println(plots[key])
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "chart width")
	cmd.Flags().IntVar(&height, "height", 10, "chart height")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run records to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, records, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = meta.ID + ".csv"
			}
			if err := storage.ExportCSV(out, records); err != nil {
				return err
			}
			fmt.Printf("exported %d records to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <run_id>.csv)")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and records to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, records, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if out == "-" {
				return storage.EncodeJSON(os.Stdout, *meta, records)
			}
			if out == "" {
				out = meta.ID + ".json"
			}
			if err := storage.ExportJSON(out, *meta, records); err != nil {
				return err
			}
			fmt.Printf("exported %d records to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file, - for stdout (default <run_id>.json)")
	return cmd
}

func newExportInfluxCmd() *cobra.Command {
	var (
		url, token, org, bucket string
		dryRun                  bool
	)
	cmd := &cobra.Command{
		Use:   "export-influx [run_id]",
		Short: "write run records to InfluxDB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig()
			if err != nil {
				return err
			}
			meta, records, err := loadRun(args[0])
			if err != nil {
				return err
			}

			if dryRun {
				return storage.WriteLineProtocol(os.Stdout, storage.Points(*meta, records, meta.Timestamp))
			}

			ic := storage.InfluxConfig{
				URL:    cfg.Influx.URL,
				Token:  cfg.Influx.Token,
				Org:    cfg.Influx.Org,
				Bucket: cfg.Influx.Bucket,
			}
			flags := cmd.Flags()
			if flags.Changed("url") {
				ic.URL = url
			}
			if flags.Changed("token") {
				ic.Token = token
			}
			if flags.Changed("org") {
				ic.Org = org
			}
			if flags.Changed("bucket") {
				ic.Bucket = bucket
			}

			n, err := storage.ExportInflux(cmd.Context(), ic, *meta, records)
			if err != nil {
				return err
			}
			log.Info().Str("run_id", meta.ID).Str("bucket", ic.Bucket).Int("points", n).Msg("exported to influxdb")
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "influxdb url")
	cmd.Flags().StringVar(&token, "token", "", "influxdb token")
	cmd.Flags().StringVar(&org, "org", "", "influxdb organisation")
	cmd.Flags().StringVar(&bucket, "bucket", "", "influxdb bucket")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print line protocol instead of writing")
	return cmd
}

func newReportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "write a markdown report with svg charts for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, records, err := loadRun(args[0])
			if err != nil {
				return err
			}
			dir := out
			if dir == "" {
				dir = filepath.Join("reports", meta.ID)
			}
			path, err := report.Write(dir, records, meta.Summary, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("report: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "report directory (default reports/<run_id>)")
	return cmd
}
