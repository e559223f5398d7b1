package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/evtwin/internal/config"
	"github.com/san-kum/evtwin/internal/logging"
	"github.com/san-kum/evtwin/internal/powertrain"
	"github.com/san-kum/evtwin/internal/storage"
)

var (
	configFile string
	preset     string
	logLevel   string
	logFormat  string
	logFile    string
	dataDir    string
	storeKind  string

	log = logging.New(logging.Config{Level: "info"})
)

// main wires every subcommand onto the root and exits 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "evtwin",
		Short:         "electric vehicle powertrain digital twin",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a vehicle preset")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&logFile, "log-file", "", "also write logs to this file")
	pf.StringVar(&dataDir, "data", "", "run directory for the file store")
	pf.StringVar(&storeKind, "store", "", "run store backend: file or sqlite")

	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newExportInfluxCmd(),
		newReportCmd(),
		newCycleCmd(),
		newPresetsCmd(),
		newConfigCmd(),
		newCompareCmd(),
		newTuneCmd(),
		newLiveCmd(),
		newScenarioCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("evtwin failed")
		os.Exit(1)
	}
}

// baseConfig loads --preset and --config with environment overrides. Log
// and store settings in the file apply unless their flags are set.
func baseConfig() (*config.Config, error) {
	base := config.DefaultConfig()
	if preset != "" {
		base = config.GetPreset(preset)
		if base == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	cfg, err := config.LoadOver(base, configFile)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Storage.Dir = dataDir
	}
	if storeKind != "" {
		cfg.Storage.Backend = storeKind
	}
	return cfg, nil
}

func setupLogging() error {
	cfg, err := baseConfig()
	if err != nil {
		return err
	}

	lc := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if logLevel != "" {
		lc.Level = logLevel
	}
	if logFormat != "" {
		lc.Format = logFormat
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		lc.Tee = f
	}
	log = logging.New(lc)
	return nil
}

func openStore() (storage.Backend, error) {
	cfg, err := baseConfig()
	if err != nil {
		return nil, err
	}
	return storageFor(cfg)
}

// loadRun fetches metadata and records for runID from the configured store.
func loadRun(runID string) (*storage.RunMetadata, []powertrain.Record, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	records, err := st.LoadRecords(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, records, nil
}
