package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/config"
	"github.com/wegman-software/lanelet2tiles/internal/logger"
)

var (
	cfg        = config.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "lanelet2tiles",
	Short: "Convert Lanelet2 OSM maps to vector tiles",
	Long: `lanelet2tiles converts a lane-level Lanelet2 OSM map into GeoJSON layers
and Mapbox Vector Tiles.

Features:
  - Lenient snippet scanner or strict XML reader for the input markup
  - TWD97 to WGS84 reprojection with a configurable planar offset
  - Lanelet polygons stitched from left and right boundaries
  - Parallel tile encoding with a per-zoom spatial index
  - Optional YAML style filters, Lua hooks, Parquet export and PostGIS load`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConfigFile(cmd.Flags()); err != nil {
			return err
		}
		logger.Init(logger.Options{Debug: cfg.Verbose, File: cfg.LogFile})
		return nil
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel the running stage
func Execute() error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "YAML config file; explicit flags take precedence")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable verbose output")
	pf.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Output root for GeoJSON, schema, Parquet and tile layers")
	pf.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of parallel tile encoders per layer")

	// Logging and metrics flags
	pf.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Path to log file for persistent logging (JSON format)")
	pf.DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Interval for system metrics logging (e.g., 10s, 1m); 0 disables")
}

// applyConfigFile loads --config over the defaults, then re-applies any
// flags set on the command line so they win over file values
func applyConfigFile(fs *pflag.FlagSet) error {
	if configFile == "" {
		return nil
	}

	changed := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := cfg.Overlay(configFile); err != nil {
		return err
	}
	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
