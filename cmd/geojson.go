package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/pipeline"
)

var geojsonCmd = &cobra.Command{
	Use:   "geojson [input.osm]",
	Short: "Assemble and export GeoJSON layers without tiling",
	Long: `Extract and assemble a Lanelet2 OSM map, then write points.geojson,
lineStrings.geojson, polygons.geojson and schema.json (and optionally the
Parquet files) to the output directory. Tiles can be produced later with the
tile command.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runGeoJSON,
}

func init() {
	rootCmd.AddCommand(geojsonCmd)

	addInputFlags(geojsonCmd.Flags())
	addExportFlags(geojsonCmd.Flags())
}

func runGeoJSON(cmd *cobra.Command, args []string) {
	if len(args) == 1 {
		cfg.InputFile = args[0]
	}
	log := logger.Get()

	if err := cfg.RequireInput(); err != nil {
		exitWithError("invalid configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	log.Info("Starting export",
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputDir),
	)

	start := time.Now()
	stats, err := pipeline.NewCoordinator(cfg).RunGeoJSON(cmd.Context())
	if err != nil {
		exitWithError("export failed", err)
	}

	logLayerStats(log, stats)
	log.Info("Export finished",
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
		zap.Strings("files", stats.Files),
	)
}
