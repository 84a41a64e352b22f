package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/pipeline"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input.osm]",
	Short: "Run the full conversion: extract, assemble, export and tile",
	Long: `Convert a Lanelet2 OSM map into GeoJSON layers and vector tiles:

  1. Extract nodes, ways and relations from the markup
  2. Assemble points, line strings and lanelet polygons in WGS84
  3. Apply the optional style and Lua hooks
  4. Write points.geojson, lineStrings.geojson, polygons.geojson and schema.json
  5. Encode the points, line-strings and polygons tile layers with info.json

Output directories are rebuilt on every run.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	addInputFlags(convertCmd.Flags())
	addExportFlags(convertCmd.Flags())
	addTileFlags(convertCmd.Flags())
}

func runConvert(cmd *cobra.Command, args []string) {
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

	log.Info("Starting conversion",
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputDir),
		zap.String("reader", cfg.Reader),
		zap.Int("projection", cfg.Projection),
		zap.String("offset", cfg.Offset.String()),
		zap.Int("min_zoom", cfg.MinZoom),
		zap.Int("max_zoom", cfg.MaxZoom),
		zap.Int("workers", cfg.Workers),
	)

	start := time.Now()
	stats, err := pipeline.NewCoordinator(cfg).Run(cmd.Context())
	if err != nil {
		exitWithError("conversion failed", err)
	}

	logLayerStats(log, stats)
	log.Info("Conversion finished",
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
		zap.Int("tiles", stats.TilesWritten()),
	)
}

func logLayerStats(log *zap.Logger, stats *pipeline.RunStats) {
	for _, l := range stats.Layers {
		log.Info("Layer",
			zap.String("layer", l.Layer),
			zap.Int("features", l.Features),
			zap.Int("filtered", l.Filtered),
		)
	}
	for _, r := range stats.Tiles {
		log.Info("Tiles",
			zap.String("layer", r.Layer),
			zap.Int("written", r.Written),
			zap.Int("skipped", r.Skipped),
			zap.Duration("duration", r.Duration.Round(time.Millisecond)),
		)
	}
}
