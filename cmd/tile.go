package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/pipeline"
)

var tileCmd = &cobra.Command{
	Use:   "tile",
	Short: "Encode vector tiles from previously exported GeoJSON layers",
	Long: `Read points.geojson, lineStrings.geojson and polygons.geojson from the
output directory and rebuild the points, line-strings and polygons tile
layers next to them.`,
	Args: cobra.NoArgs,
	Run:  runTile,
}

func init() {
	rootCmd.AddCommand(tileCmd)

	addTileFlags(tileCmd.Flags())
}

func runTile(cmd *cobra.Command, args []string) {
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	log.Info("Starting tile generation",
		zap.String("dir", cfg.OutputDir),
		zap.Int("min_zoom", cfg.MinZoom),
		zap.Int("max_zoom", cfg.MaxZoom),
		zap.Int("workers", cfg.Workers),
	)

	start := time.Now()
	stats, err := pipeline.NewCoordinator(cfg).RunTiles(cmd.Context())
	if err != nil {
		exitWithError("tile generation failed", err)
	}

	logLayerStats(log, stats)
	log.Info("Tile generation finished",
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
		zap.Int("tiles", stats.TilesWritten()),
	)
}
