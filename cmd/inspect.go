package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/tiling"
	"github.com/wegman-software/lanelet2tiles/internal/vectortile"
)

var inspectTile string

var inspectCmd = &cobra.Command{
	Use:   "inspect <tile.pbf>",
	Short: "Decode a vector tile and print its layers as GeoJSON",
	Long: `Decode one tile file and print a JSON object mapping each layer name to a
GeoJSON FeatureCollection in WGS84. The tile address is taken from the
{z}/{x}/{y} path unless --tile is given.`,
	Args: cobra.ExactArgs(1),
	Run:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectTile, "tile", "", "Tile address z/x/y (default: from the file path)")
}

func runInspect(cmd *cobra.Command, args []string) {
	log := logger.Get()
	path := args[0]

	addr := inspectTile
	if addr == "" {
		addr = path
	}
	t, err := tiling.ParseTile(addr)
	if err != nil {
		exitWithError("invalid tile address", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		exitWithError("failed to read tile", err)
	}
	layers, err := vectortile.Decode(data, t)
	if err != nil {
		exitWithError("failed to decode tile", err)
	}

	out := make(map[string]*geojson.FeatureCollection, len(layers))
	for _, l := range layers {
		fc := geojson.NewFeatureCollection()
		fc.Features = l.Features
		out[l.Name] = fc
		log.Debug("Layer decoded",
			zap.String("layer", l.Name),
			zap.Uint32("extent", l.Extent),
			zap.Int("features", len(l.Features)))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		exitWithError("failed to print tile", fmt.Errorf("encode: %w", err))
	}
}
