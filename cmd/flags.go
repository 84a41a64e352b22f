package cmd

import (
	"strconv"

	"github.com/spf13/pflag"

	"github.com/wegman-software/lanelet2tiles/internal/proj"
)

// sridValue is a pflag.Value accepting "3826" or "EPSG:3826"
type sridValue struct {
	srid *int
}

func (v sridValue) String() string {
	if v.srid == nil {
		return ""
	}
	return strconv.Itoa(*v.srid)
}

func (v sridValue) Set(s string) error {
	srid, err := proj.ParseSRID(s)
	if err != nil {
		return err
	}
	*v.srid = srid
	return nil
}

func (v sridValue) Type() string {
	return "srid"
}

func addInputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.Reader, "reader", cfg.Reader, "Markup reader: snippet (lenient) or xml (strict)")
	fs.VarP(sridValue{&cfg.Projection}, "projection", "E", "Source SRID of local_x/local_y (3826, 3825 or 4326)")
	fs.Var(&cfg.Offset, "offset", "Planar offset x,y added to local_x/local_y before reprojection")
}

func addExportFlags(fs *pflag.FlagSet) {
	fs.IntVar(&cfg.SchemaLimit, "schema-limit", cfg.SchemaLimit, "Distinct values kept per schema key before it exports as Array<any>")
	fs.StringVarP(&cfg.StyleFile, "style", "S", cfg.StyleFile, "Style YAML file for tag filtering")
	fs.StringVar(&cfg.ScriptFile, "script", cfg.ScriptFile, "Lua script with process_* hooks")
	fs.BoolVar(&cfg.Parquet, "parquet", cfg.Parquet, "Also write Parquet files for PostGIS loading")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Rows per Parquet row group")
}

func addTileFlags(fs *pflag.FlagSet) {
	fs.IntVar(&cfg.MinZoom, "min-zoom", cfg.MinZoom, "Minimum zoom level")
	fs.IntVar(&cfg.MaxZoom, "max-zoom", cfg.MaxZoom, "Maximum zoom level")
	fs.IntVar(&cfg.Buffer, "buffer", cfg.Buffer, "Tile buffer in extent units")
	fs.IntVar(&cfg.Extent, "extent", cfg.Extent, "Tile extent")
	fs.StringVar(&cfg.TileExt, "tile-ext", cfg.TileExt, "Tile file extension")
	fs.BoolVar(&cfg.Gzip, "gzip", cfg.Gzip, "Gzip tile payloads")
	fs.Float64Var(&cfg.Simplify, "simplify", cfg.Simplify, "Douglas-Peucker tolerance in tile units; 0 disables")
	fs.BoolVar(&cfg.TileList, "tile-list", cfg.TileList, "Write tiles.txt listing the written tiles of each layer")
}
