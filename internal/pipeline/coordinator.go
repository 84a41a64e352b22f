package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/lanelet2tiles/internal/assemble"
	"github.com/wegman-software/lanelet2tiles/internal/config"
	"github.com/wegman-software/lanelet2tiles/internal/export"
	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/markup"
	"github.com/wegman-software/lanelet2tiles/internal/metrics"
	"github.com/wegman-software/lanelet2tiles/internal/parquet"
	"github.com/wegman-software/lanelet2tiles/internal/proj"
	"github.com/wegman-software/lanelet2tiles/internal/script"
	"github.com/wegman-software/lanelet2tiles/internal/style"
	"github.com/wegman-software/lanelet2tiles/internal/vectortile"
)

// Coordinator orchestrates a conversion run
type Coordinator struct {
	cfg       *config.Config
	log       *zap.Logger
	collector *metrics.Collector
}

// NewCoordinator creates a new pipeline coordinator
func NewCoordinator(cfg *config.Config) *Coordinator {
	return &Coordinator{
		cfg: cfg,
		log: logger.Named("pipeline"),
	}
}

// Run executes the full conversion: extract, assemble, filter, export and tile
func (c *Coordinator) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stop := c.startMetrics(ctx)
	defer stop()

	stats, cols, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.tiles(ctx, cols, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	c.log.Info("Conversion complete",
		zap.Int("tiles", stats.TilesWritten()),
		zap.Duration("duration", stats.Duration.Round(time.Millisecond)))
	return stats, nil
}

// RunGeoJSON extracts, assembles and exports without tiling
func (c *Coordinator) RunGeoJSON(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stop := c.startMetrics(ctx)
	defer stop()

	stats, _, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// RunTiles tiles the GeoJSON files previously exported to the output directory
func (c *Coordinator) RunTiles(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stop := c.startMetrics(ctx)
	defer stop()

	c.setStage("read")
	cols, err := export.ReadAll(c.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read exported layers: %w", err)
	}

	stats := &RunStats{}
	for _, col := range cols.All() {
		stats.Layers = append(stats.Layers, LayerStats{
			Layer:    vectortile.LayerFor(col.Kind()).Name,
			Features: col.Len(),
		})
	}
	if err := c.tiles(ctx, cols, stats); err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// build runs every stage up to and including the file exports
func (c *Coordinator) build(ctx context.Context) (*RunStats, export.Collections, error) {
	stats := &RunStats{}

	c.setStage("extract")
	extractStart := time.Now()
	doc, err := markup.ReadFile(ctx, c.cfg.InputFile, markup.Reader(c.cfg.Reader))
	if err != nil {
		return nil, export.Collections{}, err
	}
	stats.Extract = ExtractStats{
		Nodes:     len(doc.Nodes),
		Ways:      len(doc.Ways),
		Relations: len(doc.Relations),
		Skipped:   doc.Skipped,
	}
	c.log.Info("Entities extracted",
		zap.Int("nodes", stats.Extract.Nodes),
		zap.Int("ways", stats.Extract.Ways),
		zap.Int("relations", stats.Extract.Relations),
		zap.Int("skipped", stats.Extract.Skipped),
		zap.Duration("duration", time.Since(extractStart).Round(time.Millisecond)))

	c.setStage("assemble")
	reproject, err := c.reprojector()
	if err != nil {
		return nil, export.Collections{}, err
	}
	res := assemble.New(reproject).Assemble(doc)
	stats.Assemble = res.Stats

	cols := export.Collections{Points: res.Points, Lines: res.Lines, Polygons: res.Polygons}

	c.setStage("filter")
	if cols, err = c.filter(cols); err != nil {
		return nil, export.Collections{}, err
	}
	assembled := []*feature.Collection{res.Points, res.Lines, res.Polygons}
	for i, col := range cols.All() {
		stats.Layers = append(stats.Layers, LayerStats{
			Layer:    vectortile.LayerFor(col.Kind()).Name,
			Features: col.Len(),
			Filtered: assembled[i].Len() - col.Len(),
		})
	}

	c.setStage("export")
	files, err := export.WriteAll(c.cfg.OutputDir, cols, res.Schema, c.cfg.SchemaLimit)
	if err != nil {
		return nil, export.Collections{}, fmt.Errorf("failed to export layers: %w", err)
	}
	if c.cfg.Parquet {
		for _, col := range cols.All() {
			path, err := parquet.WriteCollection(c.cfg.OutputDir, col, c.cfg.BatchSize)
			if err != nil {
				return nil, export.Collections{}, err
			}
			files = append(files, path)
		}
	}
	stats.Files = files
	c.log.Info("Layers exported", zap.Strings("files", files))

	return stats, cols, nil
}

func (c *Coordinator) reprojector() (proj.Reprojector, error) {
	t, err := proj.NewTransformer(c.cfg.Projection, proj.SRID4326)
	if err != nil {
		return nil, err
	}
	return proj.WithOffset(t.Reprojector(), c.cfg.Offset.X, c.cfg.Offset.Y), nil
}

// filter applies the optional style and script to each collection
func (c *Coordinator) filter(cols export.Collections) (export.Collections, error) {
	if c.cfg.StyleFile != "" {
		styleCfg, err := style.LoadConfig(c.cfg.StyleFile)
		if err != nil {
			return cols, err
		}
		cols.Points = styleCfg.FilterFor(feature.PointKind).Apply(cols.Points)
		cols.Lines = styleCfg.FilterFor(feature.LineStringKind).Apply(cols.Lines)
		cols.Polygons = styleCfg.FilterFor(feature.PolygonKind).Apply(cols.Polygons)
		c.log.Info("Style applied", zap.String("style", c.cfg.StyleFile))
	}

	if c.cfg.ScriptFile != "" {
		rt := script.NewRuntime()
		defer rt.Close()
		if err := rt.LoadFile(c.cfg.ScriptFile); err != nil {
			return cols, err
		}
		var err error
		if cols.Points, err = rt.Apply(cols.Points); err != nil {
			return cols, err
		}
		if cols.Lines, err = rt.Apply(cols.Lines); err != nil {
			return cols, err
		}
		if cols.Polygons, err = rt.Apply(cols.Polygons); err != nil {
			return cols, err
		}
		c.log.Info("Script applied", zap.String("script", c.cfg.ScriptFile))
	}
	return cols, nil
}

// tiles generates the three layers concurrently
func (c *Coordinator) tiles(ctx context.Context, cols export.Collections, stats *RunStats) error {
	c.setStage("tiles")
	all := cols.All()
	results := make([]*vectortile.Result, len(all))

	g, gctx := errgroup.WithContext(ctx)
	for i, col := range all {
		layer := vectortile.LayerFor(col.Kind())
		gen := vectortile.NewGenerator(c.tileOptions(layer))
		g.Go(func() error {
			res, err := gen.Generate(gctx, col)
			if err != nil {
				return fmt.Errorf("%s tiles failed: %w", layer.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	stats.Tiles = results
	return nil
}

func (c *Coordinator) tileOptions(layer vectortile.LayerSpec) vectortile.Options {
	return vectortile.Options{
		Layer:    layer.Name,
		Dir:      filepath.Join(c.cfg.OutputDir, layer.Dir),
		MinZoom:  c.cfg.MinZoom,
		MaxZoom:  c.cfg.MaxZoom,
		Extent:   c.cfg.Extent,
		Buffer:   c.cfg.Buffer,
		Simplify: c.cfg.Simplify,
		Gzip:     c.cfg.Gzip,
		Ext:      c.cfg.TileExt,
		Workers:  c.cfg.Workers,
		TileList: c.cfg.TileList,
	}
}

// startMetrics starts background system metrics when an interval is set
func (c *Coordinator) startMetrics(ctx context.Context) context.CancelFunc {
	if c.cfg.MetricsInterval <= 0 {
		return func() {}
	}
	metricsCtx, cancel := context.WithCancel(ctx)
	c.collector = metrics.NewCollector(c.cfg.MetricsInterval, logger.Named("metrics"))
	go c.collector.Start(metricsCtx)
	c.log.Info("System metrics collection started",
		zap.Duration("interval", c.cfg.MetricsInterval))
	return cancel
}

func (c *Coordinator) setStage(stage string) {
	if c.collector != nil {
		c.collector.SetStage(stage)
	}
	c.log.Debug("Stage started", zap.String("stage", stage))
}
