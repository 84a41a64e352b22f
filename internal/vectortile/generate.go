package vectortile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/lanelet2tiles/internal/export"
	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/progress"
	"github.com/wegman-software/lanelet2tiles/internal/tiling"
)

// LayerSpec names the tile layer and output directory for a collection kind
type LayerSpec struct {
	Kind feature.Kind
	Name string
	Dir  string
}

// Layers lists the tile layers in pipeline order
var Layers = []LayerSpec{
	{Kind: feature.PointKind, Name: "points", Dir: "points"},
	{Kind: feature.LineStringKind, Name: "lineStrings", Dir: "line-strings"},
	{Kind: feature.PolygonKind, Name: "polygons", Dir: "polygons"},
}

// LayerFor returns the layer spec of a kind
func LayerFor(kind feature.Kind) LayerSpec {
	for _, l := range Layers {
		if l.Kind == kind {
			return l
		}
	}
	return LayerSpec{Kind: kind, Name: string(kind), Dir: string(kind)}
}

// TileListFile lists the written tiles of a layer when enabled
const TileListFile = "tiles.txt"

// Options configures tile generation for one layer
type Options struct {
	Layer    string
	Dir      string
	MinZoom  int
	MaxZoom  int
	Extent   int
	Buffer   int
	Simplify float64
	Gzip     bool
	Ext      string
	Workers  int
	TileList bool
}

// Result summarizes a generated layer
type Result struct {
	Layer    string
	Written  int
	Skipped  int
	Tracker  *tiling.Tracker
	Manifest Manifest
	Duration time.Duration
}

// Generator partitions a collection and writes its tiles
type Generator struct {
	opts    Options
	encoder *Encoder
	writer  *Writer
	log     *zap.Logger
}

// NewGenerator creates a generator; zero extent, buffer and workers take defaults
func NewGenerator(opts Options) *Generator {
	if opts.Extent <= 0 {
		opts.Extent = DefaultExtent
	}
	if opts.Buffer < 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Generator{
		opts: opts,
		encoder: &Encoder{
			Layer:    opts.Layer,
			Extent:   opts.Extent,
			Buffer:   opts.Buffer,
			Simplify: opts.Simplify,
			Gzip:     opts.Gzip,
		},
		writer: NewWriter(opts.Dir, opts.Ext),
		log:    logger.Named("tiles").With(zap.String("layer", opts.Layer)),
	}
}

// Generate rebuilds the layer directory, encodes every non-empty cell of the
// collection's tile ranges and writes the manifest once all tiles are done
func (g *Generator) Generate(ctx context.Context, c *feature.Collection) (*Result, error) {
	start := time.Now()
	res := &Result{Layer: g.opts.Layer, Tracker: tiling.NewTracker()}

	if err := export.RebuildDir(g.opts.Dir); err != nil {
		return nil, err
	}

	bound, ok := c.Bound()
	res.Manifest = NewManifest(g.opts.Layer, g.opts.MinZoom, g.opts.MaxZoom, bound)
	if !ok {
		g.log.Warn("Collection is empty, writing manifest only")
		if err := g.writer.WriteManifest(res.Manifest); err != nil {
			return nil, err
		}
		return res, nil
	}

	idx := tiling.NewIndex(c.Features(), g.opts.MinZoom, g.opts.MaxZoom, g.opts.Buffer, g.opts.Extent)
	var cells []tiling.Tile
	for _, r := range tiling.Ranges(bound, g.opts.MinZoom, g.opts.MaxZoom) {
		cells = append(cells, idx.Cells(r)...)
	}

	g.log.Info("Generating tiles",
		zap.Int("features", c.Len()),
		zap.Int("cells", len(cells)),
		zap.Int("workers", g.opts.Workers))

	counter := progress.NewCounter(int64(len(cells)))
	tickCtx, stopTicker := context.WithCancel(ctx)
	defer stopTicker()
	go progress.Every(tickCtx, 2*time.Second, func() {
		g.log.Info("Progress", counter.Snapshot().Fields()...)
	})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)

	for _, cell := range cells {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			data, err := g.encoder.Encode(cell, idx.Features(cell))
			if errors.Is(err, ErrEmptyTile) {
				counter.Skipped()
				return nil
			}
			if err != nil {
				return err
			}
			if err := g.writer.Write(cell, data); err != nil {
				return err
			}
			res.Tracker.Add(cell)
			counter.Written()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("tile generation failed for layer %s: %w", g.opts.Layer, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stopTicker()

	if err := g.writer.WriteManifest(res.Manifest); err != nil {
		return nil, err
	}
	if g.opts.TileList {
		if err := res.Tracker.WriteToFile(filepath.Join(g.opts.Dir, TileListFile)); err != nil {
			return nil, err
		}
	}

	res.Written = res.Tracker.Count()
	res.Skipped = counter.SkippedCount()
	res.Duration = time.Since(start)

	fields := append([]zap.Field{
		zap.Int("written", res.Written),
		zap.Int("skipped", res.Skipped),
		zap.Duration("duration", res.Duration.Round(time.Millisecond)),
	}, res.Tracker.ZoomFields()...)
	g.log.Info("Layer complete", fields...)

	return res, nil
}
