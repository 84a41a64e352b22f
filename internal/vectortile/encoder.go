package vectortile

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/tiling"
)

// ErrEmptyTile is returned when no feature survives clipping
var ErrEmptyTile = errors.New("empty tile")

const (
	DefaultExtent = 4096
	DefaultBuffer = 64
)

// gzip magic bytes
var gzipMagic = []byte{0x1f, 0x8b}

// Encoder serializes features of one layer into MVT payloads
type Encoder struct {
	Layer    string
	Extent   int
	Buffer   int
	Simplify float64 // Douglas-Peucker tolerance in tile units, 0 disables
	Gzip     bool
}

// NewEncoder creates an encoder with the default extent and buffer
func NewEncoder(layer string) *Encoder {
	return &Encoder{
		Layer:  layer,
		Extent: DefaultExtent,
		Buffer: DefaultBuffer,
	}
}

// clipBound is the tile-local box features are clipped to
func (e *Encoder) clipBound() orb.Bound {
	b := float64(e.Buffer)
	return orb.Bound{
		Min: orb.Point{-b, -b},
		Max: orb.Point{float64(e.Extent) + b, float64(e.Extent) + b},
	}
}

// Encode builds the layer for a tile from the candidate features.
// Geometries are cloned before projection; the inputs are never modified.
func (e *Encoder) Encode(t tiling.Tile, features []*feature.Feature) ([]byte, error) {
	if len(features) == 0 {
		return nil, ErrEmptyTile
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(orb.Clone(f.Geometry.Orb()))
		gf.Properties = f.Properties.Map()
		if id, err := strconv.ParseUint(f.ID, 10, 64); err == nil {
			gf.ID = id
		}
		fc.Append(gf)
	}

	layer := mvt.NewLayer(e.Layer, fc)
	layer.Version = 2
	layer.Extent = uint32(e.Extent)

	layer.ProjectToTile(t.MapTile())
	layer.Clip(e.clipBound())
	if e.Simplify > 0 {
		layer.Simplify(simplify.DouglasPeucker(e.Simplify))
	}
	layer.RemoveEmpty(0.5, 0.5)
	orientRings(layer)

	if len(layer.Features) == 0 {
		return nil, ErrEmptyTile
	}

	layers := mvt.Layers{layer}
	var (
		data []byte
		err  error
	)
	if e.Gzip {
		data, err = mvt.MarshalGzipped(layers)
	} else {
		data, err = mvt.Marshal(layers)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile %s: %w", t, err)
	}
	return data, nil
}

// orientRings winds exterior rings counter-clockwise in tile coordinates,
// which reads clockwise with y pointing down
func orientRings(layer *mvt.Layer) {
	for _, f := range layer.Features {
		p, ok := f.Geometry.(orb.Polygon)
		if !ok {
			continue
		}
		for i, r := range p {
			exterior := i == 0
			if (r.Orientation() == orb.CCW) != exterior {
				r.Reverse()
			}
		}
	}
}

// Decode parses a tile payload, gzipped or not, and projects it back to WGS84
func Decode(data []byte, t tiling.Tile) (mvt.Layers, error) {
	var (
		layers mvt.Layers
		err    error
	)
	if bytes.HasPrefix(data, gzipMagic) {
		layers, err = mvt.UnmarshalGzipped(data)
	} else {
		layers, err = mvt.Unmarshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode tile %s: %w", t, err)
	}
	layers.ProjectToWGS84(t.MapTile())
	return layers, nil
}
