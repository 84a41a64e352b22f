package tiling

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Tile represents a map tile at a specific zoom level
type Tile struct {
	Z int // Zoom level
	X int // X coordinate (column)
	Y int // Y coordinate (row)
}

// String returns the tile in z/x/y format
func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// ParseTile parses a tile in z/x/y format; a trailing file extension is ignored
func ParseTile(s string) (Tile, error) {
	s = strings.TrimSuffix(s, filepath.Ext(s))
	parts := strings.Split(s, "/")
	if len(parts) < 3 {
		return Tile{}, fmt.Errorf("tile must be z/x/y: %q", s)
	}
	parts = parts[len(parts)-3:]

	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Tile{}, fmt.Errorf("invalid tile component %q in %q", p, s)
		}
		v[i] = n
	}
	t := Tile{Z: v[0], X: v[1], Y: v[2]}
	if t.Z > 30 || t.X >= 1<<t.Z || t.Y >= 1<<t.Z {
		return Tile{}, fmt.Errorf("tile %s out of range", t)
	}
	return t, nil
}

// MapTile converts to the orb tile type used for projection
func (t Tile) MapTile() maptile.Tile {
	return maptile.New(uint32(t.X), uint32(t.Y), maptile.Zoom(t.Z))
}

// Bound returns the tile's geographic extent
func (t Tile) Bound() orb.Bound {
	return t.MapTile().Bound()
}

// Web Mercator constants
const (
	// Maximum latitude for Web Mercator (approximately 85.051129°)
	MaxMercatorLat = 85.0511287798
	// Minimum latitude for Web Mercator
	MinMercatorLat = -85.0511287798
)

// fractional returns the unfloored tile coordinates of a position
func fractional(lng, lat float64, zoom int) (fx, fy float64) {
	if lat > MaxMercatorLat {
		lat = MaxMercatorLat
	}
	if lat < MinMercatorLat {
		lat = MinMercatorLat
	}
	if lng < -180 {
		lng = -180
	}
	if lng > 180 {
		lng = 180
	}

	n := float64(uint64(1) << uint(zoom))
	latRad := lat * math.Pi / 180.0
	fx = (lng + 180.0) / 360.0 * n
	fy = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n
	return fx, fy
}

// clampIndex floors f into [0, 2^zoom-1]
func clampIndex(f float64, zoom int) int {
	last := (1 << uint(zoom)) - 1
	i := int(math.Floor(f))
	if i < 0 {
		return 0
	}
	if i > last {
		return last
	}
	return i
}

// LngLatToTile converts a position to tile coordinates at a given zoom level
// using the standard Web Mercator tile scheme
func LngLatToTile(lng, lat float64, zoom int) Tile {
	fx, fy := fractional(lng, lat, zoom)
	return Tile{Z: zoom, X: clampIndex(fx, zoom), Y: clampIndex(fy, zoom)}
}

// TileRange represents a range of tiles at a specific zoom level
type TileRange struct {
	Z          int
	MinX, MaxX int
	MinY, MaxY int
}

// BBoxToTileRange converts a bounding box to a range of tiles at a given zoom level
func BBoxToTileRange(b orb.Bound, zoom int) TileRange {
	// Y increases southward: the northern edge gives MinY
	topLeft := LngLatToTile(b.Min.Lon(), b.Max.Lat(), zoom)
	bottomRight := LngLatToTile(b.Max.Lon(), b.Min.Lat(), zoom)

	return TileRange{
		Z:    zoom,
		MinX: topLeft.X,
		MaxX: bottomRight.X,
		MinY: topLeft.Y,
		MaxY: bottomRight.Y,
	}
}

// Ranges returns one tile range per zoom level in [minZoom, maxZoom]
func Ranges(b orb.Bound, minZoom, maxZoom int) []TileRange {
	if maxZoom < minZoom {
		return nil
	}
	ranges := make([]TileRange, 0, maxZoom-minZoom+1)
	for z := minZoom; z <= maxZoom; z++ {
		ranges = append(ranges, BBoxToTileRange(b, z))
	}
	return ranges
}

// TileCount returns the number of tiles in the range
func (r TileRange) TileCount() int {
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// Contains reports whether the tile lies in the range
func (r TileRange) Contains(t Tile) bool {
	return t.Z == r.Z && t.X >= r.MinX && t.X <= r.MaxX && t.Y >= r.MinY && t.Y <= r.MaxY
}

// Tiles returns all tiles in the range
func (r TileRange) Tiles() []Tile {
	tiles := make([]Tile, 0, r.TileCount())
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			tiles = append(tiles, Tile{Z: r.Z, X: x, Y: y})
		}
	}
	return tiles
}
