package tiling

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

// Index is a per-zoom grid mapping tile cells to the features whose
// buffered bound touches them
type Index struct {
	MinZoom, MaxZoom int
	features         []*feature.Feature
	cells            []map[Tile][]int
}

// NewIndex builds the grid for features over [minZoom, maxZoom]. Each bound
// is padded by buffer/extent of a tile on every side before bucketing.
func NewIndex(features []*feature.Feature, minZoom, maxZoom, buffer, extent int) *Index {
	idx := &Index{
		MinZoom:  minZoom,
		MaxZoom:  maxZoom,
		features: features,
	}
	if maxZoom < minZoom {
		return idx
	}

	pad := 0.0
	if extent > 0 {
		pad = float64(buffer) / float64(extent)
	}

	bounds := make([]orb.Bound, len(features))
	for i, f := range features {
		bounds[i] = f.Geometry.Bound()
	}

	idx.cells = make([]map[Tile][]int, maxZoom-minZoom+1)
	for z := minZoom; z <= maxZoom; z++ {
		grid := make(map[Tile][]int)
		for i, b := range bounds {
			minFX, minFY := fractional(b.Min.Lon(), b.Max.Lat(), z)
			maxFX, maxFY := fractional(b.Max.Lon(), b.Min.Lat(), z)

			x0, x1 := clampIndex(minFX-pad, z), clampIndex(maxFX+pad, z)
			y0, y1 := clampIndex(minFY-pad, z), clampIndex(maxFY+pad, z)
			for x := x0; x <= x1; x++ {
				for y := y0; y <= y1; y++ {
					t := Tile{Z: z, X: x, Y: y}
					grid[t] = append(grid[t], i)
				}
			}
		}
		idx.cells[z-minZoom] = grid
	}
	return idx
}

// Features returns the candidate features for a tile in collection order
func (idx *Index) Features(t Tile) []*feature.Feature {
	if t.Z < idx.MinZoom || t.Z > idx.MaxZoom || idx.cells == nil {
		return nil
	}
	ids := idx.cells[t.Z-idx.MinZoom][t]
	if len(ids) == 0 {
		return nil
	}
	out := make([]*feature.Feature, len(ids))
	for i, id := range ids {
		out[i] = idx.features[id]
	}
	return out
}

// Cells returns the non-empty cells at zoom z inside r, sorted by x then y
func (idx *Index) Cells(r TileRange) []Tile {
	if r.Z < idx.MinZoom || r.Z > idx.MaxZoom || idx.cells == nil {
		return nil
	}
	var tiles []Tile
	for t := range idx.cells[r.Z-idx.MinZoom] {
		if r.Contains(t) {
			tiles = append(tiles, t)
		}
	}
	SortTiles(tiles)
	return tiles
}

// SortTiles orders tiles by zoom, then x, then y
func SortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Z != tiles[j].Z {
			return tiles[i].Z < tiles[j].Z
		}
		if tiles[i].X != tiles[j].X {
			return tiles[i].X < tiles[j].X
		}
		return tiles[i].Y < tiles[j].Y
	})
}
