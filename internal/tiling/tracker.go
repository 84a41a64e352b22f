package tiling

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/logger"
)

// Tracker records the tiles written for a layer
type Tracker struct {
	mu    sync.Mutex
	tiles map[Tile]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{tiles: make(map[Tile]struct{})}
}

// Add records a tile (thread-safe, deduplicated)
func (t *Tracker) Add(tile Tile) {
	t.mu.Lock()
	t.tiles[tile] = struct{}{}
	t.mu.Unlock()
}

// Count returns the number of unique tiles
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tiles)
}

// CountByZoom returns the count of tiles at each zoom level
func (t *Tracker) CountByZoom() map[int]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[int]int)
	for tile := range t.tiles {
		counts[tile.Z]++
	}
	return counts
}

// Tiles returns all recorded tiles sorted by z/x/y
func (t *Tracker) Tiles() []Tile {
	t.mu.Lock()
	tiles := make([]Tile, 0, len(t.tiles))
	for tile := range t.tiles {
		tiles = append(tiles, tile)
	}
	t.mu.Unlock()

	SortTiles(tiles)
	return tiles
}

// ZoomFields returns per-zoom counts as log fields
func (t *Tracker) ZoomFields() []zap.Field {
	counts := t.CountByZoom()
	zooms := make([]int, 0, len(counts))
	for z := range counts {
		zooms = append(zooms, z)
	}
	sort.Ints(zooms)

	fields := make([]zap.Field, 0, len(zooms))
	for _, z := range zooms {
		fields = append(fields, zap.Int(fmt.Sprintf("z%d", z), counts[z]))
	}
	return fields
}

// WriteToFile writes the recorded tiles to a file in z/x/y format
func (t *Tracker) WriteToFile(filename string) error {
	tiles := t.Tiles()

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create tile list: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, tile := range tiles {
		fmt.Fprintln(w, tile.String())
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write tile list: %w", err)
	}

	fields := append([]zap.Field{zap.String("file", filename)}, t.ZoomFields()...)
	fields = append(fields, zap.Int("total", len(tiles)))
	logger.Named("tiling").Info("Wrote tile list", fields...)
	return nil
}
