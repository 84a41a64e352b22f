package pipeline

import (
	"time"

	"github.com/wegman-software/lanelet2tiles/internal/assemble"
	"github.com/wegman-software/lanelet2tiles/internal/vectortile"
)

// ExtractStats holds extraction statistics
type ExtractStats struct {
	Nodes     int
	Ways      int
	Relations int
	Skipped   int
}

// LayerStats holds the feature count of one exported layer
type LayerStats struct {
	Layer    string
	Features int
	Filtered int
}

// RunStats holds combined run statistics
type RunStats struct {
	Extract  ExtractStats
	Assemble assemble.Stats
	Layers   []LayerStats
	Files    []string
	Tiles    []*vectortile.Result
	Duration time.Duration
}

// TilesWritten returns the number of tiles written across all layers
func (s *RunStats) TilesWritten() int {
	n := 0
	for _, r := range s.Tiles {
		n += r.Written
	}
	return n
}
