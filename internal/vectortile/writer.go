package vectortile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/wegman-software/lanelet2tiles/internal/tiling"
)

// ManifestFile is the per-layer summary written after all tiles
const ManifestFile = "info.json"

// Writer persists tiles as {root}/{z}/{x}/{y}.{ext}
type Writer struct {
	Root string
	Ext  string
}

// NewWriter creates a writer; an empty ext defaults to pbf
func NewWriter(root, ext string) *Writer {
	if ext == "" {
		ext = "pbf"
	}
	return &Writer{Root: root, Ext: ext}
}

// Path returns the file path of a tile
func (w *Writer) Path(t tiling.Tile) string {
	return filepath.Join(w.Root, strconv.Itoa(t.Z), strconv.Itoa(t.X), strconv.Itoa(t.Y)+"."+w.Ext)
}

// Write stores one encoded tile, creating the {z}/{x} directory as needed
func (w *Writer) Write(t tiling.Tile, data []byte) error {
	path := w.Path(t)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create tile directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write tile %s: %w", t, err)
	}
	return nil
}

// Manifest summarizes a generated layer
type Manifest struct {
	MinZoom     int        `json:"minZoom"`
	MaxZoom     int        `json:"maxZoom"`
	Bounds      [4]float64 `json:"bounds"`
	SourceLayer string     `json:"source-layer"`
}

// NewManifest builds a manifest with bounds [minLng, minLat, maxLng, maxLat]
func NewManifest(layer string, minZoom, maxZoom int, b orb.Bound) Manifest {
	return Manifest{
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		Bounds:      [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
		SourceLayer: layer,
	}
}

// WriteManifest writes info.json under the writer root, indented by two spaces
func (w *Writer) WriteManifest(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.Root, ManifestFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads info.json from a layer directory
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}
