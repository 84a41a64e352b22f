package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

// Output file names under the export root
const (
	SchemaFile = "schema.json"
)

// GeoJSONFiles maps each collection kind to its GeoJSON file name
var GeoJSONFiles = map[feature.Kind]string{
	feature.PointKind:      "points.geojson",
	feature.LineStringKind: "lineStrings.geojson",
	feature.PolygonKind:    "polygons.geojson",
}

// RebuildDir removes dir and everything under it, then recreates it empty
func RebuildDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// WriteGeoJSON writes the collection as a compact FeatureCollection
func WriteGeoJSON(dir string, c *feature.Collection) (string, error) {
	path := filepath.Join(dir, GeoJSONFiles[c.Kind()])
	data, err := c.FeatureCollection().MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", c.Kind(), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ReadGeoJSON loads a collection of the given kind from its file under dir
func ReadGeoJSON(dir string, kind feature.Kind) (*feature.Collection, error) {
	path := filepath.Join(dir, GeoJSONFiles[kind])
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c, err := feature.CollectionFromGeoJSON(kind, fc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteSchema writes schema.json with two-space indentation
func WriteSchema(dir string, s *feature.Schema, limit int) (string, error) {
	path := filepath.Join(dir, SchemaFile)
	data, err := json.MarshalIndent(s.Export(limit), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode schema: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Collections holds the three exported layers
type Collections struct {
	Points   *feature.Collection
	Lines    *feature.Collection
	Polygons *feature.Collection
}

// All returns the collections in pipeline order
func (c Collections) All() []*feature.Collection {
	return []*feature.Collection{c.Points, c.Lines, c.Polygons}
}

// WriteAll rebuilds dir and writes the GeoJSON files and the schema
func WriteAll(dir string, cols Collections, s *feature.Schema, limit int) ([]string, error) {
	if err := RebuildDir(dir); err != nil {
		return nil, err
	}

	var written []string
	for _, c := range cols.All() {
		path, err := WriteGeoJSON(dir, c)
		if err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	path, err := WriteSchema(dir, s, limit)
	if err != nil {
		return nil, err
	}
	return append(written, path), nil
}

// ReadAll loads the three GeoJSON files from dir
func ReadAll(dir string) (Collections, error) {
	var cols Collections
	var err error
	if cols.Points, err = ReadGeoJSON(dir, feature.PointKind); err != nil {
		return cols, err
	}
	if cols.Lines, err = ReadGeoJSON(dir, feature.LineStringKind); err != nil {
		return cols, err
	}
	if cols.Polygons, err = ReadGeoJSON(dir, feature.PolygonKind); err != nil {
		return cols, err
	}
	return cols, nil
}
