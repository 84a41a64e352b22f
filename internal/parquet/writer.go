package parquet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/wkb"
)

// DefaultBatchSize is the number of rows buffered before a record is flushed
const DefaultBatchSize = 10000

// Files maps each collection kind to its Parquet file name
var Files = map[feature.Kind]string{
	feature.PointKind:      "points.parquet",
	feature.LineStringKind: "lines.parquet",
	feature.PolygonKind:    "polygons.parquet",
}

// Schema is the column layout shared by every feature file
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "feature_id", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "kind", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "tags", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "geom_wkb", Type: arrow.BinaryTypes.Binary, Nullable: false},
}, nil)

// TagsToJSON encodes properties other than id as a JSON object
func TagsToJSON(p *feature.Properties) (string, error) {
	m := make(map[string]interface{}, p.Len())
	p.Each(func(k string, v feature.Value) {
		if k != "id" {
			m[k] = v.Interface()
		}
	})
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FeatureWriter writes features with WKB geometry to Parquet
type FeatureWriter struct {
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	encoder   *wkb.Encoder
	batchSize int
	count     int
	total     int
}

// NewFeatureWriter creates a zstd-compressed feature writer
func NewFeatureWriter(path string, batchSize int) (*FeatureWriter, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(false),
	)

	writer, err := pqarrow.NewFileWriter(Schema, f, writerProps, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	return &FeatureWriter{
		file:      f,
		writer:    writer,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, Schema),
		encoder:   wkb.NewEncoder(256),
		batchSize: batchSize,
	}, nil
}

// Write appends one feature
func (w *FeatureWriter) Write(kind feature.Kind, f *feature.Feature) error {
	geom, err := w.encoder.Encode(f.Geometry)
	if err != nil {
		return fmt.Errorf("feature %s: %w", f.ID, err)
	}
	tags, err := TagsToJSON(f.Properties)
	if err != nil {
		return fmt.Errorf("feature %s tags: %w", f.ID, err)
	}

	w.builder.Field(0).(*array.StringBuilder).Append(f.ID)
	w.builder.Field(1).(*array.StringBuilder).Append(string(kind))
	w.builder.Field(2).(*array.StringBuilder).Append(tags)
	// the binary builder copies, so the encoder buffer can be reused
	w.builder.Field(3).(*array.BinaryBuilder).Append(geom)

	w.count++
	w.total++
	if w.count >= w.batchSize {
		return w.flush()
	}
	return nil
}

// Count returns the number of rows written so far
func (w *FeatureWriter) Count() int {
	return w.total
}

func (w *FeatureWriter) flush() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

// Close flushes pending rows and closes the file
func (w *FeatureWriter) Close() error {
	defer w.builder.Release()
	if err := w.flush(); err != nil {
		w.writer.Close()
		w.file.Close()
		return err
	}
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return err
	}
	// the parquet writer may already have closed the file
	if err := w.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// WriteCollection writes a collection to dir under its kind's file name
func WriteCollection(dir string, c *feature.Collection, batchSize int) (string, error) {
	path := filepath.Join(dir, Files[c.Kind()])
	w, err := NewFeatureWriter(path, batchSize)
	if err != nil {
		return "", err
	}
	for _, f := range c.Features() {
		if err := w.Write(c.Kind(), f); err != nil {
			w.Close()
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
