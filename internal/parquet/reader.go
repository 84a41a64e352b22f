package parquet

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

// Row is one decoded feature record
type Row struct {
	FeatureID string
	Kind      string
	Tags      string
	WKB       []byte
}

// ReadFile reads every row of a feature file
func ReadFile(ctx context.Context, path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pf.Close()

	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer tbl.Release()

	if tbl.NumCols() != int64(len(Schema.Fields())) {
		return nil, fmt.Errorf("unexpected column count %d in %s", tbl.NumCols(), path)
	}

	rows := make([]Row, 0, tbl.NumRows())
	idCol := tbl.Column(0).Data()
	kindCol := tbl.Column(1).Data()
	tagsCol := tbl.Column(2).Data()
	geomCol := tbl.Column(3).Data()

	for c := 0; c < len(idCol.Chunks()); c++ {
		ids, ok1 := idCol.Chunk(c).(*array.String)
		kinds, ok2 := kindCol.Chunk(c).(*array.String)
		tags, ok3 := tagsCol.Chunk(c).(*array.String)
		geoms, ok4 := geomCol.Chunk(c).(*array.Binary)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, fmt.Errorf("unexpected column types in %s", path)
		}

		for i := 0; i < ids.Len(); i++ {
			g := geoms.Value(i)
			rows = append(rows, Row{
				FeatureID: ids.Value(i),
				Kind:      kinds.Value(i),
				Tags:      tags.Value(i),
				WKB:       append([]byte(nil), g...),
			})
		}
	}
	return rows, nil
}
