package loader

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/parquet"
)

func TestTablesCoverEveryKind(t *testing.T) {
	for _, kind := range feature.Kinds {
		if Tables[kind] == "" {
			t.Errorf("no table for %s", kind)
		}
		if parquet.Files[kind] == "" {
			t.Errorf("no parquet file for %s", kind)
		}
	}
}

func TestRowSource(t *testing.T) {
	rows := []parquet.Row{
		{FeatureID: "1", Kind: "PointFeature", Tags: `{"ele":3}`, WKB: []byte{1, 2}},
		{FeatureID: "2", Kind: "PointFeature", Tags: `{}`, WKB: []byte{3}},
	}
	src := newRowSource(rows)

	var got [][]interface{}
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			t.Fatalf("Values() error = %v", err)
		}
		got = append(got, v)
	}
	if err := src.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}

	want := [][]interface{}{
		{"1", "PointFeature", `{"ele":3}`, []byte{1, 2}},
		{"2", "PointFeature", `{}`, []byte{3}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSQL(t *testing.T) {
	name := `"public"."lanelet_lines"`

	if ddl := CreateTableSQL(name); !strings.Contains(ddl, "GEOMETRY(Geometry, 4326)") || !strings.Contains(ddl, name) {
		t.Errorf("CreateTableSQL() = %s", ddl)
	}
	if ins := InsertSQL(name); !strings.Contains(ins, "ST_GeomFromEWKB(geom_wkb)") {
		t.Errorf("InsertSQL() = %s", ins)
	}

	stmts := IndexSQL(name, "lanelet_lines")
	if len(stmts) != 3 {
		t.Fatalf("IndexSQL() returned %d statements, want 3", len(stmts))
	}
	if !strings.Contains(stmts[0], "lanelet_lines_geom_idx") || !strings.Contains(stmts[0], "GIST") {
		t.Errorf("geometry index = %s", stmts[0])
	}
	if !strings.Contains(stmts[1], "(feature_id)") {
		t.Errorf("id index = %s", stmts[1])
	}
}
