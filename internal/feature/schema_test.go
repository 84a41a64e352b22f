package feature

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSchemaExportCutoff(t *testing.T) {
	s := NewSchema()
	for i := 0; i < 21; i++ {
		s.Record(PointKind, "ele", fmt.Sprintf("%d", i))
	}
	for i := 0; i < 20; i++ {
		s.Record(PointKind, "local_x", fmt.Sprintf("%d", i))
	}
	s.Record(LineStringKind, "type", "line_thin")
	s.Record(LineStringKind, "type", "line_thin")
	s.Record(LineStringKind, "type", "curbstone")

	got := s.Export(DefaultSchemaLimit)

	if got[PointKind]["ele"] != ArrayAny {
		t.Errorf("ele = %v, want %q", got[PointKind]["ele"], ArrayAny)
	}
	if values, ok := got[PointKind]["local_x"].([]string); !ok || len(values) != 20 {
		t.Errorf("local_x = %v, want 20 values", got[PointKind]["local_x"])
	}
	if diff := cmp.Diff([]string{"line_thin", "curbstone"}, got[LineStringKind]["type"]); diff != "" {
		t.Errorf("type mismatch (-want +got):\n%s", diff)
	}
	if polygons, ok := got[PolygonKind]; !ok || len(polygons) != 0 {
		t.Errorf("PolygonFeature = %v, want present and empty", polygons)
	}
}

func TestSchemaMerge(t *testing.T) {
	a := NewSchema()
	a.Record(PolygonKind, "subtype", "road")

	b := NewSchema()
	b.Record(PolygonKind, "subtype", "crosswalk")
	b.Record(PolygonKind, "subtype", "road")
	b.Record(PolygonKind, "location", "urban")

	a.Merge(b)
	a.Merge(nil)

	if diff := cmp.Diff([]string{"subtype", "location"}, a.Keys(PolygonKind)); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"road", "crosswalk"}, a.Values(PolygonKind, "subtype")); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
}
