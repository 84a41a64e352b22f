package feature

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestValue(t *testing.T) {
	s := StringValue("road")
	if got, ok := s.Str(); !ok || got != "road" {
		t.Errorf("Str() = (%q, %v), want (road, true)", got, ok)
	}
	if _, ok := s.Num(); ok {
		t.Error("string value reported a number")
	}

	n := NumberValue(12.5)
	if got, ok := n.Num(); !ok || got != 12.5 {
		t.Errorf("Num() = (%f, %v), want (12.5, true)", got, ok)
	}
	if n.String() != "12.5" {
		t.Errorf("String() = %q, want 12.5", n.String())
	}

	b, err := json.Marshal(map[string]Value{"a": s, "b": n})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `{"a":"road","b":12.5}` {
		t.Errorf("Marshal() = %s", b)
	}
}

func TestPropertiesOrder(t *testing.T) {
	p := NewProperties(3)
	p.Set("id", StringValue("1"))
	p.Set("type", StringValue("a"))
	p.Set("ele", NumberValue(3))
	p.Set("type", StringValue("b"))

	if diff := cmp.Diff([]string{"id", "type", "ele"}, p.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if v, _ := p.Get("type"); v.String() != "b" {
		t.Errorf("Get(type) = %q, want b", v.String())
	}

	p.Delete("type")
	if diff := cmp.Diff([]string{"id", "ele"}, p.Keys()); diff != "" {
		t.Errorf("Keys() after Delete mismatch (-want +got):\n%s", diff)
	}

	want := map[string]interface{}{"id": "1", "ele": 3.0}
	if diff := cmp.Diff(want, p.Map()); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectionLookup(t *testing.T) {
	features := []*Feature{
		{ID: "1", Geometry: Point{121, 24}, Properties: NewProperties(0)},
		{ID: "2", Geometry: Point{122, 25}, Properties: NewProperties(0)},
		{ID: "1", Geometry: Point{0, 0}, Properties: NewProperties(0)},
	}
	c := NewCollection(PointKind, features)

	f, ok := c.Get("1")
	if !ok || f.Geometry.(Point) != (Point{121, 24}) {
		t.Errorf("Get(1) = %v, want first feature with id 1", f)
	}
	if _, ok := c.Get("3"); ok {
		t.Error("Get(3) should miss")
	}

	b, ok := c.Bound()
	if !ok {
		t.Fatal("Bound() reported empty")
	}
	want := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{122, 25}}
	if b != want {
		t.Errorf("Bound() = %v, want %v", b, want)
	}
}

func TestCollectionEmptyBound(t *testing.T) {
	c := NewCollection(PolygonKind, nil)
	if _, ok := c.Bound(); ok {
		t.Error("Bound() of empty collection should report false")
	}
}

func TestCollectionFilter(t *testing.T) {
	c := NewCollection(LineStringKind, []*Feature{
		{ID: "a", Geometry: LineString{{0, 0}, {1, 1}}},
		{ID: "b", Geometry: LineString{{1, 1}, {2, 2}}},
	})

	filtered := c.Filter(func(f *Feature) (*Feature, bool) {
		return f, f.ID == "b"
	})

	if filtered.Len() != 1 || c.Len() != 2 {
		t.Fatalf("Len() = %d (source %d), want 1 (source 2)", filtered.Len(), c.Len())
	}
	if _, ok := filtered.Get("b"); !ok {
		t.Error("filtered collection should index b")
	}
}

func TestGeoJSONRoundTrip(t *testing.T) {
	props := NewProperties(2)
	props.Set("id", StringValue("7"))
	props.Set("ele", NumberValue(1.5))
	f := &Feature{
		ID:         "7",
		Geometry:   Polygon{{0, 0}, {1, 0}, {1, 1}, {0, 0}},
		Properties: props,
	}

	data, err := json.Marshal(f.GeoJSON())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	gf, err := geojson.UnmarshalFeature(data)
	if err != nil {
		t.Fatalf("UnmarshalFeature() error = %v", err)
	}

	got, err := FromGeoJSON(gf)
	if err != nil {
		t.Fatalf("FromGeoJSON() error = %v", err)
	}
	if got.ID != "7" {
		t.Errorf("ID = %q, want 7", got.ID)
	}
	if diff := cmp.Diff(f.Geometry, got.Geometry); diff != "" {
		t.Errorf("geometry mismatch (-want +got):\n%s", diff)
	}
	if v, ok := got.Properties.Get("ele"); !ok || v.Kind() != KindNumber {
		t.Errorf("ele = %v, want a number", v)
	}
}

func TestFromOrbRejectsHoles(t *testing.T) {
	_, err := FromOrb(orb.Polygon{{{0, 0}, {1, 0}, {0, 0}}, {{0, 0}, {1, 0}, {0, 0}}})
	if err == nil {
		t.Error("FromOrb() expected error for polygon with holes")
	}
	if _, err := FromOrb(orb.MultiPoint{{0, 0}}); err == nil {
		t.Error("FromOrb() expected error for multipoint")
	}
}

func TestCollectionFromGeoJSONKindMismatch(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{1, 2}))

	if _, err := CollectionFromGeoJSON(LineStringKind, fc); err == nil {
		t.Error("CollectionFromGeoJSON() expected error for point in line collection")
	}
	c, err := CollectionFromGeoJSON(PointKind, fc)
	if err != nil || c.Len() != 1 {
		t.Errorf("CollectionFromGeoJSON() = (%v, %v), want one point", c, err)
	}
}
