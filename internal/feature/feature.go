package feature

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Kind identifies a feature collection; the names match the exported schema keys
type Kind string

const (
	PointKind      Kind = "PointFeature"
	LineStringKind Kind = "LineStringFeature"
	PolygonKind    Kind = "PolygonFeature"
)

// Kinds lists every collection kind in pipeline order
var Kinds = []Kind{PointKind, LineStringKind, PolygonKind}

// GeometryType returns the geometry variant a kind holds
func (k Kind) GeometryType() GeometryType {
	switch k {
	case LineStringKind:
		return TypeLineString
	case PolygonKind:
		return TypePolygon
	default:
		return TypePoint
	}
}

// Feature is an immutable geometry with an id and properties
type Feature struct {
	ID         string
	Geometry   Geometry
	Properties *Properties
}

// GeoJSON converts the feature for export; the geometry is shared, not copied
func (f *Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry.Orb())
	gf.ID = f.ID
	gf.Properties = f.Properties.Map()
	return gf
}

// FromGeoJSON converts a decoded GeoJSON feature.
// The id falls back to the "id" property when the feature has none.
func FromGeoJSON(gf *geojson.Feature) (*Feature, error) {
	g, err := FromOrb(gf.Geometry)
	if err != nil {
		return nil, err
	}

	props := PropertiesFromMap(gf.Properties)
	id := ""
	switch v := gf.ID.(type) {
	case string:
		id = v
	case float64:
		id = NumberValue(v).String()
	}
	if id == "" {
		if v, ok := props.Get("id"); ok {
			id = v.String()
		}
	}

	return &Feature{ID: id, Geometry: g, Properties: props}, nil
}

// Collection is a frozen, ordered set of features of one kind with an id index
type Collection struct {
	kind     Kind
	features []*Feature
	index    map[string]int
}

// NewCollection indexes features by id; the first feature wins on duplicate ids
func NewCollection(kind Kind, features []*Feature) *Collection {
	index := make(map[string]int, len(features))
	for i, f := range features {
		if _, exists := index[f.ID]; !exists {
			index[f.ID] = i
		}
	}
	return &Collection{kind: kind, features: features, index: index}
}

// Kind returns the collection kind
func (c *Collection) Kind() Kind {
	return c.kind
}

// Len returns the number of features
func (c *Collection) Len() int {
	return len(c.features)
}

// Features returns the features in order. Callers must not modify the slice.
func (c *Collection) Features() []*Feature {
	return c.features
}

// Get looks up a feature by id
func (c *Collection) Get(id string) (*Feature, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.features[i], true
}

// Bound returns the bounding box of every coordinate; false when empty
func (c *Collection) Bound() (orb.Bound, bool) {
	if len(c.features) == 0 {
		return orb.Bound{}, false
	}
	b := c.features[0].Geometry.Bound()
	for _, f := range c.features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b, true
}

// Filter returns a new collection with fn applied to every feature.
// fn returns the feature to keep (possibly replaced) and whether to keep it.
func (c *Collection) Filter(fn func(*Feature) (*Feature, bool)) *Collection {
	out := make([]*Feature, 0, len(c.features))
	for _, f := range c.features {
		if nf, keep := fn(f); keep {
			out = append(out, nf)
		}
	}
	return NewCollection(c.kind, out)
}

// FeatureCollection converts the collection to GeoJSON
func (c *Collection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range c.features {
		fc.Append(f.GeoJSON())
	}
	return fc
}

// CollectionFromGeoJSON converts a decoded collection, rejecting features of the wrong geometry
func CollectionFromGeoJSON(kind Kind, fc *geojson.FeatureCollection) (*Collection, error) {
	features := make([]*Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		f, err := FromGeoJSON(gf)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if f.Geometry.Type() != kind.GeometryType() {
			return nil, fmt.Errorf("feature %d: got %s, want %s", i, f.Geometry.Type(), kind.GeometryType())
		}
		features = append(features, f)
	}
	return NewCollection(kind, features), nil
}
