package feature

import (
	"fmt"

	"github.com/paulmach/orb"
)

// GeometryType names a geometry variant
type GeometryType string

const (
	TypePoint      GeometryType = "Point"
	TypeLineString GeometryType = "LineString"
	TypePolygon    GeometryType = "Polygon"
)

// Geometry is one of Point, LineString or Polygon.
// The unexported method keeps the set closed.
type Geometry interface {
	Type() GeometryType
	Orb() orb.Geometry
	Bound() orb.Bound
	geometry()
}

// Point is a single lng/lat position
type Point orb.Point

// LineString is an ordered sequence of positions
type LineString orb.LineString

// Polygon is a single closed exterior ring
type Polygon orb.Ring

func (Point) geometry()      {}
func (LineString) geometry() {}
func (Polygon) geometry()    {}

func (Point) Type() GeometryType      { return TypePoint }
func (LineString) Type() GeometryType { return TypeLineString }
func (Polygon) Type() GeometryType    { return TypePolygon }

func (p Point) Orb() orb.Geometry      { return orb.Point(p) }
func (l LineString) Orb() orb.Geometry { return orb.LineString(l) }
func (p Polygon) Orb() orb.Geometry    { return orb.Polygon{orb.Ring(p)} }

func (p Point) Bound() orb.Bound      { return orb.Point(p).Bound() }
func (l LineString) Bound() orb.Bound { return orb.LineString(l).Bound() }
func (p Polygon) Bound() orb.Bound    { return orb.Ring(p).Bound() }

// Coordinates returns every position of g in order
func Coordinates(g Geometry) []orb.Point {
	switch v := g.(type) {
	case Point:
		return []orb.Point{orb.Point(v)}
	case LineString:
		return []orb.Point(v)
	case Polygon:
		return []orb.Point(v)
	}
	return nil
}

// FromOrb converts an orb geometry back into the closed variant.
// Polygons must have exactly one ring.
func FromOrb(g orb.Geometry) (Geometry, error) {
	switch v := g.(type) {
	case orb.Point:
		return Point(v), nil
	case orb.LineString:
		return LineString(v), nil
	case orb.Polygon:
		if len(v) != 1 {
			return nil, fmt.Errorf("polygon with %d rings not supported", len(v))
		}
		return Polygon(v[0]), nil
	case orb.Ring:
		return Polygon(v), nil
	case nil:
		return nil, fmt.Errorf("missing geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}
