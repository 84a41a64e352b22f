package assemble

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
	"github.com/wegman-software/lanelet2tiles/internal/logger"
	"github.com/wegman-software/lanelet2tiles/internal/markup"
	"github.com/wegman-software/lanelet2tiles/internal/proj"
)

// Lanelet2 tag and role names
const (
	tagLocalX = "local_x"
	tagLocalY = "local_y"
	tagEle    = "ele"

	roleLeft       = "left"
	roleRight      = "right"
	roleCenterline = "centerline"
)

// Stage is the output of one assembly stage
type Stage struct {
	Collection *feature.Collection
	Schema     *feature.Schema
	Dropped    int
}

// Stats holds per-stage counts
type Stats struct {
	Points           int
	Lines            int
	Polygons         int
	DroppedNodes     int
	DroppedWays      int
	DroppedRelations int
}

// Result holds the three frozen collections and the merged schema
type Result struct {
	Points   *feature.Collection
	Lines    *feature.Collection
	Polygons *feature.Collection
	Schema   *feature.Schema
	Stats    Stats
}

// Assembler builds features from raw entities
type Assembler struct {
	reproject proj.Reprojector
	log       *zap.Logger
}

// New creates an assembler. reproject receives offset planar coordinates.
func New(reproject proj.Reprojector) *Assembler {
	return &Assembler{
		reproject: reproject,
		log:       logger.Named("assemble"),
	}
}

// Assemble runs the point, line and polygon stages in order
func (a *Assembler) Assemble(doc *markup.Document) *Result {
	points := a.BuildPoints(doc.Nodes)
	lines := a.BuildLines(doc.Ways, points.Collection)
	polygons := a.BuildPolygons(doc.Relations, lines.Collection)

	schema := feature.NewSchema()
	schema.Merge(points.Schema)
	schema.Merge(lines.Schema)
	schema.Merge(polygons.Schema)

	return &Result{
		Points:   points.Collection,
		Lines:    lines.Collection,
		Polygons: polygons.Collection,
		Schema:   schema,
		Stats: Stats{
			Points:           points.Collection.Len(),
			Lines:            lines.Collection.Len(),
			Polygons:         polygons.Collection.Len(),
			DroppedNodes:     points.Dropped,
			DroppedWays:      lines.Dropped,
			DroppedRelations: polygons.Dropped,
		},
	}
}

// BuildPoints converts nodes to points using local_x/local_y, or lat/lon attributes as a fallback
func (a *Assembler) BuildPoints(nodes []markup.RawEntity) *Stage {
	schema := feature.NewSchema()
	features := make([]*feature.Feature, 0, len(nodes))
	dropped := 0

	for i := range nodes {
		n := &nodes[i]
		p, ok := a.position(n)
		if !ok {
			dropped++
			a.log.Debug("Dropping node without usable coordinates", zap.String("id", n.ID))
			continue
		}

		props := properties(n)
		if ele, ok := props.Get(tagEle); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(ele.String()), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				props.Delete(tagEle)
			} else {
				props.Set(tagEle, feature.NumberValue(v))
			}
		}

		recordSchema(schema, feature.PointKind, n)
		features = append(features, &feature.Feature{
			ID:         n.ID,
			Geometry:   feature.Point(p),
			Properties: props,
		})
	}

	return &Stage{
		Collection: feature.NewCollection(feature.PointKind, features),
		Schema:     schema,
		Dropped:    dropped,
	}
}

// BuildLines resolves way node references through the point index.
// A way with any unresolved reference, or none at all, is dropped.
func (a *Assembler) BuildLines(ways []markup.RawEntity, points *feature.Collection) *Stage {
	schema := feature.NewSchema()
	features := make([]*feature.Feature, 0, len(ways))
	dropped := 0

	for i := range ways {
		w := &ways[i]
		line, missing := resolveLine(w.Refs, points)
		if missing != "" || len(line) == 0 {
			dropped++
			a.log.Debug("Dropping way with unresolved nodes",
				zap.String("id", w.ID),
				zap.String("missing", missing),
				zap.Int("refs", len(w.Refs)),
			)
			continue
		}

		recordSchema(schema, feature.LineStringKind, w)
		features = append(features, &feature.Feature{
			ID:         w.ID,
			Geometry:   feature.LineString(line),
			Properties: properties(w),
		})
	}

	return &Stage{
		Collection: feature.NewCollection(feature.LineStringKind, features),
		Schema:     schema,
		Dropped:    dropped,
	}
}

// BuildPolygons stitches relations with left, right and centerline members into lane polygons.
// The last member of each role wins; an unresolved member leaves its role empty.
func (a *Assembler) BuildPolygons(relations []markup.RawEntity, lines *feature.Collection) *Stage {
	schema := feature.NewSchema()
	features := make([]*feature.Feature, 0, len(relations))
	dropped := 0

	for i := range relations {
		r := &relations[i]

		var left, right, center orb.LineString
		for _, m := range r.Refs {
			var slot *orb.LineString
			switch m.Role {
			case roleLeft:
				slot = &left
			case roleRight:
				slot = &right
			case roleCenterline:
				slot = &center
			default:
				continue
			}
			*slot = lineCoordinates(lines, m.ID)
		}

		ring := Stitch(left, right, center)
		if ring == nil {
			dropped++
			a.log.Debug("Dropping incomplete relation",
				zap.String("id", r.ID),
				zap.Int("left", len(left)),
				zap.Int("right", len(right)),
				zap.Int("centerline", len(center)),
			)
			continue
		}

		recordSchema(schema, feature.PolygonKind, r)
		features = append(features, &feature.Feature{
			ID:         r.ID,
			Geometry:   feature.Polygon(ring),
			Properties: properties(r),
		})
	}

	return &Stage{
		Collection: feature.NewCollection(feature.PolygonKind, features),
		Schema:     schema,
		Dropped:    dropped,
	}
}

func (a *Assembler) position(n *markup.RawEntity) (orb.Point, bool) {
	if x, okX := parseTag(n, tagLocalX); okX {
		if y, okY := parseTag(n, tagLocalY); okY {
			lng, lat := a.reproject(x, y)
			return checked(lng, lat)
		}
	}

	lat, errLat := strconv.ParseFloat(n.Attrs["lat"], 64)
	lng, errLng := strconv.ParseFloat(n.Attrs["lon"], 64)
	if errLat != nil || errLng != nil {
		return orb.Point{}, false
	}
	// (0,0) is indistinguishable from missing coordinates in decoded XML
	if lat == 0 && lng == 0 {
		return orb.Point{}, false
	}
	return checked(lng, lat)
}

func checked(lng, lat float64) (orb.Point, bool) {
	if math.IsNaN(lng) || math.IsNaN(lat) || math.IsInf(lng, 0) || math.IsInf(lat, 0) {
		return orb.Point{}, false
	}
	return orb.Point{lng, lat}, true
}

func parseTag(e *markup.RawEntity, key string) (float64, bool) {
	s, ok := e.Tag(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// resolveLine returns the coordinates of refs, or the first id that did not resolve
func resolveLine(refs []markup.Ref, points *feature.Collection) (orb.LineString, string) {
	line := make(orb.LineString, 0, len(refs))
	for _, ref := range refs {
		f, ok := points.Get(ref.ID)
		if !ok {
			return nil, ref.ID
		}
		p, ok := f.Geometry.(feature.Point)
		if !ok {
			return nil, ref.ID
		}
		line = append(line, orb.Point(p))
	}
	return line, ""
}

func lineCoordinates(lines *feature.Collection, id string) orb.LineString {
	f, ok := lines.Get(id)
	if !ok {
		return nil
	}
	if ls, ok := f.Geometry.(feature.LineString); ok {
		return orb.LineString(ls)
	}
	return nil
}

// properties returns id followed by every tag as a string, later duplicates replacing earlier ones
func properties(e *markup.RawEntity) *feature.Properties {
	props := feature.NewProperties(len(e.Tags) + 1)
	props.Set("id", feature.StringValue(e.ID))
	for _, t := range e.Tags {
		props.Set(t.Key, feature.StringValue(t.Value))
	}
	return props
}

// recordSchema records each distinct key once with its final value
func recordSchema(schema *feature.Schema, kind feature.Kind, e *markup.RawEntity) {
	final := e.TagMap()
	seen := make(map[string]struct{}, len(final))
	for _, t := range e.Tags {
		if _, dup := seen[t.Key]; dup {
			continue
		}
		seen[t.Key] = struct{}{}
		schema.Record(kind, t.Key, final[t.Key])
	}
}
