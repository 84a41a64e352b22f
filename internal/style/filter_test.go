package style

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

const styleYAML = `
line_strings:
  include:
    type: [line_thin, line_thick]
  exclude:
    subtype: [dashed]
  properties: [type, subtype]
polygons:
  require_any: [subtype]
`

func lineFeature(id string, tags map[string]string) *feature.Feature {
	props := feature.NewProperties(len(tags) + 1)
	props.Set("id", feature.StringValue(id))
	for _, k := range []string{"type", "subtype", "color"} {
		if v, ok := tags[k]; ok {
			props.Set(k, feature.StringValue(v))
		}
	}
	return &feature.Feature{ID: id, Geometry: feature.LineString{{0, 0}, {1, 1}}, Properties: props}
}

func TestFilterMatch(t *testing.T) {
	cfg, err := ParseConfig([]byte(styleYAML))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	f := cfg.FilterFor(feature.LineStringKind)

	tests := []struct {
		name string
		tags map[string]string
		want bool
	}{
		{"included type", map[string]string{"type": "line_thin", "subtype": "solid"}, true},
		{"other type", map[string]string{"type": "curbstone"}, false},
		{"excluded subtype", map[string]string{"type": "line_thin", "subtype": "dashed"}, false},
		{"no tags", map[string]string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Match(tt.tags); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestFilterRequireAny(t *testing.T) {
	cfg, err := ParseConfig([]byte(styleYAML))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	f := cfg.FilterFor(feature.PolygonKind)

	if f.Match(map[string]string{"type": "lanelet"}) {
		t.Error("polygon without subtype should not match")
	}
	if !f.Match(map[string]string{"subtype": "road"}) {
		t.Error("polygon with subtype should match")
	}
}

func TestFilterApply(t *testing.T) {
	cfg, err := ParseConfig([]byte(styleYAML))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	c := feature.NewCollection(feature.LineStringKind, []*feature.Feature{
		lineFeature("1", map[string]string{"type": "line_thin", "subtype": "solid", "color": "white"}),
		lineFeature("2", map[string]string{"type": "curbstone"}),
	})

	out := cfg.FilterFor(feature.LineStringKind).Apply(c)
	if out.Len() != 1 || c.Len() != 2 {
		t.Fatalf("Len() = %d (source %d), want 1 (source 2)", out.Len(), c.Len())
	}

	kept, _ := out.Get("1")
	if diff := cmp.Diff([]string{"id", "type", "subtype"}, kept.Properties.Keys()); diff != "" {
		t.Errorf("kept properties mismatch (-want +got):\n%s", diff)
	}

	orig, _ := c.Get("1")
	if orig.Properties.Len() != 4 {
		t.Errorf("source feature modified: %v", orig.Properties.Keys())
	}
}

func TestNoFilterReturnsInput(t *testing.T) {
	var cfg *Config
	c := feature.NewCollection(feature.PointKind, nil)
	if got := cfg.FilterFor(feature.PointKind).Apply(c); got != c {
		t.Error("empty filter should return the input collection")
	}
}
