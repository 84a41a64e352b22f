package markup_test

import (
	"context"
	"strings"
	"testing"

	"github.com/wegman-software/lanelet2tiles/internal/assemble"
	"github.com/wegman-software/lanelet2tiles/internal/markup"
)

func identity(x, y float64) (float64, float64) { return x, y }

func TestReadersAgreeOnNodeWithoutCoordinates(t *testing.T) {
	const input = `<osm version="0.6"><node id="1" version="1"><tag k="type" v="x"/></node></osm>`

	snippet := markup.Extract(input)
	xml, err := markup.ReadXML(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadXML() error = %v", err)
	}

	for name, doc := range map[string]*markup.Document{"snippet": snippet, "xml": xml} {
		t.Run(name, func(t *testing.T) {
			if len(doc.Nodes) != 1 {
				t.Fatalf("got %d nodes, want 1", len(doc.Nodes))
			}
			for _, key := range []string{"lat", "lon"} {
				if v, ok := doc.Nodes[0].Attrs[key]; ok {
					t.Errorf("Attrs[%q] = %q, want absent", key, v)
				}
			}

			res := assemble.New(identity).Assemble(doc)
			if res.Points.Len() != 0 || res.Stats.DroppedNodes != 1 {
				t.Errorf("points = %d, dropped = %d, want 0 and 1", res.Points.Len(), res.Stats.DroppedNodes)
			}
		})
	}
}
