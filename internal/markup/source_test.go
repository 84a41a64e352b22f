package markup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.osm")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestReadXMLMatchesSnippetReader(t *testing.T) {
	want := Extract(sampleMap)

	got, err := ReadXML(context.Background(), strings.NewReader(sampleMap))
	if err != nil {
		t.Fatalf("ReadXML() error = %v", err)
	}

	// Attribute formatting differs between readers, entities must not
	ignore := cmpopts.IgnoreFields(RawEntity{}, "Attrs")
	if diff := cmp.Diff(want, got, ignore, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("readers disagree (-snippet +xml):\n%s", diff)
	}
}

func TestReadXMLMalformed(t *testing.T) {
	_, err := ReadXML(context.Background(), strings.NewReader(`<osm><node id="1"><tag k="a" v="b"></osm>`))
	if err == nil {
		t.Error("ReadXML() expected error for malformed input")
	}
}

func TestReadFile(t *testing.T) {
	path := writeTemp(t, sampleMap)

	for _, reader := range []Reader{ReaderSnippet, ReaderXML} {
		t.Run(string(reader), func(t *testing.T) {
			doc, err := ReadFile(context.Background(), path, reader)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if doc.Count() != 5 {
				t.Errorf("Count() = %d, want 5", doc.Count())
			}
		})
	}
}

func TestReadFileEmpty(t *testing.T) {
	path := writeTemp(t, "")

	doc, err := ReadFile(context.Background(), path, ReaderSnippet)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if doc.Count() != 0 {
		t.Errorf("Count() = %d, want 0", doc.Count())
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.osm"), ReaderSnippet)
	if err == nil {
		t.Error("ReadFile() expected error for missing file")
	}
}

func TestParseReader(t *testing.T) {
	tests := []struct {
		in      string
		want    Reader
		wantErr bool
	}{
		{"", ReaderSnippet, false},
		{"snippet", ReaderSnippet, false},
		{"xml", ReaderXML, false},
		{"pbf", "", true},
	}

	for _, tt := range tests {
		got, err := ParseReader(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseReader(%q) = (%q, %v), want (%q, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
