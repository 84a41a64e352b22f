package tiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

func TestLngLatToTile(t *testing.T) {
	tests := []struct {
		name     string
		lng, lat float64
		zoom     int
		wantX    int
		wantY    int
	}{
		{"London at zoom 10", -0.1278, 51.5074, 10, 511, 340},
		{"Monaco at zoom 12", 7.4246, 43.7384, 12, 2132, 1493},
		{"New York at zoom 10", -74.0060, 40.7128, 10, 301, 385},
		{"Origin at zoom 0", 0, 0, 0, 0, 0},
		{"Origin at zoom 1", 0, 0, 1, 1, 1},
		{"Clamped east edge", 180, 0, 2, 3, 2},
		{"Clamped north pole", 0, 90, 3, 4, 0},
		{"Clamped south pole", 0, -90, 3, 4, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := LngLatToTile(tt.lng, tt.lat, tt.zoom)
			if tile.X != tt.wantX || tile.Y != tt.wantY || tile.Z != tt.zoom {
				t.Errorf("LngLatToTile(%f, %f, %d) = %v, want %d/%d/%d",
					tt.lng, tt.lat, tt.zoom, tile, tt.zoom, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestBBoxToTileRangeInvertsLatitude(t *testing.T) {
	b := orb.Bound{Min: orb.Point{121.0, 24.0}, Max: orb.Point{121.2, 24.3}}

	r := BBoxToTileRange(b, 14)
	north := LngLatToTile(b.Min.Lon(), b.Max.Lat(), 14)
	south := LngLatToTile(b.Max.Lon(), b.Min.Lat(), 14)

	if r.MinY != north.Y || r.MaxY != south.Y {
		t.Errorf("range Y = [%d, %d], want [%d, %d]", r.MinY, r.MaxY, north.Y, south.Y)
	}
	if r.MinY >= r.MaxY {
		t.Errorf("MinY %d should be above MaxY %d", r.MinY, r.MaxY)
	}
	if r.MinX != north.X || r.MaxX != south.X {
		t.Errorf("range X = [%d, %d], want [%d, %d]", r.MinX, r.MaxX, north.X, south.X)
	}
}

func TestRangesSpanDoubles(t *testing.T) {
	b := orb.Bound{Min: orb.Point{121.50, 25.00}, Max: orb.Point{121.56, 25.06}}
	ranges := Ranges(b, 12, 20)

	if len(ranges) != 9 {
		t.Fatalf("len(Ranges) = %d, want 9", len(ranges))
	}
	for i := 1; i < len(ranges); i++ {
		prev, cur := ranges[i-1], ranges[i]
		if cur.Z != prev.Z+1 {
			t.Fatalf("zoom %d follows %d", cur.Z, prev.Z)
		}
		checkDoubled(t, cur.Z, "x", prev.MaxX-prev.MinX+1, cur.MaxX-cur.MinX+1)
		checkDoubled(t, cur.Z, "y", prev.MaxY-prev.MinY+1, cur.MaxY-cur.MinY+1)
	}

	if got := Ranges(b, 5, 4); got != nil {
		t.Errorf("Ranges with maxZoom < minZoom = %v, want nil", got)
	}
}

func checkDoubled(t *testing.T, z int, axis string, prev, cur int) {
	t.Helper()
	if cur < 2*prev-2 || cur > 2*prev {
		t.Errorf("z%d %s span = %d, want about 2*%d", z, axis, cur, prev)
	}
}

func TestTileRangeTiles(t *testing.T) {
	r := TileRange{Z: 3, MinX: 1, MaxX: 2, MinY: 4, MaxY: 5}
	want := []Tile{{3, 1, 4}, {3, 1, 5}, {3, 2, 4}, {3, 2, 5}}
	if diff := cmp.Diff(want, r.Tiles()); diff != "" {
		t.Errorf("Tiles() mismatch (-want +got):\n%s", diff)
	}
	if r.TileCount() != 4 {
		t.Errorf("TileCount() = %d, want 4", r.TileCount())
	}
	if r.Contains(Tile{Z: 4, X: 1, Y: 4}) {
		t.Error("Contains should reject another zoom")
	}
}

func TestTileString(t *testing.T) {
	tile := Tile{Z: 18, X: 219563, Y: 112030}
	if got := tile.String(); got != "18/219563/112030" {
		t.Errorf("String() = %s", got)
	}
	if mt := tile.MapTile(); mt.X != 219563 || mt.Y != 112030 || mt.Z != 18 {
		t.Errorf("MapTile() = %v", mt)
	}
}

func TestIndexBuffer(t *testing.T) {
	home := LngLatToTile(121.5, 25.03, 18)
	b := home.Bound()
	width := b.Max.Lon() - b.Min.Lon()
	center := b.Center()

	nearEast := &feature.Feature{ID: "edge", Geometry: feature.Point{b.Max.Lon() - width*0.001, center.Lat()}}
	middle := &feature.Feature{ID: "middle", Geometry: feature.Point{center.Lon(), center.Lat()}}
	features := []*feature.Feature{nearEast, middle}
	east := Tile{Z: 18, X: home.X + 1, Y: home.Y}

	tests := []struct {
		name     string
		buffer   int
		wantHome []string
		wantEast []string
	}{
		{"no buffer", 0, []string{"edge", "middle"}, nil},
		{"buffer reaches neighbour", 64, []string{"edge", "middle"}, []string{"edge"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIndex(features, 18, 18, tt.buffer, 4096)
			if diff := cmp.Diff(tt.wantHome, ids(idx.Features(home))); diff != "" {
				t.Errorf("home features mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantEast, ids(idx.Features(east))); diff != "" {
				t.Errorf("east features mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIndexCells(t *testing.T) {
	line := &feature.Feature{ID: "l", Geometry: feature.LineString{{121.50, 25.03}, {121.51, 25.03}}}
	idx := NewIndex([]*feature.Feature{line}, 10, 16, 0, 4096)

	for z := 10; z <= 16; z++ {
		r := BBoxToTileRange(line.Geometry.Bound(), z)
		cells := idx.Cells(r)
		if len(cells) != r.TileCount() {
			t.Errorf("z%d: %d cells, want %d", z, len(cells), r.TileCount())
		}
		for _, c := range cells {
			if len(idx.Features(c)) != 1 {
				t.Errorf("cell %v has no feature", c)
			}
		}
	}

	if got := idx.Features(Tile{Z: 17}); got != nil {
		t.Errorf("Features outside zoom range = %v, want nil", got)
	}
}

func ids(fs []*feature.Feature) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.ID)
	}
	return out
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Add(Tile{Z: 19, X: 4, Y: 2})
	tr.Add(Tile{Z: 18, X: 2, Y: 1})
	tr.Add(Tile{Z: 19, X: 4, Y: 1})
	tr.Add(Tile{Z: 18, X: 2, Y: 1})

	if tr.Count() != 3 {
		t.Errorf("Count() = %d, want 3", tr.Count())
	}
	if diff := cmp.Diff(map[int]int{18: 1, 19: 2}, tr.CountByZoom()); diff != "" {
		t.Errorf("CountByZoom() mismatch (-want +got):\n%s", diff)
	}

	path := filepath.Join(t.TempDir(), "tiles.txt")
	if err := tr.WriteToFile(path); err != nil {
		t.Fatalf("WriteToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("18/2/1\n19/4/1\n19/4/2\n", string(data)); diff != "" {
		t.Errorf("tile list mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTile(t *testing.T) {
	tests := []struct {
		input   string
		want    Tile
		wantErr bool
	}{
		{"18/215000/110000", Tile{Z: 18, X: 215000, Y: 110000}, false},
		{"out/points/19/4/2.pbf", Tile{Z: 19, X: 4, Y: 2}, false},
		{"0/0/0", Tile{}, false},
		{"1/2/0", Tile{}, true},
		{"18/1", Tile{}, true},
		{"a/1/2", Tile{}, true},
		{"3/-1/2", Tile{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTile(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTile() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseTile() = %v, want %v", got, tt.want)
			}
		})
	}
}
