package wkb

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		g        feature.Geometry
		wantType uint32
		wantLen  int
	}{
		{"point", feature.Point{121.5, 25.0}, wkbPoint, 25},
		{"line", feature.LineString{{0, 0}, {1, 1}, {2, 0}}, wkbLineString, 13 + 3*16},
		{"polygon", feature.Polygon{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, wkbPolygon, 17 + 4*16},
	}

	e := NewEncoder(64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := e.Encode(tt.g)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if len(b) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(b), tt.wantLen)
			}
			typ, srid, err := Header(b)
			if err != nil {
				t.Fatalf("Header() error = %v", err)
			}
			if typ != tt.wantType || srid != SRID4326 {
				t.Errorf("Header() = (%d, %d), want (%d, %d)", typ, srid, tt.wantType, SRID4326)
			}
		})
	}
}

func TestEncodeMatchesOrbEWKB(t *testing.T) {
	geoms := []feature.Geometry{
		feature.Point{121.5, 25.0},
		feature.LineString{{0, 0}, {1, 1}, {2, 0}},
		feature.Polygon{{0, 0}, {1, 0}, {1, 1}, {0, 0}},
	}

	e := NewEncoder(0)
	for _, g := range geoms {
		want, err := ewkb.Marshal(g.Orb(), SRID4326)
		if err != nil {
			t.Fatalf("ewkb.Marshal(%s) error = %v", g.Type(), err)
		}
		got, err := e.Encode(g)
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", g.Type(), err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Encode(%s) = %x, want %x", g.Type(), got, want)
		}
	}
}

func TestEncodePointLayout(t *testing.T) {
	b := NewEncoderWithSRID(0, 3826).EncodePoint(orb.Point{250000, 2700000})

	if b[0] != 0x01 {
		t.Errorf("byte order = %d, want little endian", b[0])
	}
	if got := binary.LittleEndian.Uint32(b[1:5]); got != wkbPoint|wkbSRIDFlag {
		t.Errorf("type = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(b[5:9]); got != 3826 {
		t.Errorf("srid = %d, want 3826", got)
	}
	x := math.Float64frombits(binary.LittleEndian.Uint64(b[9:17]))
	y := math.Float64frombits(binary.LittleEndian.Uint64(b[17:25]))
	if x != 250000 || y != 2700000 {
		t.Errorf("coords = (%f, %f)", x, y)
	}
}

func TestEncodePolygonRingCount(t *testing.T) {
	b := NewEncoder(0).EncodePolygon(orb.Ring{{0, 0}, {1, 0}, {0, 1}, {0, 0}})
	if rings := binary.LittleEndian.Uint32(b[9:13]); rings != 1 {
		t.Errorf("rings = %d, want 1", rings)
	}
	if points := binary.LittleEndian.Uint32(b[13:17]); points != 4 {
		t.Errorf("points = %d, want 4", points)
	}
}

func TestHeaderErrors(t *testing.T) {
	if _, _, err := Header([]byte{0x01, 0x00}); err == nil {
		t.Error("Header() should reject short input")
	}
	if _, _, err := Header([]byte{0x00, 0, 0, 0, 1, 0, 0, 0, 0}); err == nil {
		t.Error("Header() should reject big endian input")
	}
}
