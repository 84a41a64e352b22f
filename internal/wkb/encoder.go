package wkb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

// WKB type constants (ISO SQL/MM specification)
const (
	wkbPoint      = 1
	wkbLineString = 2
	wkbPolygon    = 3

	// SRID flag for EWKB (PostGIS extended WKB)
	wkbSRIDFlag = 0x20000000
)

// SRID4326 is WGS84, the SRID of every assembled feature
const SRID4326 = 4326

// Encoder encodes geometries to WKB format.
// Uses little-endian byte order and includes SRID (EWKB format).
type Encoder struct {
	buf  []byte
	srid uint32
}

// NewEncoder creates a new WKB encoder with pre-allocated buffer and default SRID 4326
func NewEncoder(initialSize int) *Encoder {
	return NewEncoderWithSRID(initialSize, SRID4326)
}

// NewEncoderWithSRID creates a new WKB encoder with specified SRID
func NewEncoderWithSRID(initialSize int, srid int) *Encoder {
	return &Encoder{
		buf:  make([]byte, 0, initialSize),
		srid: uint32(srid),
	}
}

// SRID returns the encoder's current SRID
func (e *Encoder) SRID() int {
	return int(e.srid)
}

// Reset clears the buffer for reuse
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded WKB bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Encode encodes a feature geometry. The returned slice is reused by the
// next call; copy it to retain it.
func (e *Encoder) Encode(g feature.Geometry) ([]byte, error) {
	switch g := g.(type) {
	case feature.Point:
		return e.EncodePoint(orb.Point(g)), nil
	case feature.LineString:
		return e.EncodeLineString(orb.LineString(g)), nil
	case feature.Polygon:
		return e.EncodePolygon(orb.Ring(g)), nil
	}
	return nil, fmt.Errorf("unsupported geometry %T", g)
}

// EncodePoint encodes a point as EWKB with SRID
func (e *Encoder) EncodePoint(p orb.Point) []byte {
	// 1 (byte order) + 4 (type+srid flag) + 4 (srid) + 16 (2 doubles)
	e.begin(25, wkbPoint)
	e.appendPoint(p)
	return e.buf
}

// EncodeLineString encodes a linestring as EWKB with SRID
func (e *Encoder) EncodeLineString(ls orb.LineString) []byte {
	e.begin(13+len(ls)*16, wkbLineString)
	e.appendPoints(ls)
	return e.buf
}

// EncodePolygon encodes a single-ring polygon as EWKB with SRID
func (e *Encoder) EncodePolygon(ring orb.Ring) []byte {
	e.begin(17+len(ring)*16, wkbPolygon)
	e.appendUint32(1)
	e.appendPoints(ring)
	return e.buf
}

func (e *Encoder) begin(size int, typ uint32) {
	e.Reset()
	if cap(e.buf) < size {
		e.buf = make([]byte, 0, size)
	}
	e.buf = append(e.buf, 0x01)
	e.appendUint32(typ | wkbSRIDFlag)
	e.appendUint32(e.srid)
}

func (e *Encoder) appendPoints(ps []orb.Point) {
	e.appendUint32(uint32(len(ps)))
	for _, p := range ps {
		e.appendPoint(p)
	}
}

func (e *Encoder) appendPoint(p orb.Point) {
	e.appendFloat64(p.Lon())
	e.appendFloat64(p.Lat())
}

func (e *Encoder) appendUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) appendFloat64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// Header reads the byte order, type and SRID of an EWKB payload
func Header(b []byte) (typ uint32, srid uint32, err error) {
	if len(b) < 9 {
		return 0, 0, fmt.Errorf("wkb too short: %d bytes", len(b))
	}
	if b[0] != 0x01 {
		return 0, 0, fmt.Errorf("unsupported byte order %d", b[0])
	}
	raw := binary.LittleEndian.Uint32(b[1:5])
	if raw&wkbSRIDFlag == 0 {
		return raw, 0, nil
	}
	return raw &^ wkbSRIDFlag, binary.LittleEndian.Uint32(b[5:9]), nil
}
