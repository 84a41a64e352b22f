package proj

import (
	"fmt"
	"math"
	"strings"
)

// SRID constants for supported projections
const (
	SRID4326 = 4326 // WGS84 (lat/lon)
	SRID3857 = 3857 // Web Mercator
	SRID3826 = 3826 // TWD97 / TM2 zone 121 (Taiwan)
	SRID3825 = 3825 // TWD97 / TM2 zone 119 (Penghu)
)

// Reprojector maps a planar coordinate to longitude/latitude in degrees
type Reprojector func(x, y float64) (lng, lat float64)

// WithOffset returns a Reprojector that adds a fixed planar offset before projecting
func WithOffset(r Reprojector, dx, dy float64) Reprojector {
	return func(x, y float64) (float64, float64) {
		return r(x+dx, y+dy)
	}
}

// Transformer handles coordinate transformations between projections
type Transformer struct {
	SourceSRID int
	TargetSRID int
}

// NewTransformer creates a transformer from source to target SRID
func NewTransformer(sourceSRID, targetSRID int) (*Transformer, error) {
	switch sourceSRID {
	case SRID4326, SRID3826, SRID3825:
	default:
		return nil, fmt.Errorf("unsupported source SRID: %d (supported: 4326, 3826, 3825)", sourceSRID)
	}
	switch targetSRID {
	case SRID4326, SRID3857, SRID3826, SRID3825:
	default:
		return nil, fmt.Errorf("unsupported target SRID: %d (supported: 4326, 3857, 3826, 3825)", targetSRID)
	}
	if sourceSRID != SRID4326 && targetSRID != SRID4326 {
		return nil, fmt.Errorf("unsupported transformation: %d -> %d", sourceSRID, targetSRID)
	}

	return &Transformer{
		SourceSRID: sourceSRID,
		TargetSRID: targetSRID,
	}, nil
}

// Transform converts a coordinate from source to target projection
func (t *Transformer) Transform(x, y float64) (float64, float64) {
	if t.SourceSRID == t.TargetSRID {
		return x, y
	}

	switch {
	case t.SourceSRID == SRID3826 && t.TargetSRID == SRID4326:
		return twd97ToLngLat(x, y, 121)
	case t.SourceSRID == SRID3825 && t.TargetSRID == SRID4326:
		return twd97ToLngLat(x, y, 119)
	case t.SourceSRID == SRID4326 && t.TargetSRID == SRID3857:
		return lonLatToWebMercator(x, y)
	case t.SourceSRID == SRID4326 && t.TargetSRID == SRID3826:
		return lngLatToTWD97(x, y, 121)
	case t.SourceSRID == SRID4326 && t.TargetSRID == SRID3825:
		return lngLatToTWD97(x, y, 119)
	}

	// No transformation available, return as-is
	return x, y
}

// Reprojector returns Transform as a plain function
func (t *Transformer) Reprojector() Reprojector {
	return t.Transform
}

// NeedsTransform returns true if transformation is required
func (t *Transformer) NeedsTransform() bool {
	return t.SourceSRID != t.TargetSRID
}

// Web Mercator constants
const (
	// Semi-major axis of WGS84 ellipsoid in meters
	earthRadius = 6378137.0
	// Maximum extent of Web Mercator
	maxExtent = 20037508.342789244
)

// lonLatToWebMercator converts WGS84 (lon, lat) to Web Mercator (x, y)
func lonLatToWebMercator(lon, lat float64) (x, y float64) {
	if lat > 85.06 {
		lat = 85.06
	} else if lat < -85.06 {
		lat = -85.06
	}

	x = lon * maxExtent / 180.0
	latRad := lat * math.Pi / 180.0
	y = math.Log(math.Tan(math.Pi/4.0+latRad/2.0)) * earthRadius

	return x, y
}

// TWD97 transverse Mercator parameters (GRS80 ellipsoid)
const (
	grs80A        = 6378137.0
	grs80B        = 6356752.314245
	tmScale       = 0.9999
	tmFalseEast   = 250000.0
	tmFalseNorth  = 0.0
	radiansPerDeg = math.Pi / 180
)

var (
	grs80E2  = 1 - (grs80B*grs80B)/(grs80A*grs80A) // First eccentricity squared
	grs80Ep2 = grs80E2 / (1 - grs80E2)              // Second eccentricity squared
)

// twd97ToLngLat inverts the TM2 projection around the given central meridian
func twd97ToLngLat(x, y, centralMeridian float64) (lng, lat float64) {
	e2 := grs80E2
	x -= tmFalseEast
	y -= tmFalseNorth

	m := y / tmScale
	mu := m / (grs80A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)
	j1 := 3*e1/2 - 27*math.Pow(e1, 3)/32
	j2 := 21*e1*e1/16 - 55*math.Pow(e1, 4)/32
	j3 := 151 * math.Pow(e1, 3) / 96
	j4 := 1097 * math.Pow(e1, 4) / 512
	fp := mu + j1*math.Sin(2*mu) + j2*math.Sin(4*mu) + j3*math.Sin(6*mu) + j4*math.Sin(8*mu)

	sinFp, cosFp := math.Sin(fp), math.Cos(fp)
	c1 := grs80Ep2 * cosFp * cosFp
	t1 := math.Tan(fp) * math.Tan(fp)
	r1 := grs80A * (1 - e2) / math.Pow(1-e2*sinFp*sinFp, 1.5)
	n1 := grs80A / math.Sqrt(1-e2*sinFp*sinFp)
	d := x / (n1 * tmScale)

	q1 := n1 * math.Tan(fp) / r1
	q2 := d * d / 2
	q3 := (5 + 3*t1 + 10*c1 - 4*c1*c1 - 9*grs80Ep2) * math.Pow(d, 4) / 24
	q4 := (61 + 90*t1 + 298*c1 + 45*t1*t1 - 3*c1*c1 - 252*grs80Ep2) * math.Pow(d, 6) / 720
	latRad := fp - q1*(q2-q3+q4)

	q6 := (1 + 2*t1 + c1) * math.Pow(d, 3) / 6
	q7 := (5 - 2*c1 + 28*t1 - 3*c1*c1 + 8*grs80Ep2 + 24*t1*t1) * math.Pow(d, 5) / 120
	lngRad := centralMeridian*radiansPerDeg + (d-q6+q7)/cosFp

	return lngRad / radiansPerDeg, latRad / radiansPerDeg
}

// lngLatToTWD97 projects WGS84 onto TM2 around the given central meridian
func lngLatToTWD97(lng, lat, centralMeridian float64) (x, y float64) {
	e2 := grs80E2
	phi := lat * radiansPerDeg
	lam := (lng - centralMeridian) * radiansPerDeg

	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	n := grs80A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := math.Tan(phi) * math.Tan(phi)
	c := grs80Ep2 * cosPhi * cosPhi
	a := lam * cosPhi

	m := grs80A * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))

	x = tmFalseEast + tmScale*n*(a+(1-t+c)*math.Pow(a, 3)/6+
		(5-18*t+t*t+72*c-58*grs80Ep2)*math.Pow(a, 5)/120)
	y = tmFalseNorth + tmScale*(m+n*math.Tan(phi)*(a*a/2+
		(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
		(61-58*t+t*t+600*c-330*grs80Ep2)*math.Pow(a, 6)/720))

	return x, y
}

// ParseSRID parses a projection string to SRID
// Accepts: "4326", "3857", "3826", "3825" with an optional "EPSG:" prefix
func ParseSRID(s string) (int, error) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "EPSG:") {
	case "4326":
		return SRID4326, nil
	case "3857":
		return SRID3857, nil
	case "3826":
		return SRID3826, nil
	case "3825":
		return SRID3825, nil
	default:
		return 0, fmt.Errorf("unsupported projection: %s (supported: 4326, 3857, 3826, 3825)", s)
	}
}
