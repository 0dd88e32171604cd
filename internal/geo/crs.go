package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// WGS84 is the EPSG code of the canonical geographic CRS.
const WGS84 = 4326

// CRS is a coordinate reference system that can be converted to and from
// EPSG:4326.
type CRS struct {
	Code      int
	Name      string
	ToWGS84   orb.Projection
	FromWGS84 orb.Projection
}

// IsWGS84 reports whether the CRS needs no reprojection.
func (c CRS) IsWGS84() bool {
	return c.Code == WGS84
}

func identity(p orb.Point) orb.Point { return p }

var (
	lambert93 = newLambertConic(grs80, 49, 44, 46.5, 3, 700000, 6600000)
	// RGNC91-93 standard parallels are 20°40'S and 22°20'S.
	lambertNC = newLambertConic(grs80, -(20 + 40.0/60), -(22 + 20.0/60), -21.5, 166, 400000, 300000)
)

var fixed = map[int]CRS{
	WGS84:  {Code: WGS84, Name: "WGS 84", ToWGS84: identity, FromWGS84: identity},
	3857:   webMercator(3857),
	900913: webMercator(900913),
	102100: webMercator(102100),
	2154:   {Code: 2154, Name: "RGF93 / Lambert-93", ToWGS84: lambert93.toWGS84, FromWGS84: lambert93.fromWGS84},
	3163:   {Code: 3163, Name: "RGNC91-93 / Lambert New Caledonia", ToWGS84: lambertNC.toWGS84, FromWGS84: lambertNC.fromWGS84},
}

func webMercator(code int) CRS {
	return CRS{
		Code:      code,
		Name:      "WGS 84 / Pseudo-Mercator",
		ToWGS84:   project.Mercator.ToWGS84,
		FromWGS84: project.WGS84.ToMercator,
	}
}

// ParseCode extracts the EPSG code from forms such as "EPSG:3163",
// "3163", "urn:ogc:def:crs:EPSG::3163" or "CRS84".
func ParseCode(s string) (int, error) {
	v := strings.TrimSpace(s)
	upper := strings.ToUpper(v)
	switch {
	case upper == "" || upper == "CRS84" || upper == "WGS84" || strings.HasSuffix(upper, ":CRS84"):
		return WGS84, nil
	case strings.HasPrefix(upper, "URN:OGC:DEF:CRS:EPSG:"):
		v = v[strings.LastIndex(v, ":")+1:]
	case strings.HasPrefix(upper, "EPSG:"):
		v = v[len("EPSG:"):]
	}
	code, err := strconv.Atoi(v)
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("%w: invalid crs %q", domain.ErrConfiguration, s)
	}
	return code, nil
}

// Lookup returns the CRS named by s. Unknown systems are configuration
// errors that also match domain.ErrUnsupportedType.
func Lookup(s string) (CRS, error) {
	code, err := ParseCode(s)
	if err != nil {
		return CRS{}, err
	}
	if c, ok := fixed[code]; ok {
		return c, nil
	}
	if zone := code % 100; zone >= 1 && zone <= 60 {
		switch code - zone {
		case 32600:
			tm := newUTM(zone, false)
			return CRS{Code: code, Name: fmt.Sprintf("WGS 84 / UTM zone %dN", zone), ToWGS84: tm.toWGS84, FromWGS84: tm.fromWGS84}, nil
		case 32700:
			tm := newUTM(zone, true)
			return CRS{Code: code, Name: fmt.Sprintf("WGS 84 / UTM zone %dS", zone), ToWGS84: tm.toWGS84, FromWGS84: tm.fromWGS84}, nil
		}
	}
	return CRS{}, fmt.Errorf("%w: %w: crs EPSG:%d", domain.ErrConfiguration, domain.ErrUnsupportedType, code)
}

// ToWGS84 returns a copy of g reprojected from the given CRS.
func ToWGS84(g orb.Geometry, from string) (orb.Geometry, error) {
	c, err := Lookup(from)
	if err != nil {
		return nil, err
	}
	return c.Reproject(g), nil
}

// Reproject returns a copy of g in EPSG:4326. g is never modified.
func (c CRS) Reproject(g orb.Geometry) orb.Geometry {
	if g == nil || c.IsWGS84() {
		return g
	}
	return project.Geometry(orb.Clone(g), c.ToWGS84)
}

// String returns the CRS as "EPSG:<code>".
func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", c.Code)
}

// Supported returns the fixed EPSG codes, excluding the UTM families.
func Supported() []int {
	return []int{WGS84, 2154, 3163, 3857, 900913, 102100}
}
