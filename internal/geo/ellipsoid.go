package geo

import "math"

// ellipsoid is a reference ellipsoid given by its semi-major axis and
// inverse flattening.
type ellipsoid struct {
	a    float64
	invF float64
}

var (
	wgs84 = ellipsoid{a: 6378137, invF: 298.257223563}
	grs80 = ellipsoid{a: 6378137, invF: 298.257222101}
)

// e2 returns the first eccentricity squared.
func (el ellipsoid) e2() float64 {
	f := 1 / el.invF
	return f * (2 - f)
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
