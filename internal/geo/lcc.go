package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// lambertConic is a Lambert conformal conic projection with two standard
// parallels on an ellipsoid (Snyder, Map Projections: A Working Manual, §15).
type lambertConic struct {
	el         ellipsoid
	e          float64
	n, f, rho0 float64
	lon0       float64
	x0, y0     float64
}

func newLambertConic(el ellipsoid, lat1, lat2, lat0, lon0, x0, y0 float64) *lambertConic {
	l := &lambertConic{el: el, e: math.Sqrt(el.e2()), lon0: deg2rad(lon0), x0: x0, y0: y0}
	p1, p2, p0 := deg2rad(lat1), deg2rad(lat2), deg2rad(lat0)

	m1, m2 := l.m(p1), l.m(p2)
	t1, t2, t0 := l.t(p1), l.t(p2), l.t(p0)
	if math.Abs(p1-p2) < 1e-12 {
		l.n = math.Sin(p1)
	} else {
		l.n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	}
	l.f = m1 / (l.n * math.Pow(t1, l.n))
	l.rho0 = el.a * l.f * math.Pow(t0, l.n)
	return l
}

func (l *lambertConic) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-l.e*l.e*s*s)
}

func (l *lambertConic) t(phi float64) float64 {
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-l.e*s)/(1+l.e*s), l.e/2)
}

// toWGS84 maps projected metres to longitude/latitude degrees.
func (l *lambertConic) toWGS84(p orb.Point) orb.Point {
	x := p[0] - l.x0
	y := l.rho0 - (p[1] - l.y0)
	sign := 1.0
	if l.n < 0 {
		sign = -1
	}
	rho := sign * math.Hypot(x, y)
	theta := math.Atan2(sign*x, sign*y)
	t := math.Pow(rho/(l.el.a*l.f), 1/l.n)

	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		s := math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-l.e*s)/(1+l.e*s), l.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	return orb.Point{rad2deg(theta/l.n + l.lon0), rad2deg(phi)}
}

// fromWGS84 maps longitude/latitude degrees to projected metres.
func (l *lambertConic) fromWGS84(p orb.Point) orb.Point {
	rho := l.el.a * l.f * math.Pow(l.t(deg2rad(p[1])), l.n)
	theta := l.n * (deg2rad(p[0]) - l.lon0)
	return orb.Point{
		l.x0 + rho*math.Sin(theta),
		l.y0 + l.rho0 - rho*math.Cos(theta),
	}
}
