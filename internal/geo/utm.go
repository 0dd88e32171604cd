package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const utmScale = 0.9996

// transverseMercator is a UTM zone on WGS 84.
type transverseMercator struct {
	el        ellipsoid
	lon0      float64
	northing0 float64
}

func newUTM(zone int, south bool) *transverseMercator {
	tm := &transverseMercator{
		el:   wgs84,
		lon0: deg2rad(float64(zone-1)*6 - 180 + 3),
	}
	if south {
		tm.northing0 = 10000000
	}
	return tm
}

// toWGS84 maps easting/northing to longitude/latitude degrees.
func (tm *transverseMercator) toWGS84(p orb.Point) orb.Point {
	a, e2 := tm.el.a, tm.el.e2()
	ep2 := e2 / (1 - e2)
	x := p[0] - 500000
	y := p[1] - tm.northing0

	mu := y / utmScale / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin1, cos1, tan1 := math.Sin(phi1), math.Cos(phi1), math.Tan(phi1)
	c1 := ep2 * cos1 * cos1
	t1 := tan1 * tan1
	n1 := a / math.Sqrt(1-e2*sin1*sin1)
	r1 := a * (1 - e2) / math.Pow(1-e2*sin1*sin1, 1.5)
	d := x / (n1 * utmScale)

	lat := phi1 - (n1*tan1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
	lon := tm.lon0 + (d-
		(1+2*t1+c1)*math.Pow(d, 3)/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120)/cos1

	return orb.Point{rad2deg(lon), rad2deg(lat)}
}

// fromWGS84 maps longitude/latitude degrees to easting/northing.
func (tm *transverseMercator) fromWGS84(p orb.Point) orb.Point {
	a, e2 := tm.el.a, tm.el.e2()
	ep2 := e2 / (1 - e2)
	phi := deg2rad(p[1])
	sin, cos, tan := math.Sin(phi), math.Cos(phi), math.Tan(phi)

	n := a / math.Sqrt(1-e2*sin*sin)
	t := tan * tan
	c := ep2 * cos * cos
	aa := (deg2rad(p[0]) - tm.lon0) * cos
	m := a * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))

	x := utmScale*n*(aa+(1-t+c)*math.Pow(aa, 3)/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(aa, 5)/120) + 500000
	y := utmScale*(m+n*tan*(aa*aa/2+(5-t+9*c+4*c*c)*math.Pow(aa, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(aa, 6)/720)) + tm.northing0
	return orb.Point{x, y}
}
