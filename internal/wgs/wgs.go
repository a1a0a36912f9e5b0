// Package wgs implements the WGS84 geodesy used by the flight model: geodetic
// to Earth-centred Cartesian conversion, the local North-East-Down frame and
// Euler angle helpers.
//
// Angles are radians throughout. Quaternions follow the mgl64 convention
// (scalar W, vector V) and rotate vectors actively: q.Rotate(v) expresses a
// body vector in the parent frame.
package wgs

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	A  = 6378137.0           // equatorial radius [m]
	F  = 1.0 / 298.257223563 // flattening
	B  = A * (1.0 - F)       // polar radius [m]
	E2 = 1.0 - B*B/(A*A)     // first eccentricity squared

	// G0 is standard gravity [m/s^2].
	G0 = 9.80665
)

var (
	unitX = mgl64.Vec3{1, 0, 0}
	unitY = mgl64.Vec3{0, 1, 0}
	unitZ = mgl64.Vec3{0, 0, 1}
)

// GeoToWGS converts geodetic coordinates to an ECEF position.
func GeoToWGS(lat, lon, alt float64) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := A / math.Sqrt(1.0-E2*sinLat*sinLat)

	return mgl64.Vec3{
		(n + alt) * cosLat * cosLon,
		(n + alt) * cosLat * sinLon,
		(n*(1.0-E2) + alt) * sinLat,
	}
}

// WGSToGeo converts an ECEF position to geodetic coordinates.
func WGSToGeo(pos mgl64.Vec3) (lat, lon, alt float64) {
	x, y, z := pos.X(), pos.Y(), pos.Z()
	p := math.Hypot(x, y)
	lon = math.Atan2(y, x)
	lat = math.Atan2(z, p*(1.0-E2))

	for i := 0; i < 10; i++ {
		sinLat, cosLat := math.Sincos(lat)
		n := A / math.Sqrt(1.0-E2*sinLat*sinLat)
		alt = p*cosLat + z*sinLat - A*math.Sqrt(1.0-E2*sinLat*sinLat)
		lat = math.Atan2(z, p*(1.0-E2*n/(n+alt)))
	}

	sinLat, cosLat := math.Sincos(lat)
	alt = p*cosLat + z*sinLat - A*math.Sqrt(1.0-E2*sinLat*sinLat)
	return lat, lon, alt
}

// Normal returns the outward ellipsoid normal (local "up") at lat/lon in ECEF.
func Normal(lat, lon float64) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	return mgl64.Vec3{cosLat * cosLon, cosLat * sinLon, sinLat}
}

// NEDToWGS returns the rotation from the local NED frame at lat/lon to ECEF.
func NEDToWGS(lat, lon float64) mgl64.Quat {
	return mgl64.QuatRotate(lon, unitZ).Mul(mgl64.QuatRotate(-lat-math.Pi/2, unitY))
}

// EulerToQuat builds the body to NED rotation for roll phi, pitch tht and
// heading psi (Z-Y-X order).
func EulerToQuat(phi, tht, psi float64) mgl64.Quat {
	return mgl64.QuatRotate(psi, unitZ).
		Mul(mgl64.QuatRotate(tht, unitY)).
		Mul(mgl64.QuatRotate(phi, unitX))
}

// QuatToEuler is the inverse of EulerToQuat. Heading is in [0, 2pi).
func QuatToEuler(q mgl64.Quat) (phi, tht, psi float64) {
	w, x, y, z := q.W, q.V.X(), q.V.Y(), q.V.Z()

	phi = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinTht := 2 * (w*y - z*x)
	sinTht = math.Max(-1, math.Min(1, sinTht))
	tht = math.Asin(sinTht)

	psi = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	if psi < 0 {
		psi += 2 * math.Pi
	}
	return phi, tht, psi
}

// Frame is the local geodetic frame at an ECEF position.
type Frame struct {
	Lat, Lon, Alt float64

	// NED rotates NED vectors into ECEF.
	NED mgl64.Quat
}

func NewFrame(pos mgl64.Vec3) Frame {
	lat, lon, alt := WGSToGeo(pos)
	return Frame{Lat: lat, Lon: lon, Alt: alt, NED: NEDToWGS(lat, lon)}
}

// BodyToNED converts a body to ECEF attitude into a body to NED attitude.
func (f Frame) BodyToNED(att mgl64.Quat) mgl64.Quat {
	return f.NED.Conjugate().Mul(att)
}

// BodyToWGS converts a body to NED attitude into a body to ECEF attitude.
func (f Frame) BodyToWGS(att mgl64.Quat) mgl64.Quat {
	return f.NED.Mul(att)
}

// Offset moves lat/lon by dist metres along heading on a spherical Earth.
func Offset(lat, lon, heading, dist float64) (float64, float64) {
	if dist == 0 {
		return lat, lon
	}
	start := orb.Point{mgl64.RadToDeg(lon), mgl64.RadToDeg(lat)}
	p := geo.PointAtBearingAndDistance(start, mgl64.RadToDeg(heading), dist)
	return mgl64.DegToRad(p.Lat()), mgl64.DegToRad(p.Lon())
}

// Bearing returns the initial great-circle bearing between two points.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	from := orb.Point{mgl64.RadToDeg(lon1), mgl64.RadToDeg(lat1)}
	to := orb.Point{mgl64.RadToDeg(lon2), mgl64.RadToDeg(lat2)}
	b := mgl64.DegToRad(geo.Bearing(from, to))
	if b < 0 {
		b += 2 * math.Pi
	}
	return b
}
