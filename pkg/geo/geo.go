// Package geo provides the spherical-earth helpers used by guidance:
// bearings, great-circle distances and destination points.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000.0

// Bearing returns the initial bearing from the first point to the second,
// in radians within [-π, π], measured clockwise from true north.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLon := radians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	return WrapPi(math.Atan2(y, x))
}

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadius
}

// Distance3D combines the horizontal distance with an altitude difference.
func Distance3D(lat1, lon1, alt1, lat2, lon2, alt2 float64) float64 {
	return math.Hypot(Distance(lat1, lon1, lat2, lon2), alt2-alt1)
}

// Destination returns the point reached by travelling dist meters from
// (lat, lon) along the given bearing (radians).
func Destination(lat, lon, bearing, dist float64) (float64, float64) {
	delta := dist / EarthRadius
	phi1 := radians(lat)
	lambda1 := radians(lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(bearing))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(bearing)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	return degrees(phi2), degrees(WrapPi(lambda2))
}

// WrapPi folds an angle into [-π, π].
func WrapPi(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
