// Package geo holds the great-circle math every location feature is built on:
// distances between coordinates, initial bearings, forward projection of a
// point along a bearing, and compass-angle normalization. All functions are
// pure and operate on WGS84 degrees.
package geo

import (
	"math"
)

// EarthRadiusMeters is the mean earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// DistanceMeters returns the haversine great-circle distance between a and b.
func DistanceMeters(a, b Coordinate) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	deltaPhi := toRadians(b.Latitude - a.Latitude)
	deltaLambda := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// BearingDegrees returns the initial compass bearing from `from` toward `to`,
// normalized to [0, 360).
func BearingDegrees(from, to Coordinate) float64 {
	phi1 := toRadians(from.Latitude)
	phi2 := toRadians(to.Latitude)
	deltaLambda := toRadians(to.Longitude - from.Longitude)

	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)

	bearing := toDegrees(math.Atan2(y, x))
	return math.Mod(bearing+360, 360)
}

// DestinationPoint projects origin forward by distanceMeters along
// bearingDegrees and returns the resulting coordinate.
func DestinationPoint(origin Coordinate, bearingDegrees, distanceMeters float64) Coordinate {
	phi1 := toRadians(origin.Latitude)
	lambda1 := toRadians(origin.Longitude)
	theta := toRadians(bearingDegrees)
	delta := distanceMeters / EarthRadiusMeters

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	lng := toDegrees(lambda2)
	// keep longitude in [-180, 180]
	lng = math.Mod(lng+540, 360) - 180

	return Coordinate{Latitude: toDegrees(phi2), Longitude: lng}
}

// RelativeAngle returns the signed offset from deviceHeading to
// bearingToTarget, normalized to (-180, 180]. Negative means the target is to
// the left of the heading.
func RelativeAngle(bearingToTarget, deviceHeading float64) float64 {
	angle := math.Mod(bearingToTarget-deviceHeading, 360)
	if angle > 180 {
		angle -= 360
	}
	if angle <= -180 {
		angle += 360
	}
	return angle
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
