// README: Pure geographic computation helpers (haversine distance, coarse ETA).
package location

import "math"

const (
	earthRadiusKm = 6371.0

	// averageSpeedKmh is the fixed urban speed assumption behind
	// EtaMinutes. The result is a straight-line coarse estimate, not a
	// routed navigation time, and callers present it as such.
	averageSpeedKmh = 30.0
)

// DistanceKm returns the great-circle (haversine) distance in kilometres
// between two points specified in decimal degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// EtaMinutes converts a distance into whole minutes at the assumed average
// speed, rounding up so a waiting rider is never told zero.
func EtaMinutes(distanceKm float64) int {
	return int(math.Ceil(distanceKm / averageSpeedKmh * 60))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
