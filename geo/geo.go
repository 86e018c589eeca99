// Package geo holds the small amount of spherical math used by the summary fold.
package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadiusMeters is the mean earth radius used by HaversineDistance
	EarthRadiusMeters = 6371000.0

	DefaultCellPrecision = 3
)

// HaversineDistance returns the great-circle distance in meters between two coordinates
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Pow(math.Sin(dLng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// CellKey buckets a coordinate onto a grid of 10^-precision degrees. The key is only
// meant for set membership. At precision 3 a cell is roughly 111m x 111m at the equator.
func CellKey(lat, lng float64, precision int) string {
	scale := math.Pow(10, float64(precision))
	return fmt.Sprintf("%d_%d", roundHalfUp(lat*scale), roundHalfUp(lng*scale))
}

func LocationCellKey(lat, lng float64) string {
	return CellKey(lat, lng, DefaultCellPrecision)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// roundHalfUp rounds .5 towards positive infinity for negative values too,
// which keeps keys compatible with cells written by the mobile clients.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
