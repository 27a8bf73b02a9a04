package utils

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ComputeFare returns base + perKm*distance in minor units, rounded.
func ComputeFare(baseFare, pricePerKm int64, distanceKm float64) int64 {
	if distanceKm < 0 {
		distanceKm = 0
	}
	return baseFare + int64(math.Round(float64(pricePerKm)*distanceKm))
}
