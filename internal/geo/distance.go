package geo

import (
	"math"

	"github.com/pkg/errors"
)

// EarthRadiusKm is Earth's mean radius used by the Haversine calculation.
const EarthRadiusKm = 6371.0088

var (
	ErrMalformed  = errors.New("coordinates must be a [longitude, latitude] pair")
	ErrOutOfRange = errors.New("coordinates out of range")
	ErrNotANumber = errors.New("coordinates must be finite numbers")
)

// ValidateLonLat checks a GeoJSON position of exactly two numbers with a
// longitude in [-180, 180] and a latitude in [-90, 90].
func ValidateLonLat(coords []float64) error {
	if len(coords) != 2 {
		return ErrMalformed
	}
	lon, lat := coords[0], coords[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return ErrNotANumber
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return errors.Wrapf(ErrOutOfRange, "lon=%g lat=%g", lon, lat)
	}
	return nil
}

// HaversineKm calculates the great-circle distance between two points on
// Earth in kilometers.
func HaversineKm(lon1, lat1, lon2, lat2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}
