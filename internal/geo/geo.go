// Package geo holds the pure coordinate math: haversine distances, walking
// times at a fixed pedestrian speed, and coordinate validation. No I/O.
package geo

import (
	"errors"
	"fmt"
	"math"

	"hotel_recommender/internal/domain"
)

const (
	earthRadiusM     = 6371000.0
	walkSpeedMPerMin = 80.0

	// DefaultWalkMinutes is the walking-range cutoff used when a caller has
	// no stricter requirement.
	DefaultWalkMinutes = 15
)

var (
	ErrInvalidCoordinate = errors.New("geo: coordinate out of range")
	ErrNegativeDistance  = errors.New("geo: negative distance")
	ErrNoStations        = errors.New("geo: no stations")
)

func validCoords(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Distance returns the haversine distance in meters between two points,
// rounded to one decimal. Identical points return exactly 0.
func Distance(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if !validCoords(lat1, lon1) {
		return 0, fmt.Errorf("point (%v,%v): %w", lat1, lon1, ErrInvalidCoordinate)
	}
	if !validCoords(lat2, lon2) {
		return 0, fmt.Errorf("point (%v,%v): %w", lat2, lon2, ErrInvalidCoordinate)
	}
	if lat1 == lat2 && lon1 == lon2 {
		return 0, nil
	}
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	d := 2 * earthRadiusM * math.Asin(math.Sqrt(a))
	return math.Round(d*10) / 10, nil
}

// WalkingTimeMinutes converts a distance to whole minutes at 80 m/min,
// rounded to the nearest minute with a floor of 1.
func WalkingTimeMinutes(distanceM float64) (int, error) {
	if distanceM < 0 {
		return 0, fmt.Errorf("distance %v: %w", distanceM, ErrNegativeDistance)
	}
	m := int(math.Round(distanceM / walkSpeedMPerMin))
	if m < 1 {
		m = 1
	}
	return m, nil
}

// WithinWalkingDistance reports whether a distance is walkable within
// maxMinutes.
func WithinWalkingDistance(distanceM float64, maxMinutes int) (bool, error) {
	m, err := WalkingTimeMinutes(distanceM)
	if err != nil {
		return false, err
	}
	return m <= maxMinutes, nil
}

// SearchRadiusM is the meter radius reachable in walkingMinutes.
func SearchRadiusM(walkingMinutes int) int {
	return int(float64(walkingMinutes) * walkSpeedMPerMin)
}

// NearestStation scans stations for the one closest to (lat, lon). Ties keep
// the earliest entry.
func NearestStation(lat, lon float64, stations []domain.Station) (domain.Station, float64, error) {
	if len(stations) == 0 {
		return domain.Station{}, 0, ErrNoStations
	}
	var (
		best     domain.Station
		bestDist = math.Inf(1)
	)
	for _, st := range stations {
		d, err := Distance(lat, lon, st.Lat, st.Lon)
		if err != nil {
			return domain.Station{}, 0, err
		}
		if d < bestDist {
			best, bestDist = st, d
		}
	}
	return best, bestDist, nil
}

// NormalizeCoordinate validates ranges and rounds to 6 decimals (about 0.1 m,
// enough for cache keys to agree on the same point).
func NormalizeCoordinate(lat, lon float64) (float64, float64, error) {
	if !validCoords(lat, lon) {
		return 0, 0, fmt.Errorf("point (%v,%v): %w", lat, lon, ErrInvalidCoordinate)
	}
	return math.Round(lat*1e6) / 1e6, math.Round(lon*1e6) / 1e6, nil
}
