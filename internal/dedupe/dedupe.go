// Package dedupe collapses near-duplicate provider results. Order is
// preserved and the first occurrence always wins.
package dedupe

import (
	"hotel_recommender/internal/domain"
	"hotel_recommender/internal/geo"
)

// StationProximityM is the radius under which two stations count as the same
// physical station (exits of one complex resolve to slightly different
// coordinates).
const StationProximityM = 150

// Stations drops stations that share a place id with, or sit within
// StationProximityM of, an already kept station.
func Stations(in []domain.Station) []domain.Station {
	out := make([]domain.Station, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, st := range in {
		if st.PlaceID != nil {
			if _, dup := seen[*st.PlaceID]; dup {
				continue
			}
		}
		if nearKept(st, out) {
			continue
		}
		if st.PlaceID != nil {
			seen[*st.PlaceID] = struct{}{}
		}
		out = append(out, st)
	}
	return out
}

func nearKept(st domain.Station, kept []domain.Station) bool {
	for _, k := range kept {
		d, err := geo.Distance(st.Lat, st.Lon, k.Lat, k.Lon)
		if err == nil && d < StationProximityM {
			return true
		}
	}
	return false
}

// Hotels keeps the first candidate per hotel id.
func Hotels(in []domain.HotelCandidate) []domain.HotelCandidate {
	out := make([]domain.HotelCandidate, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, h := range in {
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		out = append(out, h)
	}
	return out
}
