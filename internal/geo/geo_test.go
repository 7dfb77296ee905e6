package geo_test

import (
	"errors"
	"testing"

	"hotel_recommender/internal/domain"
	"hotel_recommender/internal/geo"
)

func TestDistance_KnownPoints(t *testing.T) {
	// Tokyo station to Shinjuku station, roughly 6.1 km.
	d, err := geo.Distance(35.6812, 139.7671, 35.6896, 139.7006)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d < 5800 || d > 6300 {
		t.Fatalf("expected ~6.1km, got %v", d)
	}

	// Pure latitude offset of 0.001 degrees is a fixed arc length.
	d, err = geo.Distance(35.0, 139.0, 35.001, 139.0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d != 111.2 {
		t.Fatalf("expected 111.2, got %v", d)
	}
}

func TestDistance_IdenticalPointsAreZero(t *testing.T) {
	d, err := geo.Distance(35.6812, 139.7671, 35.6812, 139.7671)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected exactly 0, got %v", d)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	ab, err := geo.Distance(35.6812, 139.7671, 34.7024, 135.4959)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	ba, err := geo.Distance(34.7024, 135.4959, 35.6812, 139.7671)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if ab != ba {
		t.Fatalf("asymmetric: %v vs %v", ab, ba)
	}
}

func TestDistance_RejectsOutOfRange(t *testing.T) {
	cases := [][4]float64{
		{91, 0, 0, 0},
		{-91, 0, 0, 0},
		{0, 181, 0, 0},
		{0, 0, 0, -181},
	}
	for _, c := range cases {
		if _, err := geo.Distance(c[0], c[1], c[2], c[3]); !errors.Is(err, geo.ErrInvalidCoordinate) {
			t.Fatalf("coords %v: expected ErrInvalidCoordinate, got %v", c, err)
		}
	}
}

func TestWalkingTimeMinutes(t *testing.T) {
	cases := []struct {
		distance float64
		want     int
	}{
		{0, 1},
		{50, 1},
		{80, 1},
		{120, 2},
		{160, 2},
		{200, 3},
		{320, 4},
		{1200, 15},
	}
	for _, c := range cases {
		got, err := geo.WalkingTimeMinutes(c.distance)
		if err != nil {
			t.Fatalf("distance %v: %v", c.distance, err)
		}
		if got != c.want {
			t.Fatalf("distance %v: expected %d min, got %d", c.distance, c.want, got)
		}
	}

	if _, err := geo.WalkingTimeMinutes(-1); !errors.Is(err, geo.ErrNegativeDistance) {
		t.Fatalf("expected ErrNegativeDistance, got %v", err)
	}
}

func TestWithinWalkingDistance(t *testing.T) {
	ok, err := geo.WithinWalkingDistance(800, geo.DefaultWalkMinutes)
	if err != nil || !ok {
		t.Fatalf("800m should be walkable in 15min (ok=%v err=%v)", ok, err)
	}
	ok, err = geo.WithinWalkingDistance(1200, geo.DefaultWalkMinutes)
	if err != nil || !ok {
		t.Fatalf("1200m is exactly 15min (ok=%v err=%v)", ok, err)
	}
	ok, err = geo.WithinWalkingDistance(1250, geo.DefaultWalkMinutes)
	if err != nil || ok {
		t.Fatalf("1250m rounds to 16min (ok=%v err=%v)", ok, err)
	}
	if _, err = geo.WithinWalkingDistance(-5, geo.DefaultWalkMinutes); err == nil {
		t.Fatal("expected error for negative distance")
	}
}

func TestSearchRadiusM(t *testing.T) {
	if got := geo.SearchRadiusM(15); got != 1200 {
		t.Fatalf("expected 1200, got %d", got)
	}
	if got := geo.SearchRadiusM(10); got != 800 {
		t.Fatalf("expected 800, got %d", got)
	}
	if got := geo.SearchRadiusM(0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestNearestStation(t *testing.T) {
	stations := []domain.Station{
		{Name: "東京", Lat: 35.6812, Lon: 139.7671},
		{Name: "新宿", Lat: 35.6896, Lon: 139.7006},
		{Name: "渋谷", Lat: 35.6580, Lon: 139.7016},
	}
	// A point right next to Shibuya.
	st, d, err := geo.NearestStation(35.6585, 139.7020, stations)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.Name != "渋谷" {
		t.Fatalf("expected 渋谷, got %s", st.Name)
	}
	if d <= 0 || d > 200 {
		t.Fatalf("unexpected distance %v", d)
	}
}

func TestNearestStation_TieKeepsFirst(t *testing.T) {
	stations := []domain.Station{
		{Name: "a", Lat: 35.0, Lon: 139.0},
		{Name: "b", Lat: 35.0, Lon: 139.0},
	}
	st, _, err := geo.NearestStation(35.001, 139.0, stations)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.Name != "a" {
		t.Fatalf("expected first of the tied pair, got %s", st.Name)
	}
}

func TestNearestStation_EmptyList(t *testing.T) {
	if _, _, err := geo.NearestStation(35.0, 139.0, nil); !errors.Is(err, geo.ErrNoStations) {
		t.Fatalf("expected ErrNoStations, got %v", err)
	}
}

func TestNormalizeCoordinate(t *testing.T) {
	lat, lon, err := geo.NormalizeCoordinate(35.12345678, 139.98765432)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if lat != 35.123457 || lon != 139.987654 {
		t.Fatalf("unexpected rounding: %v, %v", lat, lon)
	}

	if _, _, err := geo.NormalizeCoordinate(90.5, 0); !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if _, _, err := geo.NormalizeCoordinate(0, -180.5); !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}
