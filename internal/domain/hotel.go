package domain

import "time"

// HotelCandidate is one bookable hotel as returned by a hotel provider,
// before ranking. Cancellable is tri-state: nil means the provider did not say.
type HotelCandidate struct {
	ID          string
	Name        string
	Lat, Lon    float64
	PriceTotal  int // total stay price in yen
	Cancellable *bool
	Highlights  []string
	BookingURL  string
}

// Read models & queries

type SuggestionQuery struct {
	Stations []string
	PriceMax int
	Date     string // ISO yyyy-mm-dd, wins over Weekday when both are set
	Weekday  string // mon..sun
}

type HotelSearch struct {
	Stations      []Station
	MaxPriceTotal int
	CheckIn       time.Time
	RadiusM       int
	MaxResults    int
}

type Recommendation struct {
	HotelID      string
	Name         string
	DistanceText string // e.g. 新宿駅から徒歩4分
	DistanceM    int
	PriceTotal   int
	Cancellable  *bool
	Highlights   []string
	BookingURL   string
	Reason       string
}

type Suggestion struct {
	ResolvedDate time.Time
	Results      []Recommendation
}
