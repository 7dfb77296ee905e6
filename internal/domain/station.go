package domain

// Station is a resolved train station as returned by a station provider.
type Station struct {
	Name           string
	NormalizedName string
	Lat, Lon       float64
	PlaceID        *string
	Address        *string
}
