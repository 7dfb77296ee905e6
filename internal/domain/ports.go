package domain

import "context"

// StationProvider resolves a station name to zero or more concrete stations.
// name is the caller's original spelling (used for display and fallback
// queries), normalized the canonical lookup form.
type StationProvider interface {
	Lookup(ctx context.Context, name, normalized string) ([]Station, error)
}

// HotelProvider searches hotels around a set of stations.
type HotelProvider interface {
	Search(ctx context.Context, q HotelSearch) ([]HotelCandidate, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
