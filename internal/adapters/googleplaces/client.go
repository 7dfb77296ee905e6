// Package googleplaces resolves train stations through the Places Text
// Search API, scoped to Japanese rail (type=train_station, region jp).
package googleplaces

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_recommender/internal/adapters/observability"
	"hotel_recommender/internal/adapters/vendorapi"
	"hotel_recommender/internal/dedupe"
	"hotel_recommender/internal/domain"
	"hotel_recommender/internal/geo"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

type Client struct {
	base     string
	key      string
	hc       *http.Client
	rl       *rate.Limiter
	cache    domain.Cache
	cacheTTL int // seconds
}

// New builds a Places client. cache may be nil; lookups then always hit the
// API.
func New(base, key string, rps int, cache domain.Cache, cacheTTL time.Duration) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("google places: API key is required")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base:     base,
		key:      key,
		hc:       &http.Client{Timeout: 10 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		cache:    cache,
		cacheTTL: int(cacheTTL.Seconds()),
	}, nil
}

func cacheKey(normalized string) string {
	sum := sha256.Sum256([]byte("station:" + normalized + ":google"))
	return hex.EncodeToString(sum[:])[:16]
}

// Lookup resolves a station name, consulting the cache first. A query with no
// usable result retries once with 駅 appended before giving up as not found.
func (c *Client) Lookup(ctx context.Context, name, normalized string) ([]domain.Station, error) {
	key := cacheKey(normalized)
	if c.cache != nil {
		var cached []domain.Station
		if ok, _ := c.cache.Get(ctx, key, &cached); ok {
			log.Debug().Str("station", normalized).Msg("station cache hit")
			return cached, nil
		}
	}

	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	results, err := c.textSearch(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && !strings.HasSuffix(name, "駅") {
		if results, err = c.textSearch(ctx, name+" 駅"); err != nil {
			return nil, err
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no stations for %q: %w", name, domain.ErrStationNotFound)
	}

	stations := make([]domain.Station, 0, len(results))
	for _, r := range results {
		st, err := parsePlace(r, normalized)
		if err != nil {
			log.Warn().Err(err).Str("station", name).Msg("skipping unparseable place result")
			continue
		}
		stations = append(stations, st)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("no valid stations for %q: %w", name, domain.ErrStationNotFound)
	}
	stations = dedupe.Stations(stations)

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, stations, c.cacheTTL); err != nil {
			log.Warn().Err(err).Str("station", normalized).Msg("station cache set failed")
		}
	}
	log.Info().Int("stations", len(stations)).Str("query", name).Msg("stations resolved")
	return stations, nil
}

type placeResult struct {
	Name             string `json:"name"`
	PlaceID          string `json:"place_id"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (c *Client) textSearch(ctx context.Context, query string) ([]placeResult, error) {
	u := c.base + "/textsearch/json?" + url.Values{
		"query":    {query},
		"type":     {"train_station"},
		"language": {"ja"},
		"region":   {"jp"},
		"key":      {c.key},
	}.Encode()

	start := time.Now()
	resp, err := vendorapi.Do(ctx, c.hc, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-recommender/0.1")
		return req, nil
	})
	if err != nil {
		observability.ObserveExternal("google_places", "textsearch", 0, time.Since(start))
		if vendorapi.IsTimeout(err) {
			return nil, fmt.Errorf("places text search %q: %w", query, domain.ErrTimeout)
		}
		return nil, fmt.Errorf("places text search %q: %w", query, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("google_places", "textsearch", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("places text search: %w", domain.ErrRateLimited)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, fmt.Errorf("places text search status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("places text search status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var body struct {
		Status       string        `json:"status"`
		ErrorMessage string        `json:"error_message"`
		Results      []placeResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("places text search decode: %w", err)
	}
	switch body.Status {
	case "OK", "ZERO_RESULTS":
		return body.Results, nil
	case "OVER_QUERY_LIMIT":
		return nil, fmt.Errorf("places quota exhausted: %w", domain.ErrRateLimited)
	default:
		return nil, fmt.Errorf("places status %s: %s", body.Status, body.ErrorMessage)
	}
}

func parsePlace(r placeResult, normalized string) (domain.Station, error) {
	loc := r.Geometry.Location
	if loc.Lat == nil || loc.Lng == nil {
		return domain.Station{}, errors.New("place result missing coordinates")
	}
	if r.Name == "" {
		return domain.Station{}, errors.New("place result missing name")
	}
	lat, lon, err := geo.NormalizeCoordinate(*loc.Lat, *loc.Lng)
	if err != nil {
		return domain.Station{}, err
	}
	st := domain.Station{
		Name:           r.Name,
		NormalizedName: normalized,
		Lat:            lat,
		Lon:            lon,
	}
	if r.PlaceID != "" {
		st.PlaceID = &r.PlaceID
	}
	if r.FormattedAddress != "" {
		st.Address = &r.FormattedAddress
	}
	return st, nil
}
