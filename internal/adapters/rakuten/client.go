// Package rakuten searches hotels through the Rakuten Travel
// SimpleHotelSearch API, one sub-search per station, with affiliate
// booking links and cached aggregate results.
package rakuten

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_recommender/internal/adapters/observability"
	"hotel_recommender/internal/adapters/vendorapi"
	"hotel_recommender/internal/dedupe"
	"hotel_recommender/internal/domain"
	"hotel_recommender/internal/geo"
	"hotel_recommender/internal/resolve"
)

const (
	DefaultBaseURL = "https://app.rakuten.co.jp/services/api"

	maxSearchRadiusM = 3000
	maxResultsCap    = 200
	hitsPerRequest   = 30 // API limit
)

type Client struct {
	base        string
	appID       string
	affiliateID string
	hc          *http.Client
	rl          *rate.Limiter
	cache       domain.Cache
	cacheTTL    int // seconds
}

// New builds a Rakuten Travel client. affiliateID may be empty; booking
// links then carry no affiliate tracking. cache may be nil.
func New(base, appID, affiliateID string, rps int, cache domain.Cache, cacheTTL time.Duration) (*Client, error) {
	if appID == "" {
		return nil, fmt.Errorf("rakuten: application ID is required")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:        base,
		appID:       appID,
		affiliateID: affiliateID,
		hc:          &http.Client{Timeout: 30 * time.Second},
		rl:          rate.NewLimiter(rate.Limit(rps), rps),
		cache:       cache,
		cacheTTL:    int(cacheTTL.Seconds()),
	}, nil
}

// Search runs one sub-search per station, merges and deduplicates the hits,
// and returns them ordered by a coarse distance/price priority. A station
// whose sub-search fails is skipped; if every sub-search comes back empty
// the first provider error (if any) is returned, otherwise ErrHotelNotFound.
func (c *Client) Search(ctx context.Context, s domain.HotelSearch) ([]domain.HotelCandidate, error) {
	if err := validateSearch(s); err != nil {
		return nil, err
	}

	key := cacheKey(s)
	if c.cache != nil {
		var cached []domain.HotelCandidate
		if ok, _ := c.cache.Get(ctx, key, &cached); ok {
			log.Debug().Str("key", key).Msg("hotel cache hit")
			return cached, nil
		}
	}

	var all []domain.HotelCandidate
	dist := make(map[string]float64)
	var firstErr error

	for _, st := range s.Stations {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		found, err := c.searchNear(ctx, st, s)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Warn().Err(err).Str("station", st.Name).Msg("hotel sub-search failed")
			continue
		}
		for _, h := range found {
			d, derr := geo.Distance(st.Lat, st.Lon, h.Lat, h.Lon)
			if derr != nil {
				continue
			}
			if _, ok := dist[h.ID]; !ok {
				dist[h.ID] = d
			}
			all = append(all, h)
		}
	}

	if len(all) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, fmt.Errorf("no hotels within %dm of stations under ¥%d: %w",
			s.RadiusM, s.MaxPriceTotal, domain.ErrHotelNotFound)
	}

	unique := dedupe.Hotels(all)
	scores := make(map[string]float64, len(unique))
	for _, h := range unique {
		scores[h.ID] = priorityScore(h, dist[h.ID])
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return scores[unique[i].ID] > scores[unique[j].ID]
	})
	if len(unique) > s.MaxResults {
		unique = unique[:s.MaxResults]
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, unique, c.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("hotel cache set failed")
		}
	}
	log.Info().Int("hotels", len(unique)).Int("stations", len(s.Stations)).Msg("hotel search completed")
	return unique, nil
}

func validateSearch(s domain.HotelSearch) error {
	if len(s.Stations) == 0 {
		return errors.New("at least one station must be provided")
	}
	if s.MaxPriceTotal < 1000 {
		return errors.New("maximum price must be at least 1000 JPY")
	}
	if s.MaxPriceTotal > 100000 {
		return errors.New("maximum price must not exceed 100000 JPY")
	}
	if s.RadiusM <= 0 {
		return errors.New("search radius must be positive")
	}
	if s.RadiusM > maxSearchRadiusM {
		return fmt.Errorf("search radius %dm exceeds maximum %dm", s.RadiusM, maxSearchRadiusM)
	}
	if s.MaxResults <= 0 {
		return errors.New("maximum results must be positive")
	}
	if s.MaxResults > maxResultsCap {
		return fmt.Errorf("maximum results must not exceed %d", maxResultsCap)
	}
	today := resolve.Today(time.Now())
	if s.CheckIn.Before(today) {
		return errors.New("check-in date cannot be in the past")
	}
	if s.CheckIn.After(today.AddDate(0, 0, 365)) {
		return errors.New("check-in date cannot be more than 1 year in the future")
	}
	return nil
}

// cacheKey is deterministic across station order: coordinates are joined
// after sorting by place id.
func cacheKey(s domain.HotelSearch) string {
	sorted := make([]domain.Station, len(s.Stations))
	copy(sorted, s.Stations)
	sort.Slice(sorted, func(i, j int) bool {
		return placeID(sorted[i]) < placeID(sorted[j])
	})
	parts := make([]string, 0, len(sorted))
	for _, st := range sorted {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", st.Lat, st.Lon))
	}
	key := fmt.Sprintf("hotels:rakuten:coords=%s:price=%d:date=%s:radius=%d",
		strings.Join(parts, ":"), s.MaxPriceTotal, s.CheckIn.Format("2006-01-02"), s.RadiusM)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

func placeID(st domain.Station) string {
	if st.PlaceID == nil {
		return ""
	}
	return *st.PlaceID
}

// priorityScore is a coarse pre-ranking used to pick which candidates
// survive the result cap: distance to the origin station (50%), price
// band (40%), plus up to 0.2 for listed highlights.
func priorityScore(h domain.HotelCandidate, distM float64) float64 {
	if distM <= 0 || h.PriceTotal <= 0 {
		return 0
	}
	distanceScore := math.Max(0, 1.0-distM/1000.0)

	var priceScore float64
	switch {
	case h.PriceTotal <= 3000:
		priceScore = 1.0
	case h.PriceTotal >= 20000:
		priceScore = 0.1
	default:
		priceScore = 1.0 - float64(h.PriceTotal-3000)/17000.0*0.9
	}

	bonus := math.Min(0.2, float64(len(h.Highlights))*0.02)
	return distanceScore*0.5 + priceScore*0.4 + bonus
}

type searchResponse struct {
	Error  json.RawMessage `json:"error"`
	Hotels []hotelWrapper  `json:"hotels"`
}

type hotelWrapper struct {
	Hotel []hotelEntry `json:"hotel"`
}

type hotelEntry struct {
	BasicInfo *hotelBasicInfo `json:"hotelBasicInfo"`
	PlanList  []planEntry     `json:"planList"`
}

type hotelBasicInfo struct {
	HotelNo         json.Number `json:"hotelNo"`
	HotelName       string      `json:"hotelName"`
	Latitude        *float64    `json:"latitude"`
	Longitude       *float64    `json:"longitude"`
	HotelMinCharge  int         `json:"hotelMinCharge"`
	HotelFacilities string      `json:"hotelFacilities"`
	HotelSpecial    string      `json:"hotelSpecial"`
}

type planEntry struct {
	PlanBasicInfo struct {
		PlanCharge    int `json:"planCharge"`
		RoomBasicInfo struct {
			RoomName string `json:"roomName"`
		} `json:"roomBasicInfo"`
	} `json:"planBasicInfo"`
}

func (c *Client) searchNear(ctx context.Context, st domain.Station, s domain.HotelSearch) ([]domain.HotelCandidate, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	hits := s.MaxResults/len(s.Stations) + 10
	if hits > hitsPerRequest {
		hits = hitsPerRequest
	}
	params := url.Values{
		"applicationId": {c.appID},
		"latitude":      {fmt.Sprintf("%.6f", st.Lat)},
		"longitude":     {fmt.Sprintf("%.6f", st.Lon)},
		"searchRadius":  {fmt.Sprintf("%.1f", float64(s.RadiusM)/1000.0)},
		"checkinDate":   {s.CheckIn.Format("2006-01-02")},
		"checkoutDate":  {s.CheckIn.Format("2006-01-02")},
		"adultNum":      {"1"},
		"maxCharge":     {strconv.Itoa(s.MaxPriceTotal)},
		"hits":          {strconv.Itoa(hits)},
		"responseType":  {"large"},
		"datumType":     {"1"}, // WGS84
		"sort":          {"standard"},
	}
	if c.affiliateID != "" {
		params.Set("affiliateId", c.affiliateID)
	}
	u := c.base + "/Travel/SimpleHotelSearch/20170426?" + params.Encode()

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
		observability.ObserveExternal("rakuten_travel", "simple_hotel_search", 0, time.Since(start))
		if vendorapi.IsTimeout(err) {
			return nil, fmt.Errorf("rakuten search near %s: %w", st.Name, domain.ErrTimeout)
		}
		return nil, fmt.Errorf("rakuten search near %s: %w", st.Name, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("rakuten_travel", "simple_hotel_search", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rakuten rate limit: %w", domain.ErrRateLimited)
	case http.StatusForbidden:
		return nil, fmt.Errorf("rakuten quota exhausted: %w", domain.ErrQuotaExceeded)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, fmt.Errorf("rakuten unavailable (status %d): %w", resp.StatusCode, domain.ErrUnavailable)
	default:
		return nil, fmt.Errorf("rakuten search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("rakuten response decode: %w", err)
	}
	if len(body.Error) > 0 && string(body.Error) != "null" {
		// API-level errors (bad parameters etc.) count as an empty
		// sub-search, not a provider outage.
		log.Error().RawJSON("error", body.Error).Msg("rakuten api error")
		return nil, nil
	}

	out := make([]domain.HotelCandidate, 0, len(body.Hotels))
	for _, w := range body.Hotels {
		h, ok := c.parseHotel(w, s.CheckIn)
		if !ok {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (c *Client) parseHotel(w hotelWrapper, checkIn time.Time) (domain.HotelCandidate, bool) {
	if len(w.Hotel) == 0 || w.Hotel[0].BasicInfo == nil {
		return domain.HotelCandidate{}, false
	}
	entry := w.Hotel[0]
	b := entry.BasicInfo

	id := b.HotelNo.String()
	if id == "" || id == "0" || b.HotelName == "" || b.Latitude == nil || b.Longitude == nil {
		return domain.HotelCandidate{}, false
	}
	if *b.Latitude == 0 || *b.Longitude == 0 {
		return domain.HotelCandidate{}, false
	}
	lat, lon, err := geo.NormalizeCoordinate(*b.Latitude, *b.Longitude)
	if err != nil {
		return domain.HotelCandidate{}, false
	}

	price := b.HotelMinCharge
	if price == 0 {
		for _, p := range entry.PlanList {
			if charge := p.PlanBasicInfo.PlanCharge; charge > 0 && (price == 0 || charge < price) {
				price = charge
			}
		}
	}

	var highlights []string
	for _, f := range strings.Split(b.HotelFacilities, ",") {
		if f = strings.TrimSpace(f); f != "" {
			highlights = append(highlights, f)
		}
	}
	if b.HotelSpecial != "" {
		highlights = append(highlights, b.HotelSpecial)
	}
	plans := entry.PlanList
	if len(plans) > 3 {
		plans = plans[:3]
	}
	for _, p := range plans {
		name := p.PlanBasicInfo.RoomBasicInfo.RoomName
		if name == "" || containsString(highlights, name) {
			continue
		}
		highlights = append(highlights, name)
	}
	if len(highlights) > 5 {
		highlights = highlights[:5]
	}

	return domain.HotelCandidate{
		ID:         id,
		Name:       b.HotelName,
		Lat:        lat,
		Lon:        lon,
		PriceTotal: price,
		Highlights: highlights,
		BookingURL: c.bookingURL(id, checkIn),
	}, true
}

func (c *Client) bookingURL(hotelID string, checkIn time.Time) string {
	v := url.Values{
		"f_no":     {hotelID},
		"f_ci":     {checkIn.Format("20060102")},
		"f_co":     {checkIn.Format("20060102")},
		"f_teikei": {"1"},
	}
	if c.affiliateID != "" {
		v.Set("f_afcid", c.affiliateID)
	}
	return "https://travel.rakuten.co.jp/HOTEL?" + v.Encode()
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
