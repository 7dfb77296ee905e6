package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_recommender/internal/dedupe"
	"hotel_recommender/internal/domain"
	"hotel_recommender/internal/geo"
	"hotel_recommender/internal/recommend"
	"hotel_recommender/internal/resolve"
)

const (
	searchRadiusM = 800
	maxCandidates = 50
	maxResults    = 3

	// referenceBudget is the nightly price treated as high end when deriving
	// ranking criteria from the request.
	referenceBudget = 20000.0
)

// RecommendationService runs the whole suggestion workflow: resolve the date,
// resolve and dedupe stations, fetch candidates, rank, and format the top
// results.
type RecommendationService struct {
	stations domain.StationProvider
	hotels   domain.HotelProvider
	engine   *recommend.Engine
	sem      *semaphore.Weighted
	now      func() time.Time
}

// NewRecommendationService wires the workflow. lookupWorkers bounds concurrent
// station lookups; now may be nil for the wall clock.
func NewRecommendationService(stations domain.StationProvider, hotels domain.HotelProvider, engine *recommend.Engine, lookupWorkers int, now func() time.Time) *RecommendationService {
	if lookupWorkers < 1 {
		lookupWorkers = 1
	}
	if now == nil {
		now = time.Now
	}
	return &RecommendationService{
		stations: stations,
		hotels:   hotels,
		engine:   engine,
		sem:      semaphore.NewWeighted(int64(lookupWorkers)),
		now:      now,
	}
}

// GetRecommendations resolves the request into at most three ranked hotels.
// Individual station failures are tolerated as long as one name resolves;
// a hotel-provider "nothing found" degrades to an empty result set carrying
// the resolved date.
func (s *RecommendationService) GetRecommendations(ctx context.Context, q domain.SuggestionQuery) (domain.Suggestion, error) {
	checkIn, err := resolve.CheckInDate(q.Date, q.Weekday, resolve.Today(s.now()))
	if err != nil {
		return domain.Suggestion{}, err
	}

	stations, failures := s.lookupStations(ctx, q.Stations)
	if err := ctx.Err(); err != nil {
		return domain.Suggestion{}, err
	}
	if len(stations) == 0 {
		return domain.Suggestion{}, &domain.NoStationsError{Failures: failures}
	}
	unique := dedupe.Stations(stations)
	log.Info().
		Int("requested", len(q.Stations)).
		Int("resolved", len(stations)).
		Int("unique", len(unique)).
		Msg("stations resolved")

	hotels, err := s.hotels.Search(ctx, domain.HotelSearch{
		Stations:      unique,
		MaxPriceTotal: q.PriceMax,
		CheckIn:       checkIn,
		RadiusM:       searchRadiusM,
		MaxResults:    maxCandidates,
	})
	if err != nil {
		if errors.Is(err, domain.ErrHotelNotFound) {
			log.Info().Time("check_in", checkIn).Msg("no hotels found, returning empty results")
			return domain.Suggestion{ResolvedDate: checkIn, Results: []domain.Recommendation{}}, nil
		}
		return domain.Suggestion{}, fmt.Errorf("hotel search: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Suggestion{}, err
	}

	rc := recommend.Context{
		Budget:              q.PriceMax,
		Stations:            unique,
		CheckIn:             checkIn,
		Criteria:            CriteriaFor(q),
		MaxWalkingDistanceM: float64(geo.SearchRadiusM(geo.DefaultWalkMinutes)),
	}
	ranked := s.engine.Rank(hotels, rc)
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	results := make([]domain.Recommendation, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, buildRecommendation(r, unique))
	}
	log.Info().Int("results", len(results)).Time("check_in", checkIn).Msg("returning recommendations")
	return domain.Suggestion{ResolvedDate: checkIn, Results: results}, nil
}

// lookupStations fans the names out to the provider under the worker cap and
// merges results back in request order. Failures come back keyed by the
// caller's original spelling.
func (s *RecommendationService) lookupStations(ctx context.Context, names []string) ([]domain.Station, map[string]error) {
	results := make([][]domain.Station, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		normalized, err := resolve.NormalizeStationName(name)
		if err != nil {
			errs[i] = err
			continue
		}
		if err := s.sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(i int, name, normalized string) {
			defer wg.Done()
			defer s.sem.Release(1)
			found, err := s.stations.Lookup(ctx, name, normalized)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = found
		}(i, name, normalized)
	}
	wg.Wait()

	var stations []domain.Station
	failures := make(map[string]error)
	for i, name := range names {
		if errs[i] != nil {
			failures[name] = errs[i]
			log.Warn().Str("station", name).Err(errs[i]).Msg("station lookup failed")
			continue
		}
		stations = append(stations, results[i]...)
	}
	return stations, failures
}

func buildRecommendation(r recommend.Ranked, stations []domain.Station) domain.Recommendation {
	distM := 0
	if _, d, err := geo.NearestStation(r.Hotel.Lat, r.Hotel.Lon, stations); err == nil {
		distM = int(d)
	}
	return domain.Recommendation{
		HotelID:      r.Hotel.ID,
		Name:         r.Hotel.Name,
		DistanceText: resolve.FormatDistanceText(distM, r.Score.NearestStation),
		DistanceM:    distM,
		PriceTotal:   r.Hotel.PriceTotal,
		Cancellable:  r.Hotel.Cancellable,
		Highlights:   r.Hotel.Highlights,
		BookingURL:   r.Hotel.BookingURL,
		Reason:       r.Score.Reason,
	}
}

// CriteriaFor infers the ranking emphasis from the request itself: the budget
// against a 20,000 yen reference night decides price emphasis, then a
// single-station trip emphasizes distance.
func CriteriaFor(q domain.SuggestionQuery) recommend.Criteria {
	ratio := float64(q.PriceMax) / referenceBudget
	switch {
	case ratio <= 0.4:
		return recommend.BudgetFocused
	case ratio >= 0.8:
		return recommend.ComfortFocused
	case len(q.Stations) == 1:
		return recommend.DistanceFocused
	default:
		return recommend.Balanced
	}
}
