package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hotel_recommender/internal/app"
	"hotel_recommender/internal/domain"
	"hotel_recommender/internal/resolve"
)

const maxRequestBody = 1 << 20

var validate = validator.New()

type Handlers struct {
	Svc *app.RecommendationService

	PlacesConfigured    bool
	RakutenConfigured   bool
	AffiliateConfigured bool
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/health", h.health)
	s.mux.Post("/api/suggest", h.suggest)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- GET /health ----

type healthEnvironment struct {
	GooglePlacesConfigured     bool `json:"google_places_configured"`
	RakutenAppConfigured       bool `json:"rakuten_app_configured"`
	RakutenAffiliateConfigured bool `json:"rakuten_affiliate_configured"`
}

type healthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Service     string            `json:"service"`
	Version     string            `json:"version"`
	Environment healthEnvironment `json:"environment"`
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Service:   "hotel-recommender",
		Version:   "0.1.0",
		Environment: healthEnvironment{
			GooglePlacesConfigured:     h.PlacesConfigured,
			RakutenAppConfigured:       h.RakutenConfigured,
			RakutenAffiliateConfigured: h.AffiliateConfigured,
		},
	})
}

// ---- POST /api/suggest ----

type suggestRequest struct {
	Stations []string `json:"stations" validate:"required,min=1,max=10,dive,required"`
	PriceMax int      `json:"price_max" validate:"required,min=1000,max=100000"`
	Date     string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Weekday  string   `json:"weekday" validate:"omitempty,oneof=mon tue wed thu fri sat sun"`
}

type hotelResult struct {
	HotelID      string   `json:"hotel_id"`
	Name         string   `json:"name"`
	DistanceText string   `json:"distance_text"`
	DistanceM    int      `json:"distance_m"`
	PriceTotal   int      `json:"price_total"`
	Cancellable  *bool    `json:"cancellable"`
	Highlights   []string `json:"highlights"`
	BookingURL   string   `json:"booking_url"`
	Reason       string   `json:"reason"`
}

type suggestResponse struct {
	ResolvedDate string        `json:"resolved_date"`
	Results      []hotelResult `json:"results"`
}

func (h *Handlers) suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", "request body must be valid JSON")
		return
	}

	// blank entries are dropped silently; only an all-blank list is an error
	cleaned := make([]string, 0, len(req.Stations))
	for _, s := range req.Stations {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	req.Stations = cleaned

	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", err.Error())
		return
	}
	seen := make(map[string]bool, len(req.Stations))
	for _, s := range req.Stations {
		if seen[s] {
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", "duplicate station names are not allowed")
			return
		}
		seen[s] = true
	}
	if req.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", req.Date, resolve.JST)
		if err != nil {
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", "date must be in YYYY-MM-DD format")
			return
		}
		if d.Before(resolve.Today(time.Now())) {
			writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", "date cannot be in the past")
			return
		}
	}

	out, err := h.Svc.GetRecommendations(r.Context(), domain.SuggestionQuery{
		Stations: req.Stations,
		PriceMax: req.PriceMax,
		Date:     req.Date,
		Weekday:  req.Weekday,
	})
	if err != nil {
		writeSuggestError(w, err)
		return
	}

	results := make([]hotelResult, 0, len(out.Results))
	for _, rec := range out.Results {
		highlights := rec.Highlights
		if highlights == nil {
			highlights = []string{}
		}
		results = append(results, hotelResult{
			HotelID:      rec.HotelID,
			Name:         rec.Name,
			DistanceText: rec.DistanceText,
			DistanceM:    rec.DistanceM,
			PriceTotal:   rec.PriceTotal,
			Cancellable:  rec.Cancellable,
			Highlights:   highlights,
			BookingURL:   rec.BookingURL,
			Reason:       rec.Reason,
		})
	}
	writeJSON(w, http.StatusOK, suggestResponse{
		ResolvedDate: out.ResolvedDate.Format("2006-01-02"),
		Results:      results,
	})
}

func writeSuggestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resolve.ErrMissingDateInput):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Request", "either date or weekday is required")
	case errors.Is(err, domain.ErrStationNotFound):
		writeProblem(w, http.StatusNotFound, "No Stations Found", err.Error())
	case errors.Is(err, domain.ErrTimeout):
		writeProblem(w, http.StatusGatewayTimeout, "Upstream Timeout", "an external provider timed out")
	case errors.Is(err, domain.ErrRateLimited):
		writeProblem(w, http.StatusTooManyRequests, "Rate Limited", "an external provider is rate limiting requests")
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrQuotaExceeded):
		writeProblem(w, http.StatusBadGateway, "Upstream Unavailable", "an external provider is unavailable")
	default:
		log.Error().Err(err).Msg("suggestion request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
	}
}
