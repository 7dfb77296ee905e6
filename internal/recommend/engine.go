// Package recommend scores and ranks hotel candidates against a stay context.
// Scoring is pure: same candidates and context, same ranking.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_recommender/internal/domain"
	"hotel_recommender/internal/geo"
)

type Criteria string

const (
	DistanceFocused Criteria = "distance_focused"
	BudgetFocused   Criteria = "budget_focused"
	ComfortFocused  Criteria = "comfort_focused"
	Balanced        Criteria = "balanced"
)

// Weights splits the total score across the four components. A valid set sums
// to 1.
type Weights struct {
	Distance     float64
	PriceValue   float64
	Amenities    float64
	Availability float64
}

const weightSumTolerance = 1e-6

// NewWeights builds a weight set, failing unless the components sum to 1.
func NewWeights(distance, priceValue, amenities, availability float64) (Weights, error) {
	w := Weights{Distance: distance, PriceValue: priceValue, Amenities: amenities, Availability: availability}
	sum := distance + priceValue + amenities + availability
	if math.Abs(sum-1) > weightSumTolerance {
		return Weights{}, fmt.Errorf("recommend: weights sum to %v, want 1", sum)
	}
	return w, nil
}

var criteriaWeights = map[Criteria]Weights{
	DistanceFocused: {Distance: 0.6, PriceValue: 0.2, Amenities: 0.1, Availability: 0.1},
	BudgetFocused:   {Distance: 0.2, PriceValue: 0.6, Amenities: 0.1, Availability: 0.1},
	ComfortFocused:  {Distance: 0.1, PriceValue: 0.2, Amenities: 0.6, Availability: 0.1},
	Balanced:        {Distance: 0.4, PriceValue: 0.3, Amenities: 0.2, Availability: 0.1},
}

// WeightsFor returns the profile for c, falling back to the balanced profile
// for values it does not know.
func WeightsFor(c Criteria) Weights {
	if w, ok := criteriaWeights[c]; ok {
		return w
	}
	return criteriaWeights[Balanced]
}

// Context carries everything about the stay that scoring needs. MinRating is
// reserved for a future provider that reports ratings; it is never enforced.
type Context struct {
	Budget              int
	Stations            []domain.Station
	CheckIn             time.Time
	Criteria            Criteria
	MaxWalkingDistanceM float64
	MinRating           float64
	PreferredAmenities  []string
}

// Score is the full breakdown for one candidate. Component scores sit in
// [0,1] except Amenities, whose raw sum may exceed 1; Total is clamped.
type Score struct {
	Total          float64
	Distance       float64
	PriceValue     float64
	Amenities      float64
	Availability   float64
	NearestStation string
	WalkingMinutes int
	PriceRank      int
	ValueRank      int
	Reason         string
}

// Ranked pairs a surviving candidate with its score.
type Ranked struct {
	Hotel domain.HotelCandidate
	Score Score
}

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Rank filters candidates against the context's hard limits, scores the
// survivors, and returns them ordered by total score descending. Equal totals
// keep their input order. Price and value ranks are relative to the surviving
// set only.
func (e *Engine) Rank(hotels []domain.HotelCandidate, rc Context) []Ranked {
	if len(hotels) == 0 {
		log.Warn().Msg("no candidates to rank")
		return nil
	}
	w := WeightsFor(rc.Criteria)
	ranked := make([]Ranked, 0, len(hotels))
	for _, h := range hotels {
		if !passesHardFilters(h, rc) {
			continue
		}
		ranked = append(ranked, Ranked{Hotel: h, Score: e.score(h, rc, w)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Total > ranked[j].Score.Total
	})
	assignRelativeRanks(ranked)
	log.Info().Int("ranked", len(ranked)).Int("candidates", len(hotels)).Msg("ranked hotel candidates")
	return ranked
}

func passesHardFilters(h domain.HotelCandidate, rc Context) bool {
	if h.PriceTotal > rc.Budget {
		return false
	}
	if len(rc.Stations) > 0 && rc.MaxWalkingDistanceM > 0 {
		if d := minStationDistance(h, rc.Stations); d > rc.MaxWalkingDistanceM {
			return false
		}
	}
	return true
}

func (e *Engine) score(h domain.HotelCandidate, rc Context, w Weights) Score {
	s := Score{
		Distance:     distanceScore(h, rc.Stations),
		PriceValue:   priceScore(h.PriceTotal, rc.Budget),
		Amenities:    amenitiesScore(h.Highlights, rc.PreferredAmenities),
		Availability: availabilityScore(h.Cancellable),
	}
	total := w.Distance*s.Distance + w.PriceValue*s.PriceValue +
		w.Amenities*s.Amenities + w.Availability*s.Availability
	s.Total = clamp01(total)

	if st, d, err := geo.NearestStation(h.Lat, h.Lon, rc.Stations); err == nil {
		s.NearestStation = st.Name
		if m, merr := geo.WalkingTimeMinutes(d); merr == nil {
			s.WalkingMinutes = m
		}
	} else {
		s.NearestStation = "Unknown"
	}
	s.Reason = reason(s, rc.Criteria)
	return s
}

// minStationDistance is +Inf when no pair of coordinates is computable, which
// the filters and the distance curve both treat as "far".
func minStationDistance(h domain.HotelCandidate, stations []domain.Station) float64 {
	min := math.Inf(1)
	for _, st := range stations {
		d, err := geo.Distance(h.Lat, h.Lon, st.Lat, st.Lon)
		if err != nil {
			continue
		}
		if d < min {
			min = d
		}
	}
	return min
}

// distanceScore decays exponentially with the nearest-station distance. With
// no stations at all the component is a neutral 0.5.
func distanceScore(h domain.HotelCandidate, stations []domain.Station) float64 {
	if len(stations) == 0 {
		return 0.5
	}
	d := minStationDistance(h, stations)
	switch {
	case d <= 0:
		return 1.0
	case d >= 2000:
		return 0.1
	default:
		return math.Exp(-d/600)*0.9 + 0.1
	}
}

// priceScore rates value for money as a ratio of price to budget: a ramp for
// suspicious cheapness, a peak band around 60% of budget, and a decay toward
// budget exhaustion. The band edges are deliberate fixed points, covered by
// tests; do not smooth them.
func priceScore(price, budget int) float64 {
	if price <= 0 || price > budget {
		return 0
	}
	r := float64(price) / float64(budget)
	switch {
	case r <= 0.3:
		return 0.5 + (r/0.3)*0.3
	case r <= 0.7:
		return 0.8 + (1-math.Abs(r-0.6)/0.1)*0.2
	default:
		return 0.8 - ((r-0.7)/0.3)*0.7
	}
}

// highValueAmenities are the keywords worth a bonus per highlight mentioning
// one.
var highValueAmenities = []string{
	"wifi", "parking", "breakfast", "onsen", "spa", "gym",
	"restaurant", "concierge", "business", "meeting", "airport", "shuttle",
}

// amenitiesScore sums a count base, a preferred-amenity match ratio, and a
// high-value keyword bonus. Each highlight counts once toward the bonus no
// matter how many keywords it mentions. The sum is intentionally left
// unclamped; only the weighted total is clamped.
func amenitiesScore(highlights, preferred []string) float64 {
	if len(highlights) == 0 {
		return 0.2
	}
	score := math.Min(float64(len(highlights))/10, 0.6)

	if len(preferred) > 0 {
		matches := 0
		for _, p := range preferred {
			lp := strings.ToLower(p)
			for _, h := range highlights {
				if strings.Contains(strings.ToLower(h), lp) {
					matches++
					break
				}
			}
		}
		score += math.Min(float64(matches)/float64(len(preferred)), 0.4)
	}

	bonus := 0.0
	for _, h := range highlights {
		lh := strings.ToLower(h)
		for _, kw := range highValueAmenities {
			if strings.Contains(lh, kw) {
				bonus += 0.05
				break
			}
		}
	}
	return score + math.Min(bonus, 0.4)
}

// availabilityScore starts from an optimistic 0.7 and moves on the tri-state
// cancellable flag.
func availabilityScore(cancellable *bool) float64 {
	s := 0.7
	if cancellable != nil {
		if *cancellable {
			s += 0.3
		} else {
			s -= 0.2
		}
	}
	return clamp01(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// reason builds the Japanese selling points: up to three phrases joined by 、,
// drawn from strong component scores and the active criteria.
func reason(s Score, c Criteria) string {
	var phrases []string
	switch {
	case s.Distance > 0.8:
		phrases = append(phrases, "駅から非常に近い立地")
	case s.Distance > 0.6:
		phrases = append(phrases, "駅から徒歩圏内の好立地")
	}
	switch {
	case s.PriceValue > 0.8:
		phrases = append(phrases, "優れたコストパフォーマンス")
	case s.PriceValue > 0.6:
		phrases = append(phrases, "お手頃な価格設定")
	}
	switch {
	case s.Amenities > 0.8:
		phrases = append(phrases, "充実した設備・サービス")
	case s.Amenities > 0.6:
		phrases = append(phrases, "良質なアメニティ")
	}
	switch c {
	case DistanceFocused:
		if s.Distance > 0.5 {
			phrases = append(phrases, "アクセス重視の条件に最適")
		}
	case BudgetFocused:
		if s.PriceValue > 0.5 {
			phrases = append(phrases, "予算効率を重視した選択")
		}
	case ComfortFocused:
		if s.Amenities > 0.5 {
			phrases = append(phrases, "快適性重視の条件に適合")
		}
	}
	if len(phrases) == 0 {
		return "バランスの取れた選択肢"
	}
	if len(phrases) > 3 {
		phrases = phrases[:3]
	}
	return strings.Join(phrases, "、")
}

// assignRelativeRanks stamps 1-based positions: PriceRank orders the survivors
// by raw price ascending, ValueRank by the price component descending.
func assignRelativeRanks(ranked []Ranked) {
	idx := make([]int, len(ranked))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return ranked[idx[a]].Hotel.PriceTotal < ranked[idx[b]].Hotel.PriceTotal
	})
	for pos, i := range idx {
		ranked[i].Score.PriceRank = pos + 1
	}

	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ranked[idx[a]].Score.PriceValue > ranked[idx[b]].Score.PriceValue
	})
	for pos, i := range idx {
		ranked[i].Score.ValueRank = pos + 1
	}
}
