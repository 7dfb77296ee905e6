// Package resolve turns loose user input into concrete values: check-in dates
// from explicit dates or weekday words, canonical station-name forms for
// lookups and cache keys, and the Japanese display strings built from them.
package resolve

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"

	"hotel_recommender/internal/geo"
)

var (
	ErrMissingDateInput = errors.New("resolve: neither date nor weekday given")
	ErrEmptyStationName = errors.New("resolve: empty station name")
)

// JST is the service clock's zone. Weekday resolution is relative to the day
// in Japan, not the host zone.
var JST = loadJST()

func loadJST() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

// Today truncates now to midnight JST.
func Today(now time.Time) time.Time {
	n := now.In(JST)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, JST)
}

var weekdays = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// CheckInDate resolves the stay date. An explicit ISO date wins over a
// weekday; a weekday resolves to its next occurrence strictly after today.
// With neither input it fails with ErrMissingDateInput.
func CheckInDate(dateStr, weekday string, today time.Time) (time.Time, error) {
	if dateStr != "" {
		d, err := time.ParseInLocation("2006-01-02", dateStr, JST)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", dateStr, err)
		}
		return d, nil
	}
	if weekday != "" {
		wd, ok := weekdays[strings.ToLower(weekday)]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown weekday %q", weekday)
		}
		return NextWeekday(today, wd), nil
	}
	return time.Time{}, ErrMissingDateInput
}

// NextWeekday returns the next occurrence of target strictly after base. Asking
// for base's own weekday moves a full week ahead.
func NextWeekday(base time.Time, target time.Weekday) time.Time {
	days := (int(target) - int(base.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return base.AddDate(0, 0, days)
}

// Suffixes recognized as "station", checked in order. At most one is removed.
var stationSuffixes = []string{"駅", "えき", "eki", "station", "sta."}

// NormalizeStationName canonicalizes a station name for lookups: trim, NFKC
// fold (full-width to half-width), drop one station suffix, NFC compose,
// lowercase ASCII letters, and strip remaining whitespace. A name that is
// blank before or after fails with ErrEmptyStationName.
func NormalizeStationName(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyStationName
	}
	s = norm.NFKC.String(s)
	for _, suf := range stationSuffixes {
		if len(s) >= len(suf) && strings.EqualFold(s[len(s)-len(suf):], suf) {
			s = strings.TrimRightFunc(s[:len(s)-len(suf)], unicode.IsSpace)
			break
		}
	}
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return "", ErrEmptyStationName
	}
	return out, nil
}

var yen = message.NewPrinter(language.Japanese)

func walkingMinutes(distanceM int) int {
	m, err := geo.WalkingTimeMinutes(float64(distanceM))
	if err != nil {
		return 1
	}
	return m
}

// FormatDistanceText renders 「<station>駅から徒歩N分」, appending 駅 to the
// station name unless it already ends with it.
func FormatDistanceText(distanceM int, stationName string) string {
	display := stationName
	if !strings.HasSuffix(display, "駅") {
		display += "駅"
	}
	return fmt.Sprintf("%sから徒歩%d分", display, walkingMinutes(distanceM))
}

// FormatReasonText renders the one-line selling point: a walk-time qualifier
// (駅近 within 3 minutes, 好立地 within 7) plus the in-budget price.
func FormatReasonText(distanceM, priceTotal int) string {
	mins := walkingMinutes(distanceM)
	walk := fmt.Sprintf("徒歩%d分", mins)
	var desc string
	switch {
	case mins <= 3:
		desc = "駅近(" + walk + ")"
	case mins <= 7:
		desc = "好立地(" + walk + ")"
	default:
		desc = walk
	}
	return fmt.Sprintf("%s × 予算内(¥%s)", desc, yen.Sprintf("%d", priceTotal))
}
