package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrStationNotFound = errors.New("station not found")
	ErrHotelNotFound   = errors.New("hotel not found")
	ErrTimeout         = errors.New("provider timeout")
	ErrRateLimited     = errors.New("provider rate limited")
	ErrUnavailable     = errors.New("provider unavailable")
	ErrQuotaExceeded   = errors.New("provider quota exceeded")
)

// NoStationsError reports that every requested station failed to resolve,
// keyed by the name the caller asked for.
type NoStationsError struct {
	Failures map[string]error
}

func (e *NoStationsError) Error() string {
	if len(e.Failures) == 0 {
		return "no stations found"
	}
	names := make([]string, 0, len(e.Failures))
	for n := range e.Failures {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", n, e.Failures[n]))
	}
	return "no stations found: " + strings.Join(parts, "; ")
}

func (e *NoStationsError) Is(target error) bool { return target == ErrStationNotFound }
