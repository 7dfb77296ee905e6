package resolve_test

import (
	"errors"
	"testing"
	"time"

	"hotel_recommender/internal/resolve"
)

// 2025-09-17 is a Wednesday.
var wednesday = time.Date(2025, 9, 17, 0, 0, 0, 0, resolve.JST)

func TestCheckInDate_ExplicitDateWins(t *testing.T) {
	d, err := resolve.CheckInDate("2025-09-19", "mon", wednesday)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := time.Date(2025, 9, 19, 0, 0, 0, 0, resolve.JST)
	if !d.Equal(want) {
		t.Fatalf("expected %v, got %v", want, d)
	}
}

func TestCheckInDate_InvalidDate(t *testing.T) {
	if _, err := resolve.CheckInDate("2025-13-40", "", wednesday); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := resolve.CheckInDate("19-09-2025", "", wednesday); err == nil {
		t.Fatal("expected parse error for non-ISO layout")
	}
}

func TestCheckInDate_Weekday(t *testing.T) {
	cases := []struct {
		weekday string
		wantDay int
	}{
		{"fri", 19},
		{"sun", 21},
		{"mon", 22},
		{"wed", 24}, // same weekday as today moves a full week
		{"FRI", 19},
	}
	for _, c := range cases {
		d, err := resolve.CheckInDate("", c.weekday, wednesday)
		if err != nil {
			t.Fatalf("%s: %v", c.weekday, err)
		}
		if d.Day() != c.wantDay || d.Month() != time.September {
			t.Fatalf("%s: expected Sep %d, got %v", c.weekday, c.wantDay, d)
		}
	}
}

func TestCheckInDate_UnknownWeekday(t *testing.T) {
	if _, err := resolve.CheckInDate("", "funday", wednesday); err == nil {
		t.Fatal("expected error")
	}
}

func TestCheckInDate_MissingBoth(t *testing.T) {
	if _, err := resolve.CheckInDate("", "", wednesday); !errors.Is(err, resolve.ErrMissingDateInput) {
		t.Fatalf("expected ErrMissingDateInput, got %v", err)
	}
}

func TestToday_ConvertsToJST(t *testing.T) {
	// 23:30 UTC is already the next morning in Japan.
	now := time.Date(2025, 9, 17, 23, 30, 0, 0, time.UTC)
	d := resolve.Today(now)
	if d.Year() != 2025 || d.Month() != time.September || d.Day() != 18 {
		t.Fatalf("expected 2025-09-18 JST, got %v", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		t.Fatalf("expected midnight, got %v", d)
	}
}

func TestNormalizeStationName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"新宿駅", "新宿"},
		{"東京 駅", "東京"},
		{" Shibuya Eki ", "shibuya"},
		{"Shinjuku Station", "shinjuku"},
		{"Tokyo Sta.", "tokyo"},
		{"めぐろえき", "めぐろ"},
		{"Ueno", "ueno"},
		{"ＴＯＫＹＯ", "tokyo"}, // full-width folds before lowercasing
		{"品川", "品川"},
	}
	for _, c := range cases {
		got, err := resolve.NormalizeStationName(c.in)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestNormalizeStationName_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "駅"} {
		if _, err := resolve.NormalizeStationName(in); !errors.Is(err, resolve.ErrEmptyStationName) {
			t.Fatalf("%q: expected ErrEmptyStationName, got %v", in, err)
		}
	}
}

func TestFormatDistanceText(t *testing.T) {
	cases := []struct {
		distance int
		station  string
		want     string
	}{
		{320, "新宿", "新宿駅から徒歩4分"},
		{320, "新宿駅", "新宿駅から徒歩4分"},
		{80, "渋谷", "渋谷駅から徒歩1分"},
		{1200, "東京", "東京駅から徒歩15分"},
	}
	for _, c := range cases {
		if got := resolve.FormatDistanceText(c.distance, c.station); got != c.want {
			t.Fatalf("(%d, %s): expected %q, got %q", c.distance, c.station, got)
		}
	}
}

func TestFormatReasonText(t *testing.T) {
	cases := []struct {
		distance int
		price    int
		want     string
	}{
		{240, 9800, "駅近(徒歩3分) × 予算内(¥9,800)"},
		{400, 12000, "好立地(徒歩5分) × 予算内(¥12,000)"},
		{800, 30000, "徒歩10分 × 予算内(¥30,000)"},
	}
	for _, c := range cases {
		if got := resolve.FormatReasonText(c.distance, c.price); got != c.want {
			t.Fatalf("(%d, %d): expected %q, got %q", c.distance, c.price, got)
		}
	}
}
