package settlement

import (
	"testing"
	"time"
)

func TestPeriodBounds(t *testing.T) {
	tests := []struct {
		year      int
		month     time.Month
		wantStart time.Time
		wantEnd   time.Time
	}{
		{2025, time.November, time.Date(2025, time.October, 19, 0, 0, 0, 0, time.UTC), time.Date(2025, time.November, 18, 0, 0, 0, 0, time.UTC)},
		{2025, time.January, time.Date(2024, time.December, 19, 0, 0, 0, 0, time.UTC), time.Date(2025, time.January, 18, 0, 0, 0, 0, time.UTC)},
		{2025, time.March, time.Date(2025, time.February, 19, 0, 0, 0, 0, time.UTC), time.Date(2025, time.March, 18, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		start, end := PeriodBounds(tt.year, tt.month)
		if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
			t.Errorf("PeriodBounds(%d, %s) = %s..%s, want %s..%s",
				tt.year, tt.month,
				start.Format(time.DateOnly), end.Format(time.DateOnly),
				tt.wantStart.Format(time.DateOnly), tt.wantEnd.Format(time.DateOnly))
		}
	}
}

func TestPeriodForDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, time.November, 5, 0, 0, 0, 0, time.UTC), "2025-11"},
		{time.Date(2025, time.November, 18, 0, 0, 0, 0, time.UTC), "2025-11"},
		{time.Date(2025, time.November, 19, 0, 0, 0, 0, time.UTC), "2025-12"},
		{time.Date(2025, time.October, 19, 0, 0, 0, 0, time.UTC), "2025-11"},
		{time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC), "2026-01"},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "2026-01"},
	}
	for _, tt := range tests {
		if got := PeriodForDate(tt.date); got != tt.want {
			t.Errorf("PeriodForDate(%s) = %s, want %s", tt.date.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestParsePeriodKey(t *testing.T) {
	year, month, err := ParsePeriodKey("2025-11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if year != 2025 || month != time.November {
		t.Errorf("got %d-%d, want 2025-11", year, month)
	}

	for _, bad := range []string{"", "2025", "2025-13", "202511", "abcd-ef", "2025-111", "2025-11x", "2025-1"} {
		if _, _, err := ParsePeriodKey(bad); err == nil {
			t.Errorf("ParsePeriodKey(%q): expected error", bad)
		}
	}
}

func TestPeriodKeyRoundTrip(t *testing.T) {
	key := PeriodKey(2025, time.March)
	if key != "2025-03" {
		t.Fatalf("PeriodKey = %s, want 2025-03", key)
	}
	year, month, err := ParsePeriodKey(key)
	if err != nil || year != 2025 || month != time.March {
		t.Fatalf("round trip failed: %d %s %v", year, month, err)
	}
}
