// Package settlement runs monthly financial settlements: it prices every
// trip recorded in a billing period, bills the matching client revenue and
// produces a period report, then manages the accounting closure that freezes
// the period.
package settlement

import (
	"fmt"
	"time"
)

// Billing periods run from the 19th of the previous month through the 18th
// of the period month, inclusive. The period key has the form YYYY-MM.

// PeriodKey formats the key for the given period month.
func PeriodKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParsePeriodKey parses a YYYY-MM key into its period month.
func ParsePeriodKey(key string) (int, time.Month, error) {
	var year, month int
	if _, err := fmt.Sscanf(key, "%4d-%2d", &year, &month); err != nil {
		return 0, 0, fmt.Errorf("invalid period key %q: want YYYY-MM", key)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid period key %q: month out of range", key)
	}
	if year < 2000 || year > 9999 {
		return 0, 0, fmt.Errorf("invalid period key %q: year out of range", key)
	}
	// Sscanf tolerates trailing input, so keys like "2025-111" would
	// otherwise slip through as non-canonical aliases.
	if PeriodKey(year, time.Month(month)) != key {
		return 0, 0, fmt.Errorf("invalid period key %q: want YYYY-MM", key)
	}
	return year, time.Month(month), nil
}

// PeriodBounds returns the inclusive start and end dates of a billing
// period: the 19th of the previous month through the 18th of the period
// month.
func PeriodBounds(year int, month time.Month) (time.Time, time.Time) {
	end := time.Date(year, month, 18, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -1, 1)
	return start, end
}

// PeriodForDate returns the period key the given date falls into. Dates on
// or after the 19th belong to the next month's period.
func PeriodForDate(t time.Time) string {
	t = t.UTC()
	year, month := t.Year(), t.Month()
	if t.Day() >= 19 {
		next := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
		year, month = next.Year(), next.Month()
	}
	return PeriodKey(year, month)
}
