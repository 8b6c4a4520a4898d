// Package interval holds the day-granularity date arithmetic used by the scheduler.
// All instants are normalized to UTC so a card can never become due twice, or
// never, across a DST change.
package interval

import (
	"math"
	"time"
)

const (
	MinDays = 1
	MaxDays = 365
)

// StartOfDay returns 00:00:00.000 UTC of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays moves t forward by n whole UTC days. n may be zero or negative.
func AddDays(t time.Time, n int) time.Time {
	return t.UTC().AddDate(0, 0, n)
}

// Clamp rounds days half away from zero and bounds the result to [MinDays, MaxDays].
func Clamp(days float64) int {
	if math.IsNaN(days) {
		return MinDays
	}
	r := math.Round(days)
	if r < MinDays {
		return MinDays
	}
	if r > MaxDays {
		return MaxDays
	}
	return int(r)
}

// LocalDate formats the learner-local calendar day of t as YYYY-MM-DD.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}
