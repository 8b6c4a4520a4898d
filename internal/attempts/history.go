// Package attempts keeps the bounded per-card attempt history and derives the
// rolling accuracy signal from it.
package attempts

import (
	"math"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

// Policy bounds the attempt history and defines the cooldown window.
type Policy struct {
	Cooldown   time.Duration
	HistoryCap int
	Window     int
}

// DefaultPolicy keeps 50 attempts, scores the last 10 and applies a one hour cooldown.
func DefaultPolicy() Policy {
	return Policy{
		Cooldown:   60 * time.Minute,
		HistoryCap: 50,
		Window:     10,
	}
}

// Append returns history with a new attempt at now and whether that attempt is scored.
// The input slice is not modified.
func (p Policy) Append(history []domain.Attempt, pass, forceNoScore bool, now time.Time) ([]domain.Attempt, bool) {
	scored := true
	switch {
	case forceNoScore:
		scored = false
	case pass:
		if last, ok := LastScoredPass(history); ok && now.Sub(last) < p.Cooldown {
			scored = false
		}
	}

	keep := history
	if limit := p.retained() - 1; len(keep) > limit {
		keep = keep[len(keep)-limit:]
	}
	out := make([]domain.Attempt, 0, len(keep)+1)
	out = append(out, keep...)
	out = append(out, domain.Attempt{Timestamp: now, Pass: pass, Scored: scored})
	return out, scored
}

// InCooldown reports whether a scored pass happened less than Cooldown before now.
func (p Policy) InCooldown(history []domain.Attempt, now time.Time) bool {
	last, ok := LastScoredPass(history)
	return ok && now.Sub(last) < p.Cooldown
}

func (p Policy) retained() int {
	return max(p.HistoryCap, p.Window, 1)
}

// LastScoredPass returns the timestamp of the most recent scored passing attempt.
func LastScoredPass(history []domain.Attempt) (time.Time, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if a := history[i]; a.Scored && a.Pass {
			return a.Timestamp, true
		}
	}
	return time.Time{}, false
}

// LastFailure returns the timestamp of the most recent scored failing attempt.
func LastFailure(history []domain.Attempt) (time.Time, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if a := history[i]; a.Scored && !a.Pass {
			return a.Timestamp, true
		}
	}
	return time.Time{}, false
}

// Scored returns the scored attempts in chronological order.
func Scored(history []domain.Attempt) []domain.Attempt {
	var out []domain.Attempt
	for _, a := range history {
		if a.Scored {
			out = append(out, a)
		}
	}
	return out
}

// RollingAccuracy is the pass percentage over the last window scored attempts.
// A card without scored attempts has 0%.
func RollingAccuracy(history []domain.Attempt, window int) int {
	scored := Scored(history)
	if len(scored) == 0 || window <= 0 {
		return 0
	}
	if len(scored) > window {
		scored = scored[len(scored)-window:]
	}

	passed := 0
	for _, a := range scored {
		if a.Pass {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(len(scored))))
}
