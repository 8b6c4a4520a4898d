package attempts

import (
	"testing"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

var t0 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func TestAppendScoring(t *testing.T) {
	p := DefaultPolicy()

	t.Run("first attempt is scored", func(t *testing.T) {
		_, scored := p.Append(nil, true, false, t0)
		if !scored {
			t.Error("Expected first attempt to be scored")
		}
	})

	t.Run("repeat pass inside cooldown is not scored", func(t *testing.T) {
		h, _ := p.Append(nil, true, false, t0)
		_, scored := p.Append(h, true, false, t0.Add(59*time.Minute))
		if scored {
			t.Error("Expected second pass within 60 minutes to be unscored")
		}
	})

	t.Run("repeat pass at cooldown boundary is scored", func(t *testing.T) {
		h, _ := p.Append(nil, true, false, t0)
		_, scored := p.Append(h, true, false, t0.Add(60*time.Minute))
		if !scored {
			t.Error("Expected pass 60 minutes later to be scored")
		}
	})

	t.Run("failures are always scored", func(t *testing.T) {
		h, _ := p.Append(nil, true, false, t0)
		_, scored := p.Append(h, false, false, t0.Add(time.Minute))
		if !scored {
			t.Error("Expected failing attempt to be scored")
		}
	})

	t.Run("forced no-score wins", func(t *testing.T) {
		h, scored := p.Append(nil, false, true, t0)
		if scored {
			t.Error("Expected drill attempt to be unscored")
		}
		// A drill pass does not start a cooldown.
		_, scored = p.Append(h, true, false, t0.Add(time.Minute))
		if !scored {
			t.Error("Expected pass after an unscored drill to be scored")
		}
	})

	t.Run("cooldown follows the last scored pass only", func(t *testing.T) {
		h, _ := p.Append(nil, true, false, t0)
		h, _ = p.Append(h, true, false, t0.Add(30*time.Minute)) // unscored
		_, scored := p.Append(h, true, false, t0.Add(61*time.Minute))
		if !scored {
			t.Error("Expected cooldown to be measured from the scored pass at t0")
		}
	})

	t.Run("clock skew counts as inside cooldown", func(t *testing.T) {
		h, _ := p.Append(nil, true, false, t0)
		_, scored := p.Append(h, true, false, t0.Add(-2*time.Hour))
		if scored {
			t.Error("Expected a pass dated before the last scored pass to be unscored")
		}
	})
}

func TestAppendDoesNotModifyInput(t *testing.T) {
	p := DefaultPolicy()
	history := make([]domain.Attempt, 1, 4)
	history[0] = domain.Attempt{Timestamp: t0, Pass: false, Scored: true}

	out, _ := p.Append(history, true, false, t0.Add(time.Hour))
	if len(history) != 1 || len(out) != 2 {
		t.Fatalf("Expected input length 1 and output length 2, got %d and %d", len(history), len(out))
	}
	if history[:2][1].Timestamp != (time.Time{}) {
		t.Error("Expected input backing array to be untouched")
	}
}

func TestAppendCapsHistory(t *testing.T) {
	p := DefaultPolicy()
	var h []domain.Attempt
	for i := 0; i < 120; i++ {
		h, _ = p.Append(h, i%2 == 0, false, t0.Add(time.Duration(i)*2*time.Hour))
	}
	if len(h) != p.HistoryCap {
		t.Fatalf("Expected history to be capped at %d, got %d", p.HistoryCap, len(h))
	}
	if want := t0.Add(119 * 2 * time.Hour); !h[len(h)-1].Timestamp.Equal(want) {
		t.Errorf("Expected newest attempt to be retained, got %v", h[len(h)-1].Timestamp)
	}
	if want := t0.Add(70 * 2 * time.Hour); !h[0].Timestamp.Equal(want) {
		t.Errorf("Expected oldest retained attempt at %v, got %v", want, h[0].Timestamp)
	}
}

func TestRollingAccuracy(t *testing.T) {
	scored := func(pass bool) domain.Attempt { return domain.Attempt{Pass: pass, Scored: true} }
	unscored := func(pass bool) domain.Attempt { return domain.Attempt{Pass: pass} }

	testCases := []struct {
		name     string
		history  []domain.Attempt
		window   int
		expected int
	}{
		{"no attempts", nil, 10, 0},
		{"only unscored", []domain.Attempt{unscored(true), unscored(true)}, 10, 0},
		{"all pass", []domain.Attempt{scored(true), scored(true)}, 10, 100},
		{"two of three rounds up", []domain.Attempt{scored(true), scored(true), scored(false)}, 10, 67},
		{"one of three rounds down", []domain.Attempt{scored(true), scored(false), scored(false)}, 10, 33},
		{"unscored ignored", []domain.Attempt{scored(false), unscored(true), unscored(true), scored(true)}, 10, 50},
		{"window takes most recent", []domain.Attempt{scored(false), scored(false), scored(true), scored(true)}, 2, 100},
		{"zero window", []domain.Attempt{scored(true)}, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RollingAccuracy(tc.history, tc.window); got != tc.expected {
				t.Errorf("Expected %d%%, got %d%%", tc.expected, got)
			}
		})
	}
}

func TestRollingAccuracyIgnoresAttemptsOutsideWindow(t *testing.T) {
	history := make([]domain.Attempt, 15)
	for i := range history {
		history[i] = domain.Attempt{Timestamp: t0.Add(time.Duration(i) * time.Hour), Pass: i%3 != 0, Scored: true}
	}
	before := RollingAccuracy(history, 10)

	history[0].Pass = !history[0].Pass
	history[4].Pass = !history[4].Pass
	if after := RollingAccuracy(history, 10); after != before {
		t.Errorf("Expected accuracy to stay at %d when changing old attempts, got %d", before, after)
	}
}

func TestInCooldown(t *testing.T) {
	p := DefaultPolicy()
	h := []domain.Attempt{{Timestamp: t0, Pass: true, Scored: true}}

	if !p.InCooldown(h, t0.Add(10*time.Minute)) {
		t.Error("Expected card to be in cooldown 10 minutes after a scored pass")
	}
	if p.InCooldown(h, t0.Add(2*time.Hour)) {
		t.Error("Expected cooldown to expire after 2 hours")
	}
	if p.InCooldown(nil, t0) {
		t.Error("Expected empty history not to be in cooldown")
	}
}
