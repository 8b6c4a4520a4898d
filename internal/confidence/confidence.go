// Package confidence maps rolling accuracy to mastery labels.
//
// Classify is the canonical three-tier classifier and the only one that feeds
// admission control and due-set ordering. Display is a five-tier refinement for
// dashboards; nothing in scheduling reads it.
package confidence

import (
	"time"

	"github.com/conorfennell/recall/internal/attempts"
	"github.com/conorfennell/recall/internal/domain"
)

const (
	NeedsReviewFrom = 50
	MasteredFrom    = 80
)

// Classify maps an accuracy percentage to a tier. Boundaries belong to the higher tier.
func Classify(accuracyPct int) domain.Tier {
	switch {
	case accuracyPct < NeedsReviewFrom:
		return domain.TierStruggling
	case accuracyPct < MasteredFrom:
		return domain.TierNeedsReview
	default:
		return domain.TierMastered
	}
}

// DisplayRules tune the five-tier display label.
type DisplayRules struct {
	// MinAttempts scored attempts are needed before a card leaves "new".
	MinAttempts int
	// MasteredAttempts scored attempts are needed for "mastered".
	MasteredAttempts int
	// RecentFailure keeps a high-accuracy card at "confident" while a failure is this fresh.
	RecentFailure time.Duration
}

func DefaultDisplayRules() DisplayRules {
	return DisplayRules{
		MinAttempts:      3,
		MasteredAttempts: 5,
		RecentFailure:    7 * 24 * time.Hour,
	}
}

// Display derives the five-tier label from a card's attempt history.
func (r DisplayRules) Display(history []domain.Attempt, window int, now time.Time) domain.DisplayTier {
	scored := attempts.Scored(history)
	if len(scored) < r.MinAttempts {
		return domain.DisplayNew
	}

	switch Classify(attempts.RollingAccuracy(history, window)) {
	case domain.TierStruggling:
		return domain.DisplayStruggling
	case domain.TierNeedsReview:
		return domain.DisplayLearning
	}

	if len(scored) < r.MasteredAttempts {
		return domain.DisplayConfident
	}
	if failedAt, ok := attempts.LastFailure(history); ok && now.Sub(failedAt) < r.RecentFailure {
		return domain.DisplayConfident
	}
	return domain.DisplayMastered
}
