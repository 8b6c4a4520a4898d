// Package selector picks the cards due in the current study session.
package selector

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/conorfennell/recall/internal/attempts"
	"github.com/conorfennell/recall/internal/confidence"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/interval"
)

// Candidate is a card's schedule together with its attempt history.
type Candidate struct {
	Schedule domain.Schedule
	History  []domain.Attempt
}

// Item is a selected card and the tier it was ordered by.
type Item struct {
	Schedule domain.Schedule `json:"schedule"`
	Accuracy int             `json:"accuracy"`
	Tier     domain.Tier     `json:"tier"`
}

// Selection is the ordered due set. Queued cards were due but cut by the session cap.
type Selection struct {
	Items  []Item `json:"items"`
	Queued int    `json:"queued"`
}

// Options configures due-set selection.
type Options struct {
	Cap int
	// GroupByTier orders the selected cards struggling first, shuffled within each tier.
	GroupByTier bool
}

func DefaultOptions() Options {
	return Options{Cap: 15, GroupByTier: true}
}

// Selector filters and orders due cards.
type Selector struct {
	opts   Options
	policy attempts.Policy
	rng    *rand.Rand
}

// New creates a Selector. rng drives the within-tier shuffle; nil seeds one randomly.
func New(opts Options, policy attempts.Policy, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{opts: opts, policy: policy, rng: rng}
}

// SelectDue returns the introduced cards due on or before today that were not
// completed in session and are not cooling down after a scored pass.
func (s *Selector) SelectDue(cards []Candidate, now time.Time, session *Session) Selection {
	today := interval.StartOfDay(now)

	var due []Item
	for _, c := range cards {
		sched := c.Schedule
		if sched.Stage == domain.StageUnseen {
			continue
		}
		if interval.StartOfDay(sched.DueDate).After(today) {
			continue
		}
		if session.Completed(sched.CardID) {
			continue
		}
		if s.policy.InCooldown(c.History, now) {
			continue
		}
		acc := attempts.RollingAccuracy(c.History, s.policy.Window)
		due = append(due, Item{Schedule: sched, Accuracy: acc, Tier: confidence.Classify(acc)})
	}

	slices.SortStableFunc(due, func(a, b Item) int {
		if c := a.Schedule.DueDate.Compare(b.Schedule.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.Schedule.CardID, b.Schedule.CardID)
	})

	var sel Selection
	if limit := s.opts.Cap; limit > 0 && len(due) > limit {
		sel.Queued = len(due) - limit
		due = due[:limit]
	}
	if s.opts.GroupByTier {
		due = s.groupByTier(due)
	}
	sel.Items = due
	return sel
}

func (s *Selector) groupByTier(items []Item) []Item {
	buckets := make(map[domain.Tier][]Item)
	for _, it := range items {
		buckets[it.Tier] = append(buckets[it.Tier], it)
	}

	out := make([]Item, 0, len(items))
	for _, tier := range []domain.Tier{domain.TierStruggling, domain.TierNeedsReview, domain.TierMastered} {
		b := buckets[tier]
		s.rng.Shuffle(len(b), func(i, j int) { b[i], b[j] = b[j], b[i] })
		out = append(out, b...)
	}
	return out
}
