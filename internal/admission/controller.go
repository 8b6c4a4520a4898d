package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/interval"
)

type allowanceStore interface {
	GetAllowance(ctx context.Context, deck string) (*domain.Allowance, error)
	SaveAllowance(ctx context.Context, deck string, a domain.Allowance) error
}

// Counts are the deck-level inputs to the daily allowance.
type Counts struct {
	Unseen     int
	Struggling int
}

// Controller persists one allowance per deck and learner-local day.
type Controller struct {
	policy Policy
	store  allowanceStore
	loc    *time.Location
}

// NewController creates a Controller. Days roll over at midnight in loc.
func NewController(policy Policy, store allowanceStore, loc *time.Location) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	return &Controller{policy: policy, store: store, loc: loc}
}

// Today returns the deck's allowance for the day containing now. The allowance is
// computed on the first call of each day and returned unchanged for the rest of it.
func (c *Controller) Today(ctx context.Context, deck string, now time.Time, counts Counts) (domain.Allowance, error) {
	date := interval.LocalDate(now, c.loc)

	state, err := c.store.GetAllowance(ctx, deck)
	if err != nil {
		return domain.Allowance{}, fmt.Errorf("load allowance for %s: %w", deck, err)
	}
	if state != nil && state.Date == date {
		return *state, nil
	}

	a := c.policy.Compute(counts.Unseen, 0, counts.Struggling)
	a.Date = date
	if err := c.store.SaveAllowance(ctx, deck, a); err != nil {
		return domain.Allowance{}, fmt.Errorf("save allowance for %s: %w", deck, err)
	}
	return a, nil
}

// Consume records one new-card introduction against today's allowance.
func (c *Controller) Consume(ctx context.Context, deck string, now time.Time, counts Counts) (domain.Allowance, error) {
	a, err := c.Today(ctx, deck, now, counts)
	if err != nil {
		return a, err
	}
	if a.Remaining() == 0 {
		return a, fmt.Errorf("%s on %s: %w", deck, a.Date, domain.ErrAllowanceExhausted)
	}

	a.Used++
	if err := c.store.SaveAllowance(ctx, deck, a); err != nil {
		return a, fmt.Errorf("save allowance for %s: %w", deck, err)
	}
	return a, nil
}
