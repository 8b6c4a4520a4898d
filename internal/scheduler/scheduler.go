// Package scheduler implements the SM-2 style ease/interval update and the
// graduated introduction path for new cards.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

type scheduleStore interface {
	SaveSchedule(ctx context.Context, deck string, s domain.Schedule) error
}

// Scheduler computes schedule updates and persists them before returning.
type Scheduler struct {
	params *Params
	store  scheduleStore
}

// New creates a Scheduler. A nil params uses DefaultParams.
func New(params *Params, store scheduleStore) *Scheduler {
	if params == nil {
		params = DefaultParams()
	}
	return &Scheduler{params: params, store: store}
}

// Params exposes the scheduler's tunables.
func (s *Scheduler) Params() *Params {
	return s.params
}

// ScheduleReview applies outcome to card and upserts the result.
func (s *Scheduler) ScheduleReview(ctx context.Context, deck string, card domain.Schedule, outcome domain.Outcome, opts ReviewOptions) (domain.Schedule, error) {
	next, err := s.params.Next(card, outcome, opts)
	if err != nil {
		return card, err
	}
	if err := s.store.SaveSchedule(ctx, deck, next); err != nil {
		return card, fmt.Errorf("save schedule for %s: %w", card.CardID, err)
	}
	return next, nil
}

// IntroPath applies introduction step to card and upserts the result.
func (s *Scheduler) IntroPath(ctx context.Context, deck string, card domain.Schedule, step int, now time.Time) (domain.Schedule, error) {
	next, err := s.params.Intro(card, step, now)
	if err != nil {
		return card, err
	}
	if err := s.store.SaveSchedule(ctx, deck, next); err != nil {
		return card, fmt.Errorf("save schedule for %s: %w", card.CardID, err)
	}
	return next, nil
}
