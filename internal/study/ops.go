package study

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/recall/internal/admission"
	"github.com/conorfennell/recall/internal/attempts"
	"github.com/conorfennell/recall/internal/confidence"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/interval"
	"github.com/conorfennell/recall/internal/scheduler"
	"github.com/conorfennell/recall/internal/selector"
)

// Introduction is a freshly introduced card and its first intro-path schedule.
type Introduction struct {
	Card      domain.Card      `json:"card"`
	Schedule  domain.Schedule  `json:"schedule"`
	Allowance domain.Allowance `json:"allowance"`
}

// ReviewResult is the outcome of grading a card.
type ReviewResult struct {
	Schedule domain.Schedule `json:"schedule"`
	Scored   bool            `json:"scored"`
	Accuracy int             `json:"accuracy"`
}

// AttemptResult is the outcome of logging an attempt outside a review.
type AttemptResult struct {
	Scored   bool `json:"scored"`
	Accuracy int  `json:"accuracy"`
}

// Confidence is the card-level view of the attempt log.
type Confidence struct {
	CardID   string             `json:"card_id"`
	Accuracy int                `json:"accuracy"`
	Scored   int                `json:"scored"`
	Tier     domain.Tier        `json:"tier"`
	Display  domain.DisplayTier `json:"display"`
}

// Stats summarises a deck.
type Stats struct {
	Unseen      int            `json:"unseen"`
	Introducing int            `json:"introducing"`
	Scheduled   int            `json:"scheduled"`
	Due         int            `json:"due"`
	Tiers       map[string]int `json:"tiers"`
}

// Introduce admits the next unseen card in the deck, consuming one slot of
// today's allowance.
func (s *Service) Introduce(ctx context.Context, deck string) (*Introduction, error) {
	intro, err := s.introduce(ctx, deck)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(domain.Event{Type: domain.EventIntroduced, Deck: deck, CardID: intro.Card.ID})
	return intro, nil
}

// introduce writes the intro schedule before charging the allowance, and
// removes the schedule again if the charge fails.
func (s *Service) introduce(ctx context.Context, deck string) (*Introduction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	card, err := s.store.NextUnseen(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("find unseen card: %w", err)
	}
	if card == nil {
		return nil, fmt.Errorf("no unseen cards in %s: %w", deck, domain.ErrNotFound)
	}

	counts, err := s.counts(ctx, deck)
	if err != nil {
		return nil, err
	}
	today, err := s.admission.Today(ctx, deck, now, counts)
	if err != nil {
		return nil, err
	}
	if today.Remaining() == 0 {
		return nil, fmt.Errorf("%s on %s: %w", deck, today.Date, domain.ErrAllowanceExhausted)
	}

	sched, err := s.scheduler.IntroPath(ctx, deck, domain.Schedule{CardID: card.ID}, 0, now)
	if err != nil {
		return nil, err
	}
	allowance, err := s.admission.Consume(ctx, deck, now, counts)
	if err != nil {
		s.restoreSchedule(ctx, deck, card.ID, nil)
		return nil, err
	}

	s.log.Info("card introduced", "deck", deck, "card_id", card.ID, "used", allowance.Used, "allowed", allowance.Allowed)
	return &Introduction{Card: *card, Schedule: sched, Allowance: allowance}, nil
}

// AdvanceIntro moves a card one step along the intro path.
func (s *Service) AdvanceIntro(ctx context.Context, deck, cardID string) (domain.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.schedule(ctx, deck, cardID)
	if err != nil {
		return domain.Schedule{}, err
	}
	if current.Stage != domain.StageIntroducing {
		return *current, fmt.Errorf("%w: card %s is %s, not introducing", domain.ErrInvalidArgument, cardID, current.Stage)
	}
	return s.scheduler.IntroPath(ctx, deck, *current, current.Step, s.clock.Now())
}

// Review grades a card, reschedules it and logs a scored attempt.
// Cards that were never introduced start from default interval and ease.
func (s *Service) Review(ctx context.Context, deck, cardID string, outcome domain.Outcome, grace bool) (*ReviewResult, error) {
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: unknown outcome %q", domain.ErrInvalidArgument, outcome)
	}

	res, err := s.review(ctx, deck, cardID, outcome, grace)
	if err != nil {
		return nil, err
	}
	pass := outcome.Passed()
	s.bus.Publish(domain.Event{Type: domain.EventAttempt, Deck: deck, CardID: cardID, Pass: &pass})
	return res, nil
}

// review restores the previous schedule if the attempt cannot be logged.
func (s *Service) review(ctx context.Context, deck, cardID string, outcome domain.Outcome, grace bool) (*ReviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.store.GetSchedule(ctx, deck, cardID)
	if err != nil {
		return nil, fmt.Errorf("load schedule for %s: %w", cardID, err)
	}
	current := domain.Schedule{CardID: cardID}
	if previous != nil {
		current = *previous
	} else if err := s.requireCard(ctx, deck, cardID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next, err := s.scheduler.ScheduleReview(ctx, deck, current, outcome, scheduler.ReviewOptions{Now: now, Grace: grace})
	if err != nil {
		return nil, err
	}

	scored, err := s.attempts.LogAttempt(ctx, deck, cardID, outcome.Passed(), attempts.LogOptions{Now: now})
	if err != nil {
		s.restoreSchedule(ctx, deck, cardID, previous)
		return nil, err
	}
	accuracy, err := s.attempts.RollingAccuracy(ctx, deck, cardID)
	if err != nil {
		return nil, err
	}

	s.session(deck, now).Complete(cardID)
	s.log.Debug("card reviewed", "deck", deck, "card_id", cardID, "outcome", outcome,
		"interval", next.Interval, "due", next.DueDate, "scored", scored)
	return &ReviewResult{Schedule: next, Scored: scored, Accuracy: accuracy}, nil
}

// Attempt logs a pass or fail without touching the schedule. Drill attempts
// are never scored.
func (s *Service) Attempt(ctx context.Context, deck, cardID string, pass, drill bool) (*AttemptResult, error) {
	res, err := s.attempt(ctx, deck, cardID, pass, drill)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(domain.Event{Type: domain.EventAttempt, Deck: deck, CardID: cardID, Pass: &pass})
	return res, nil
}

func (s *Service) attempt(ctx context.Context, deck, cardID string, pass, drill bool) (*AttemptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireCard(ctx, deck, cardID); err != nil {
		return nil, err
	}
	scored, err := s.attempts.LogAttempt(ctx, deck, cardID, pass, attempts.LogOptions{
		Now:          s.clock.Now(),
		ForceNoScore: drill,
	})
	if err != nil {
		return nil, err
	}
	accuracy, err := s.attempts.RollingAccuracy(ctx, deck, cardID)
	if err != nil {
		return nil, err
	}
	return &AttemptResult{Scored: scored, Accuracy: accuracy}, nil
}

// Confidence reports a card's rolling accuracy and tiers.
func (s *Service) Confidence(ctx context.Context, deck, cardID string) (*Confidence, error) {
	if err := s.requireCard(ctx, deck, cardID); err != nil {
		return nil, err
	}
	history, err := s.attempts.History(ctx, deck, cardID)
	if err != nil {
		return nil, err
	}
	accuracy := attempts.RollingAccuracy(history, s.window)
	return &Confidence{
		CardID:   cardID,
		Accuracy: accuracy,
		Scored:   len(attempts.Scored(history)),
		Tier:     confidence.Classify(accuracy),
		Display:  s.display.Display(history, s.window, s.clock.Now()),
	}, nil
}

// Allowance returns today's new-card allowance for the deck.
func (s *Service) Allowance(ctx context.Context, deck string) (domain.Allowance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts, err := s.counts(ctx, deck)
	if err != nil {
		return domain.Allowance{}, err
	}
	return s.admission.Today(ctx, deck, s.clock.Now(), counts)
}

// StartSession replaces the deck's session, forgetting which cards were completed.
func (s *Service) StartSession(deck string) *selector.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := selector.NewSession(deck, s.clock.Now())
	s.sessions[deck] = sess
	s.log.Info("session started", "deck", deck, "session_id", sess.ID)
	return sess
}

// Due returns the cards to study now in the current session.
func (s *Service) Due(ctx context.Context, deck string) (selector.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.candidates(ctx, deck)
	if err != nil {
		return selector.Selection{}, err
	}
	return s.selector.SelectDue(candidates, s.clock.Now(), s.sessions[deck]), nil
}

// MarkSeen completes a card for the current session without grading it.
func (s *Service) MarkSeen(ctx context.Context, deck, cardID string) error {
	s.mu.Lock()
	if _, err := s.schedule(ctx, deck, cardID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.session(deck, s.clock.Now()).Complete(cardID)
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Type: domain.EventSeen, Deck: deck, CardID: cardID})
	return nil
}

// Stats counts the deck's cards by stage and tier.
func (s *Service) Stats(ctx context.Context, deck string) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unseen, err := s.store.CountUnseen(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("count unseen: %w", err)
	}
	candidates, err := s.candidates(ctx, deck)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := interval.StartOfDay(now)
	st := &Stats{Unseen: unseen, Tiers: make(map[string]int)}
	for _, c := range candidates {
		switch c.Schedule.Stage {
		case domain.StageIntroducing:
			st.Introducing++
		case domain.StageScheduled:
			st.Scheduled++
		}
		if c.Schedule.Stage != domain.StageUnseen && !interval.StartOfDay(c.Schedule.DueDate).After(today) {
			st.Due++
		}
		if len(attempts.Scored(c.History)) > 0 {
			tier := confidence.Classify(attempts.RollingAccuracy(c.History, s.window))
			st.Tiers[tier.String()]++
		}
	}
	return st, nil
}

func (s *Service) counts(ctx context.Context, deck string) (admission.Counts, error) {
	unseen, err := s.store.CountUnseen(ctx, deck)
	if err != nil {
		return admission.Counts{}, fmt.Errorf("count unseen: %w", err)
	}
	all, err := s.store.ListAttempts(ctx, deck)
	if err != nil {
		return admission.Counts{}, fmt.Errorf("list attempts: %w", err)
	}

	struggling := 0
	for _, history := range all {
		if len(attempts.Scored(history)) == 0 {
			continue
		}
		if confidence.Classify(attempts.RollingAccuracy(history, s.window)) == domain.TierStruggling {
			struggling++
		}
	}
	return admission.Counts{Unseen: unseen, Struggling: struggling}, nil
}

func (s *Service) candidates(ctx context.Context, deck string) ([]selector.Candidate, error) {
	schedules, err := s.store.ListSchedules(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	histories, err := s.store.ListAttempts(ctx, deck)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	out := make([]selector.Candidate, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, selector.Candidate{Schedule: sched, History: histories[sched.CardID]})
	}
	return out, nil
}

func (s *Service) schedule(ctx context.Context, deck, cardID string) (*domain.Schedule, error) {
	sched, err := s.store.GetSchedule(ctx, deck, cardID)
	if err != nil {
		return nil, fmt.Errorf("load schedule for %s: %w", cardID, err)
	}
	if sched == nil {
		return nil, fmt.Errorf("schedule for %s: %w", cardID, domain.ErrNotFound)
	}
	return sched, nil
}

// restoreSchedule puts back the schedule a failed operation overwrote. A nil
// previous deletes the schedule so the card is unseen again.
func (s *Service) restoreSchedule(ctx context.Context, deck, cardID string, previous *domain.Schedule) {
	var err error
	if previous == nil {
		err = s.store.DeleteSchedule(ctx, deck, cardID)
	} else {
		err = s.store.SaveSchedule(ctx, deck, *previous)
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to roll back schedule", "deck", deck, "card_id", cardID, "error", err)
	}
}

func (s *Service) requireCard(ctx context.Context, deck, cardID string) error {
	if cardID == "" {
		return fmt.Errorf("%w: card id is empty", domain.ErrInvalidArgument)
	}
	card, err := s.store.GetCard(ctx, deck, cardID)
	if err != nil {
		return fmt.Errorf("load card %s: %w", cardID, err)
	}
	if card == nil {
		return fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

// session returns the deck's current session, starting one if none exists.
// Callers hold s.mu.
func (s *Service) session(deck string, now time.Time) *selector.Session {
	sess, ok := s.sessions[deck]
	if !ok {
		sess = selector.NewSession(deck, now)
		s.sessions[deck] = sess
	}
	return sess
}
