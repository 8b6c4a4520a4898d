package attempts

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

type attemptStore interface {
	GetAttempts(ctx context.Context, deck, cardID string) ([]domain.Attempt, error)
	SaveAttempts(ctx context.Context, deck, cardID string, history []domain.Attempt) error
}

// LogOptions carries the explicit clock reading and the drill flag.
type LogOptions struct {
	Now time.Time
	// ForceNoScore marks drill or copy steps that must not move accuracy.
	ForceNoScore bool
}

// Log appends attempts to the persisted per-card history.
type Log struct {
	policy Policy
	store  attemptStore
}

// NewLog creates a Log backed by store.
func NewLog(policy Policy, store attemptStore) *Log {
	return &Log{policy: policy, store: store}
}

// Policy returns the history policy in force.
func (l *Log) Policy() Policy {
	return l.policy
}

// LogAttempt records one attempt and reports whether it counts toward accuracy.
func (l *Log) LogAttempt(ctx context.Context, deck, cardID string, pass bool, opts LogOptions) (bool, error) {
	if cardID == "" {
		return false, fmt.Errorf("%w: card id is empty", domain.ErrInvalidArgument)
	}

	history, err := l.store.GetAttempts(ctx, deck, cardID)
	if err != nil {
		return false, fmt.Errorf("load attempts for %s: %w", cardID, err)
	}

	next, scored := l.policy.Append(history, pass, opts.ForceNoScore, opts.Now)
	if err := l.store.SaveAttempts(ctx, deck, cardID, next); err != nil {
		return false, fmt.Errorf("save attempts for %s: %w", cardID, err)
	}
	return scored, nil
}

// History returns the stored attempts for a card, oldest first.
func (l *Log) History(ctx context.Context, deck, cardID string) ([]domain.Attempt, error) {
	history, err := l.store.GetAttempts(ctx, deck, cardID)
	if err != nil {
		return nil, fmt.Errorf("load attempts for %s: %w", cardID, err)
	}
	return history, nil
}

// RollingAccuracy returns the card's pass percentage over the configured window.
func (l *Log) RollingAccuracy(ctx context.Context, deck, cardID string) (int, error) {
	history, err := l.History(ctx, deck, cardID)
	if err != nil {
		return 0, err
	}
	return RollingAccuracy(history, l.policy.Window), nil
}
