package selector

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks which cards were already completed since the learner started
// studying a deck. A new session starts with an empty set.
type Session struct {
	ID        uuid.UUID
	Deck      string
	StartedAt time.Time

	completed map[string]struct{}
}

// NewSession starts an empty session for deck.
func NewSession(deck string, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Deck:      deck,
		StartedAt: now,
		completed: make(map[string]struct{}),
	}
}

// Complete marks cardID as done for this session.
func (s *Session) Complete(cardID string) {
	s.completed[cardID] = struct{}{}
}

// Completed reports whether cardID was already done in this session.
func (s *Session) Completed(cardID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.completed[cardID]
	return ok
}

// Len is the number of completed cards.
func (s *Session) Len() int {
	if s == nil {
		return 0
	}
	return len(s.completed)
}
