package domain

// EventType names a progress notification.
type EventType string

const (
	EventAttempt    EventType = "attempt"
	EventIntroduced EventType = "introduced"
	EventSeen       EventType = "seen"
)

// Event is published whenever a learner interacts with a card.
// Pass is set only for attempt events.
type Event struct {
	Type   EventType `json:"type"`
	Deck   string    `json:"deck"`
	CardID string    `json:"card_id"`
	Pass   *bool     `json:"pass,omitempty"`
}
