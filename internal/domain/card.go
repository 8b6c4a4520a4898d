package domain

import "time"

// Card is a single learnable item as read from a deck source.
// Only ID matters to the scheduler; the rest is passed through for presentation.
type Card struct {
	ID      string `json:"id"`
	Front   string `json:"front"   validate:"required"`
	Back    string `json:"back"    validate:"required"`
	Example string `json:"example,omitempty"`
	Audio   string `json:"audio,omitempty"`
}

// Stage is the scheduling lifecycle position of a card.
type Stage int

const (
	StageUnseen Stage = iota
	StageIntroducing
	StageScheduled
)

func (s Stage) String() string {
	switch s {
	case StageIntroducing:
		return "introducing"
	case StageScheduled:
		return "scheduled"
	default:
		return "unseen"
	}
}

// Review records a single scheduled review of a card.
type Review struct {
	Timestamp time.Time `json:"timestamp"`
	Outcome   Outcome   `json:"outcome"`
}

// Schedule holds the interval/ease state of one card.
// Reviews only ever grow; entries are never rewritten after append.
type Schedule struct {
	CardID   string    `json:"card_id"`
	Interval int       `json:"interval"`
	Ease     float64   `json:"ease"`
	DueDate  time.Time `json:"due_date"`
	Stage    Stage     `json:"stage"`
	Step     int       `json:"step"`
	Reviews  []Review  `json:"reviews"`
}

// Clone returns a copy that shares no backing arrays with s.
func (s Schedule) Clone() Schedule {
	if s.Reviews != nil {
		reviews := make([]Review, len(s.Reviews))
		copy(reviews, s.Reviews)
		s.Reviews = reviews
	}
	return s
}
