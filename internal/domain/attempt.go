package domain

import "time"

// Attempt is one test or drill submission for a card.
// Scored is decided once, when the attempt is appended.
type Attempt struct {
	Timestamp time.Time `json:"timestamp"`
	Pass      bool      `json:"pass"`
	Scored    bool      `json:"scored"`
}

// Allowance is the new-card admission state of a deck for one calendar day.
type Allowance struct {
	Date    string `json:"date"`
	Allowed int    `json:"allowed"`
	Used    int    `json:"used"`
}

// Remaining is the number of new cards that may still be introduced today.
func (a Allowance) Remaining() int {
	if a.Used >= a.Allowed {
		return 0
	}
	return a.Allowed - a.Used
}
