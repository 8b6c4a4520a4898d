package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome is the learner's self-assessment of a review.
type Outcome string

const (
	OutcomeFail Outcome = "fail"
	OutcomeHard Outcome = "hard"
	OutcomePass Outcome = "pass"
	OutcomeEasy Outcome = "easy"
)

// Valid reports whether o is one of the four known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeFail, OutcomeHard, OutcomePass, OutcomeEasy:
		return true
	}
	return false
}

// Passed reports whether the outcome counts as a correct answer.
func (o Outcome) Passed() bool {
	return o.Valid() && o != OutcomeFail
}

// ParseOutcome converts a case-insensitive string into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("%w: unknown outcome %q", ErrInvalidArgument, s)
	}
	return o, nil
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: outcome must be a string", ErrInvalidArgument)
	}
	parsed, err := ParseOutcome(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
