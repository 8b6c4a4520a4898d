package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/interval"
)

// Params holds the tunables of the ease/interval scheduler.
type Params struct {
	DefaultEase float64
	MinEase     float64
	MaxEase     float64
	// IntroOffsets are the day offsets of the graduated introduction sequence.
	IntroOffsets []int
}

// DefaultParams returns the standard SM-2 style settings.
func DefaultParams() *Params {
	return &Params{
		DefaultEase:  2.5,
		MinEase:      1.3,
		MaxEase:      3.0,
		IntroOffsets: []int{0, 1, 3, 7, 14, 30},
	}
}

// ReviewOptions carries the explicit clock reading and the late-review flag.
type ReviewOptions struct {
	Now time.Time
	// Grace anchors the next due date to the previous due date instead of Now.
	Grace bool
}

type rule struct {
	factor    func(interval int, ease float64) float64
	easeDelta float64
}

var rules = map[domain.Outcome]rule{
	domain.OutcomeFail: {func(i int, _ float64) float64 { return math.Round(float64(i) / 2) }, -0.20},
	domain.OutcomeHard: {func(i int, _ float64) float64 { return float64(i) }, -0.05},
	domain.OutcomePass: {func(i int, e float64) float64 { return math.Round(float64(i) * e) }, +0.05},
	domain.OutcomeEasy: {func(i int, e float64) float64 { return math.Round(float64(i) * e * 1.5) }, +0.10},
}

// Next applies one review outcome and returns the updated schedule.
// The input is never modified; an unknown outcome is rejected before any change.
func (p *Params) Next(current domain.Schedule, outcome domain.Outcome, opts ReviewOptions) (domain.Schedule, error) {
	r, ok := rules[outcome]
	if !ok {
		return current, fmt.Errorf("%w: unknown outcome %q", domain.ErrInvalidArgument, outcome)
	}

	next := current.Clone()
	iv, ease := p.normalize(current)

	next.Interval = interval.Clamp(r.factor(iv, ease))
	next.Ease = p.clampEase(ease + r.easeDelta)

	anchor := interval.StartOfDay(opts.Now)
	if opts.Grace && !current.DueDate.IsZero() {
		anchor = interval.StartOfDay(current.DueDate)
	}
	if outcome == domain.OutcomeFail {
		// A lapsed card comes back on the anchor day; the halved interval
		// only takes effect from its next successful review.
		next.DueDate = anchor
	} else {
		next.DueDate = interval.AddDays(anchor, next.Interval)
	}

	next.Stage = domain.StageScheduled
	next.Reviews = append(next.Reviews, domain.Review{Timestamp: opts.Now, Outcome: outcome})
	return next, nil
}

// Intro applies step of the graduated introduction sequence. No review is logged.
// A step past the end of the sequence uses offset 0.
func (p *Params) Intro(current domain.Schedule, step int, now time.Time) (domain.Schedule, error) {
	if step < 0 {
		return current, fmt.Errorf("%w: intro step %d is negative", domain.ErrInvalidArgument, step)
	}

	offset := 0
	if step < len(p.IntroOffsets) {
		offset = p.IntroOffsets[step]
	}

	next := current.Clone()
	if next.Ease == 0 {
		next.Ease = p.DefaultEase
	}
	next.Interval = interval.Clamp(float64(offset))
	next.DueDate = interval.AddDays(interval.StartOfDay(now), offset)
	next.Step = step + 1
	next.Stage = domain.StageIntroducing
	if next.Step >= len(p.IntroOffsets) {
		next.Stage = domain.StageScheduled
	}
	return next, nil
}

// normalize fills in defaults for a never-reviewed card and pulls stray values into range.
func (p *Params) normalize(s domain.Schedule) (int, float64) {
	iv := s.Interval
	if iv == 0 {
		iv = interval.MinDays
	}
	iv = interval.Clamp(float64(iv))

	ease := s.Ease
	if ease == 0 {
		ease = p.DefaultEase
	}
	return iv, p.clampEase(ease)
}

func (p *Params) clampEase(e float64) float64 {
	// Two decimal places keep repeated deltas from drifting (2.5+0.05 == 2.55).
	e = math.Round(e*100) / 100
	return math.Max(p.MinEase, math.Min(p.MaxEase, e))
}
