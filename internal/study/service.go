// Package study wires the scheduling core to persistence, the clock and
// progress notifications for one learner.
package study

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/conorfennell/recall/internal/admission"
	"github.com/conorfennell/recall/internal/attempts"
	"github.com/conorfennell/recall/internal/confidence"
	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/notify"
	"github.com/conorfennell/recall/internal/scheduler"
	"github.com/conorfennell/recall/internal/selector"
)

type store interface {
	GetCard(ctx context.Context, deck, id string) (*domain.Card, error)
	NextUnseen(ctx context.Context, deck string) (*domain.Card, error)
	CountUnseen(ctx context.Context, deck string) (int, error)

	GetSchedule(ctx context.Context, deck, cardID string) (*domain.Schedule, error)
	ListSchedules(ctx context.Context, deck string) ([]domain.Schedule, error)
	SaveSchedule(ctx context.Context, deck string, s domain.Schedule) error
	DeleteSchedule(ctx context.Context, deck, cardID string) error

	GetAttempts(ctx context.Context, deck, cardID string) ([]domain.Attempt, error)
	ListAttempts(ctx context.Context, deck string) (map[string][]domain.Attempt, error)
	SaveAttempts(ctx context.Context, deck, cardID string, history []domain.Attempt) error

	GetAllowance(ctx context.Context, deck string) (*domain.Allowance, error)
	SaveAllowance(ctx context.Context, deck string, a domain.Allowance) error
}

// Clock supplies the current instant. Every core operation receives it explicitly.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Options collects the tunables of every core component.
type Options struct {
	Scheduler *scheduler.Params
	Attempts  attempts.Policy
	Admission admission.Policy
	Selector  selector.Options
	Display   confidence.DisplayRules
	// Location decides when the learner's day rolls over.
	Location *time.Location
	// Rand drives the within-tier shuffle; nil seeds randomly.
	Rand *rand.Rand
}

// DefaultOptions returns the standard settings in UTC.
func DefaultOptions() Options {
	return Options{
		Scheduler: scheduler.DefaultParams(),
		Attempts:  attempts.DefaultPolicy(),
		Admission: admission.DefaultPolicy(),
		Selector:  selector.DefaultOptions(),
		Display:   confidence.DefaultDisplayRules(),
		Location:  time.UTC,
	}
}

// Service implements the study operations. Mutating calls are serialized;
// events are published after the lock is released so listeners may call back in.
type Service struct {
	store     store
	clock     Clock
	log       *slog.Logger
	bus       *notify.Bus
	scheduler *scheduler.Scheduler
	attempts  *attempts.Log
	admission *admission.Controller
	selector  *selector.Selector
	display   confidence.DisplayRules
	window    int

	mu       sync.Mutex
	sessions map[string]*selector.Session
}

// NewService creates a study Service.
func NewService(log *slog.Logger, st store, clock Clock, bus *notify.Bus, opts Options) *Service {
	if bus == nil {
		bus = &notify.Bus{}
	}
	return &Service{
		store:     st,
		clock:     clock,
		log:       log,
		bus:       bus,
		scheduler: scheduler.New(opts.Scheduler, st),
		attempts:  attempts.NewLog(opts.Attempts, st),
		admission: admission.NewController(opts.Admission, st, opts.Location),
		selector:  selector.New(opts.Selector, opts.Attempts, opts.Rand),
		display:   opts.Display,
		window:    opts.Attempts.Window,
		sessions:  make(map[string]*selector.Session),
	}
}

// Events exposes the notification bus so dashboards can subscribe.
func (s *Service) Events() *notify.Bus {
	return s.bus
}
