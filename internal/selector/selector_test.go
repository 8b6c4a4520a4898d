package selector

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/conorfennell/recall/internal/attempts"
	"github.com/conorfennell/recall/internal/domain"
)

var now = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

func scheduled(id string, due time.Time) domain.Schedule {
	return domain.Schedule{CardID: id, Interval: 1, Ease: 2.5, DueDate: due, Stage: domain.StageScheduled}
}

func newSelector(opts Options) *Selector {
	return New(opts, attempts.DefaultPolicy(), rand.New(rand.NewPCG(1, 2)))
}

func ids(sel Selection) []string {
	var out []string
	for _, it := range sel.Items {
		out = append(out, it.Schedule.CardID)
	}
	return out
}

func TestSelectDueFilters(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	session := NewSession("es", now)
	session.Complete("done")

	cards := []Candidate{
		{Schedule: scheduled("overdue", today.AddDate(0, 0, -3))},
		{Schedule: scheduled("today", today)},
		{Schedule: scheduled("tomorrow", today.AddDate(0, 0, 1))},
		{Schedule: domain.Schedule{CardID: "unseen", DueDate: today.AddDate(0, 0, -1)}},
		{Schedule: scheduled("done", today)},
		{
			Schedule: scheduled("cooling", today),
			History:  []domain.Attempt{{Timestamp: now.Add(-20 * time.Minute), Pass: true, Scored: true}},
		},
		{
			Schedule: scheduled("cooled", today),
			History:  []domain.Attempt{{Timestamp: now.Add(-3 * time.Hour), Pass: true, Scored: true}},
		},
		{
			Schedule: domain.Schedule{CardID: "intro", DueDate: today, Stage: domain.StageIntroducing},
		},
	}

	sel := newSelector(Options{Cap: 15}).SelectDue(cards, now, session)
	got := ids(sel)
	want := []string{"overdue", "cooled", "intro", "today"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if sel.Queued != 0 {
		t.Errorf("Expected nothing queued, got %d", sel.Queued)
	}
}

func TestSelectDueCapsAndQueues(t *testing.T) {
	var cards []Candidate
	for i := 0; i < 20; i++ {
		cards = append(cards, Candidate{Schedule: scheduled(string(rune('a'+i)), now.AddDate(0, 0, -i))})
	}

	sel := newSelector(Options{Cap: 15}).SelectDue(cards, now, nil)
	if len(sel.Items) != 15 || sel.Queued != 5 {
		t.Fatalf("Expected 15 selected and 5 queued, got %d and %d", len(sel.Items), sel.Queued)
	}
	// Oldest due first: 't' was due 19 days ago.
	if first := sel.Items[0].Schedule.CardID; first != "t" {
		t.Errorf("Expected oldest-due card first, got %s", first)
	}
	for _, it := range sel.Items {
		if it.Schedule.CardID < "f" {
			t.Errorf("Expected the five most recently due cards to be queued, but %s was selected", it.Schedule.CardID)
		}
	}
}

func TestSelectDueGroupsByTier(t *testing.T) {
	hist := func(pass ...bool) []domain.Attempt {
		var h []domain.Attempt
		for i, p := range pass {
			h = append(h, domain.Attempt{Timestamp: now.AddDate(0, 0, -10+i), Pass: p, Scored: true})
		}
		return h
	}
	day := now.AddDate(0, 0, -1)
	cards := []Candidate{
		{Schedule: scheduled("m1", day), History: hist(true, true, true, true, true)},
		{Schedule: scheduled("s1", day), History: hist(false, false, true)},
		{Schedule: scheduled("n1", day), History: hist(true, false, true)},
		{Schedule: scheduled("m2", day), History: hist(true, true, true, true)},
		{Schedule: scheduled("s2", day), History: hist(false)},
		{Schedule: scheduled("n2", day), History: hist(true, true, false, false)},
	}

	sel := newSelector(Options{Cap: 15, GroupByTier: true}).SelectDue(cards, now, nil)
	if len(sel.Items) != len(cards) {
		t.Fatalf("Expected all %d cards, got %d", len(cards), len(sel.Items))
	}
	prev := domain.TierStruggling
	for _, it := range sel.Items {
		if it.Tier < prev {
			t.Fatalf("Expected tiers in ascending order, got %v", ids(sel))
		}
		prev = it.Tier
	}
	if sel.Items[0].Tier != domain.TierStruggling || sel.Items[len(sel.Items)-1].Tier != domain.TierMastered {
		t.Errorf("Expected struggling first and mastered last, got %v", ids(sel))
	}
}

func TestSessionCompleted(t *testing.T) {
	var nilSession *Session
	if nilSession.Completed("x") || nilSession.Len() != 0 {
		t.Error("Expected a nil session to have nothing completed")
	}

	s := NewSession("es", now)
	if s.ID.String() == "" || s.Deck != "es" {
		t.Errorf("Unexpected session %+v", s)
	}
	s.Complete("x")
	s.Complete("x")
	if !s.Completed("x") || s.Len() != 1 {
		t.Errorf("Expected one completed card, got %d", s.Len())
	}
}
