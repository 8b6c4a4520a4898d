package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "recall.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCardsAndUnseen(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	srcID, err := db.InsertSource(ctx, "es", "/decks/es", SourceLocal)
	if err != nil {
		t.Fatalf("InsertSource() returned an unexpected error: %v", err)
	}

	cards := []domain.Card{
		{ID: "b", Front: "adiós", Back: "goodbye"},
		{ID: "a", Front: "hola", Back: "hello", Example: "¡Hola, amigo!", Audio: "hola.mp3"},
	}
	for i, c := range cards {
		inserted, err := db.UpsertCard(ctx, "es", srcID, i, c)
		if err != nil || !inserted {
			t.Fatalf("UpsertCard(%s) = %v, %v; expected a new insert", c.ID, inserted, err)
		}
	}

	cards[1].Example = "Hola, ¿qué tal?"
	inserted, err := db.UpsertCard(ctx, "es", srcID, 1, cards[1])
	if err != nil || inserted {
		t.Fatalf("Expected second upsert to update in place, got %v, %v", inserted, err)
	}

	got, err := db.GetCard(ctx, "es", "a")
	if err != nil || got == nil || got.Example != "Hola, ¿qué tal?" || got.Audio != "hola.mp3" {
		t.Fatalf("Unexpected card %+v (err %v)", got, err)
	}
	if missing, err := db.GetCard(ctx, "es", "zzz"); missing != nil || err != nil {
		t.Errorf("Expected (nil, nil) for an unknown card, got %+v, %v", missing, err)
	}

	list, err := db.ListCards(ctx, "es")
	if err != nil || len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("Expected cards in source order, got %+v (err %v)", list, err)
	}

	next, err := db.NextUnseen(ctx, "es")
	if err != nil || next == nil || next.ID != "b" {
		t.Fatalf("Expected b to be next unseen, got %+v (err %v)", next, err)
	}

	if err := db.SaveSchedule(ctx, "es", domain.Schedule{CardID: "b", Interval: 1, Ease: 2.5, Stage: domain.StageIntroducing}); err != nil {
		t.Fatalf("SaveSchedule() returned an unexpected error: %v", err)
	}
	n, err := db.CountUnseen(ctx, "es")
	if err != nil || n != 1 {
		t.Errorf("Expected one unseen card, got %d (err %v)", n, err)
	}
	next, _ = db.NextUnseen(ctx, "es")
	if next == nil || next.ID != "a" {
		t.Errorf("Expected a to be next unseen, got %+v", next)
	}

	ids, err := db.CardIDsBySource(ctx, srcID)
	if err != nil || len(ids) != 2 {
		t.Errorf("Expected two card ids for the source, got %v (err %v)", ids, err)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	base := time.Date(2024, 1, 1, 9, 15, 30, 123456789, time.UTC)

	want := domain.Schedule{
		CardID:   "hola",
		Interval: 17,
		Ease:     2.3499999999999996,
		DueDate:  time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC),
		Stage:    domain.StageScheduled,
		Step:     6,
		Reviews: []domain.Review{
			{Timestamp: base, Outcome: domain.OutcomePass},
			{Timestamp: base.Add(72 * time.Hour), Outcome: domain.OutcomeFail},
			{Timestamp: base.Add(96 * time.Hour), Outcome: domain.OutcomeEasy},
		},
	}
	if err := db.SaveSchedule(ctx, "es", want); err != nil {
		t.Fatalf("SaveSchedule() returned an unexpected error: %v", err)
	}

	got, err := db.GetSchedule(ctx, "es", "hola")
	if err != nil || got == nil {
		t.Fatalf("GetSchedule() = %+v, %v", got, err)
	}
	if got.Ease != want.Ease {
		t.Errorf("Expected ease %v to round-trip exactly, got %v", want.Ease, got.Ease)
	}
	if got.Interval != want.Interval || got.Stage != want.Stage || got.Step != want.Step || !got.DueDate.Equal(want.DueDate) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if len(got.Reviews) != len(want.Reviews) {
		t.Fatalf("Expected %d reviews, got %d", len(want.Reviews), len(got.Reviews))
	}
	for i := range want.Reviews {
		if got.Reviews[i].Outcome != want.Reviews[i].Outcome || !got.Reviews[i].Timestamp.Equal(want.Reviews[i].Timestamp) {
			t.Errorf("review %d: expected %+v, got %+v", i, want.Reviews[i], got.Reviews[i])
		}
	}

	if missing, err := db.GetSchedule(ctx, "es", "nope"); missing != nil || err != nil {
		t.Errorf("Expected (nil, nil) for an unknown schedule, got %+v, %v", missing, err)
	}

	all, err := db.ListSchedules(ctx, "es")
	if err != nil || len(all) != 1 {
		t.Errorf("Expected one schedule, got %d (err %v)", len(all), err)
	}

	if err := db.DeleteSchedule(ctx, "es", want.CardID); err != nil {
		t.Fatalf("DeleteSchedule() returned an unexpected error: %v", err)
	}
	if gone, err := db.GetSchedule(ctx, "es", want.CardID); gone != nil || err != nil {
		t.Errorf("Expected the schedule to be gone, got %+v, %v", gone, err)
	}
}

func TestCorruptJSONReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.SaveSchedule(ctx, "es", domain.Schedule{CardID: "x", Interval: 2, Ease: 2.5}); err != nil {
		t.Fatalf("SaveSchedule() returned an unexpected error: %v", err)
	}
	if _, err := db.conn.Exec(`UPDATE schedules SET reviews = '{not json' WHERE card_id = 'x'`); err != nil {
		t.Fatalf("corrupting reviews: %v", err)
	}
	if _, err := db.conn.Exec(`INSERT INTO attempts (deck, card_id, history) VALUES ('es', 'x', '[{"pass":')`); err != nil {
		t.Fatalf("corrupting attempts: %v", err)
	}

	s, err := db.GetSchedule(ctx, "es", "x")
	if err != nil || s == nil {
		t.Fatalf("Expected corrupt reviews to be tolerated, got %+v, %v", s, err)
	}
	if len(s.Reviews) != 0 || s.Interval != 2 {
		t.Errorf("Expected empty reviews with state intact, got %+v", s)
	}

	history, err := db.GetAttempts(ctx, "es", "x")
	if err != nil || len(history) != 0 {
		t.Errorf("Expected corrupt attempts to read as empty, got %v, %v", history, err)
	}
	all, err := db.ListAttempts(ctx, "es")
	if err != nil || len(all["x"]) != 0 {
		t.Errorf("Expected corrupt attempts to list as empty, got %v, %v", all, err)
	}
}

func TestAttemptsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	history := []domain.Attempt{
		{Timestamp: t0, Pass: true, Scored: true},
		{Timestamp: t0.Add(time.Minute), Pass: true, Scored: false},
		{Timestamp: t0.Add(2 * time.Minute), Pass: false, Scored: true},
	}
	if err := db.SaveAttempts(ctx, "es", "hola", history); err != nil {
		t.Fatalf("SaveAttempts() returned an unexpected error: %v", err)
	}

	got, err := db.GetAttempts(ctx, "es", "hola")
	if err != nil || len(got) != 3 {
		t.Fatalf("GetAttempts() = %v, %v", got, err)
	}
	for i := range history {
		if got[i].Pass != history[i].Pass || got[i].Scored != history[i].Scored || !got[i].Timestamp.Equal(history[i].Timestamp) {
			t.Errorf("attempt %d: expected %+v, got %+v", i, history[i], got[i])
		}
	}

	if none, err := db.GetAttempts(ctx, "es", "unknown"); none != nil || err != nil {
		t.Errorf("Expected no attempts for an unknown card, got %v, %v", none, err)
	}
}

func TestAllowance(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if a, err := db.GetAllowance(ctx, "es"); a != nil || err != nil {
		t.Fatalf("Expected (nil, nil) before any allowance is saved, got %+v, %v", a, err)
	}

	for _, want := range []domain.Allowance{{Date: "2024-01-01", Allowed: 5, Used: 1}, {Date: "2024-01-02", Allowed: 3, Used: 0}} {
		if err := db.SaveAllowance(ctx, "es", want); err != nil {
			t.Fatalf("SaveAllowance() returned an unexpected error: %v", err)
		}
		got, err := db.GetAllowance(ctx, "es")
		if err != nil || got == nil || *got != want {
			t.Errorf("Expected %+v, got %+v (err %v)", want, got, err)
		}
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.InsertSource(ctx, "es", "https://example.com/decks.git", SourceGit)
	if err != nil {
		t.Fatalf("InsertSource() returned an unexpected error: %v", err)
	}
	if _, err := db.InsertSource(ctx, "es", "https://example.com/decks.git", SourceGit); err == nil {
		t.Error("Expected a duplicate path to be rejected")
	}
	if _, err := db.UpsertCard(ctx, "es", id, 0, domain.Card{ID: "c", Front: "f", Back: "b"}); err != nil {
		t.Fatalf("UpsertCard() returned an unexpected error: %v", err)
	}

	scanned := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)
	if err := db.UpdateSourceLastScanned(ctx, id, scanned); err != nil {
		t.Fatalf("UpdateSourceLastScanned() returned an unexpected error: %v", err)
	}

	src, err := db.FindSourceByPath(ctx, "https://example.com/decks.git")
	if err != nil || src == nil {
		t.Fatalf("FindSourceByPath() = %+v, %v", src, err)
	}
	if src.Deck != "es" || src.Type != SourceGit || src.LastScanned == nil || !src.LastScanned.Equal(scanned) {
		t.Errorf("Unexpected source %+v", src)
	}

	if err := db.DeleteSource(ctx, id); err != nil {
		t.Fatalf("DeleteSource() returned an unexpected error: %v", err)
	}
	if err := db.DeleteSource(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
	if c, _ := db.GetCard(ctx, "es", "c"); c == nil {
		t.Error("Expected cards to survive source deletion")
	}
	all, err := db.GetAllSources(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("Expected no sources left, got %v (err %v)", all, err)
	}
}
