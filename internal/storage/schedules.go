package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/recall/internal/domain"
)

// GetSchedule returns a card's schedule, or (nil, nil) if it was never introduced.
func (db *DB) GetSchedule(ctx context.Context, deck, cardID string) (*domain.Schedule, error) {
	schedules, err := db.querySchedules(ctx, `
		SELECT deck, card_id, interval, ease, due_date, stage, step, reviews
		FROM schedules WHERE deck = ? AND card_id = ?
	`, deck, cardID)
	if err != nil || len(schedules) == 0 {
		return nil, err
	}
	return &schedules[0], nil
}

// ListSchedules returns every schedule in a deck.
func (db *DB) ListSchedules(ctx context.Context, deck string) ([]domain.Schedule, error) {
	return db.querySchedules(ctx, `
		SELECT deck, card_id, interval, ease, due_date, stage, step, reviews
		FROM schedules WHERE deck = ? ORDER BY due_date, card_id
	`, deck)
}

// SaveSchedule upserts a card's schedule by id.
func (db *DB) SaveSchedule(ctx context.Context, deck string, s domain.Schedule) error {
	reviews, err := encodeList(s.Reviews)
	if err != nil {
		return fmt.Errorf("failed to encode reviews for %s: %w", s.CardID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO schedules (deck, card_id, interval, ease, due_date, stage, step, reviews)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck, card_id) DO UPDATE SET
			interval = excluded.interval,
			ease = excluded.ease,
			due_date = excluded.due_date,
			stage = excluded.stage,
			step = excluded.step,
			reviews = excluded.reviews
	`, deck, s.CardID, s.Interval, s.Ease, formatTime(s.DueDate), int(s.Stage), s.Step, reviews)
	if err != nil {
		return fmt.Errorf("failed to save schedule for %s: %w", s.CardID, err)
	}
	return nil
}

// DeleteSchedule removes a card's schedule, returning it to the unseen pool.
func (db *DB) DeleteSchedule(ctx context.Context, deck, cardID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM schedules WHERE deck = ? AND card_id = ?`, deck, cardID); err != nil {
		return fmt.Errorf("failed to delete schedule for %s: %w", cardID, err)
	}
	return nil
}

func (db *DB) querySchedules(ctx context.Context, query string, args ...any) ([]domain.Schedule, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var out []domain.Schedule
	for rows.Next() {
		var (
			s                     domain.Schedule
			deck, due, rawReviews string
			stage                 int
		)
		if err := rows.Scan(&deck, &s.CardID, &s.Interval, &s.Ease, &due, &stage, &s.Step, &rawReviews); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		if s.DueDate, err = parseTime(due); err != nil {
			return nil, fmt.Errorf("failed to parse due date of %s: %w", s.CardID, err)
		}
		s.Stage = domain.Stage(stage)
		s.Reviews = decodeList[domain.Review](ctx, db, "reviews", deck, s.CardID, rawReviews)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedules: %w", err)
	}
	return out, nil
}
