package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/recall/internal/domain"
)

// GetAttempts returns a card's attempt history, oldest first. Unknown cards have none.
func (db *DB) GetAttempts(ctx context.Context, deck, cardID string) ([]domain.Attempt, error) {
	var raw string
	err := db.conn.QueryRowContext(ctx, `
		SELECT history FROM attempts WHERE deck = ? AND card_id = ?
	`, deck, cardID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load attempts for %s: %w", cardID, err)
	}
	return decodeList[domain.Attempt](ctx, db, "history", deck, cardID, raw), nil
}

// SaveAttempts replaces a card's attempt history.
func (db *DB) SaveAttempts(ctx context.Context, deck, cardID string, history []domain.Attempt) error {
	raw, err := encodeList(history)
	if err != nil {
		return fmt.Errorf("failed to encode attempts for %s: %w", cardID, err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO attempts (deck, card_id, history) VALUES (?, ?, ?)
		ON CONFLICT (deck, card_id) DO UPDATE SET history = excluded.history
	`, deck, cardID, raw)
	if err != nil {
		return fmt.Errorf("failed to save attempts for %s: %w", cardID, err)
	}
	return nil
}

// ListAttempts returns the attempt history of every card in a deck keyed by card id.
func (db *DB) ListAttempts(ctx context.Context, deck string) (map[string][]domain.Attempt, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT card_id, history FROM attempts WHERE deck = ?`, deck)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts for %s: %w", deck, err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Attempt)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan attempts row: %w", err)
		}
		out[id] = decodeList[domain.Attempt](ctx, db, "history", deck, id, raw)
	}
	return out, rows.Err()
}
