package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/recall/internal/domain"
)

// UpsertCard inserts or refreshes a card definition and reports whether it was new.
func (db *DB) UpsertCard(ctx context.Context, deck string, sourceID int64, position int, card domain.Card) (bool, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM cards WHERE deck = ? AND id = ?`, deck, card.ID).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check card %s: %w", card.ID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO cards (deck, id, front, back, example, audio, position, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck, id) DO UPDATE SET
			front = excluded.front,
			back = excluded.back,
			example = excluded.example,
			audio = excluded.audio,
			position = excluded.position,
			source_id = excluded.source_id
	`, deck, card.ID, card.Front, card.Back, card.Example, card.Audio, position, sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to upsert card %s: %w", card.ID, err)
	}
	return exists == 0, nil
}

// GetCard retrieves a card definition. It returns (nil, nil) when the card is unknown.
func (db *DB) GetCard(ctx context.Context, deck, id string) (*domain.Card, error) {
	var c domain.Card
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, front, back, example, audio FROM cards WHERE deck = ? AND id = ?
	`, deck, id).Scan(&c.ID, &c.Front, &c.Back, &c.Example, &c.Audio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	return &c, nil
}

// ListCards returns every card of a deck in source order: sources by id, then
// position within each source. Cards of deleted sources come last.
func (db *DB) ListCards(ctx context.Context, deck string) ([]domain.Card, error) {
	return db.queryCards(ctx, `
		SELECT id, front, back, example, audio FROM cards
		WHERE deck = ? ORDER BY source_id IS NULL, source_id, position, id
	`, deck)
}

// NextUnseen returns the first card in source order that has no schedule yet,
// or (nil, nil) when every card has been introduced.
func (db *DB) NextUnseen(ctx context.Context, deck string) (*domain.Card, error) {
	cards, err := db.queryCards(ctx, `
		SELECT c.id, c.front, c.back, c.example, c.audio FROM cards c
		LEFT JOIN schedules s ON s.deck = c.deck AND s.card_id = c.id
		WHERE c.deck = ? AND s.card_id IS NULL
		ORDER BY c.source_id IS NULL, c.source_id, c.position, c.id LIMIT 1
	`, deck)
	if err != nil || len(cards) == 0 {
		return nil, err
	}
	return &cards[0], nil
}

// CountUnseen counts the deck's cards that have never been introduced.
func (db *DB) CountUnseen(ctx context.Context, deck string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cards c
		LEFT JOIN schedules s ON s.deck = c.deck AND s.card_id = c.id
		WHERE c.deck = ? AND s.card_id IS NULL
	`, deck).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unseen cards in %s: %w", deck, err)
	}
	return n, nil
}

// CardIDsBySource lists the ids of cards last seen in the given source.
func (db *DB) CardIDsBySource(ctx context.Context, sourceID int64) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id for source ID %d: %w", sourceID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) queryCards(ctx context.Context, query string, args ...any) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.Front, &c.Back, &c.Example, &c.Audio); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
