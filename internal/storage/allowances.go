package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/recall/internal/domain"
)

// GetAllowance returns the stored day-state of a deck, or (nil, nil) if none exists.
func (db *DB) GetAllowance(ctx context.Context, deck string) (*domain.Allowance, error) {
	var a domain.Allowance
	err := db.conn.QueryRowContext(ctx, `
		SELECT date, allowed, used FROM allowances WHERE deck = ?
	`, deck).Scan(&a.Date, &a.Allowed, &a.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load allowance for %s: %w", deck, err)
	}
	return &a, nil
}

// SaveAllowance replaces the day-state of a deck.
func (db *DB) SaveAllowance(ctx context.Context, deck string, a domain.Allowance) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO allowances (deck, date, allowed, used) VALUES (?, ?, ?, ?)
		ON CONFLICT (deck) DO UPDATE SET
			date = excluded.date,
			allowed = excluded.allowed,
			used = excluded.used
	`, deck, a.Date, a.Allowed, a.Used)
	if err != nil {
		return fmt.Errorf("failed to save allowance for %s: %w", deck, err)
	}
	return nil
}
