package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/recall/internal/domain"
)

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source is a card source feeding a deck: a local path or a git URL.
type Source struct {
	ID          int64      `json:"id"`
	Deck        string     `json:"deck"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(ctx context.Context, deck, path, sourceType string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (deck, path, type) VALUES (?, ?, ?)
	`, deck, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path, or (nil, nil) if none exists.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	sources, err := db.querySources(ctx, `
		SELECT id, deck, path, type, last_scanned FROM sources WHERE path = ?
	`, path)
	if err != nil || len(sources) == 0 {
		return nil, err
	}
	return &sources[0], nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	return db.querySources(ctx, `
		SELECT id, deck, path, type, last_scanned FROM sources ORDER BY id
	`)
}

// UpdateSourceLastScanned records when a source was last reconciled.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, formatTime(at), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source. Its cards stay in the deck, detached from any source.
func (db *DB) DeleteSource(ctx context.Context, sourceID int64) error {
	if _, err := db.conn.ExecContext(ctx, `UPDATE cards SET source_id = NULL WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("failed to detach cards from source ID %d: %w", sourceID, err)
	}
	res, err := db.conn.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", sourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source ID %d: %w", sourceID, domain.ErrNotFound)
	}
	return nil
}

func (db *DB) querySources(ctx context.Context, query string, args ...any) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var (
			s       Source
			scanned sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Deck, &s.Path, &s.Type, &scanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		if scanned.Valid {
			if t, err := parseTime(scanned.String); err == nil {
				s.LastScanned = &t
			}
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}
