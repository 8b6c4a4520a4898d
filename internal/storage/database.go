package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB is the SQLite-backed store for decks, schedules, attempts and allowances.
// Every write is committed before the call returns.
type DB struct {
	conn *sql.DB
	log  *slog.Logger
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string, log *slog.Logger) (*DB, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps reads consistent with them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db, log: log}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// decodeList unmarshals a JSON array column. Corrupt data is logged and read as empty.
func decodeList[T any](ctx context.Context, db *DB, column, deck, cardID, raw string) []T {
	var out []T
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		db.log.WarnContext(ctx, "corrupt stored data, treating as empty",
			"column", column, "deck", deck, "card_id", cardID, "error", err)
		return nil
	}
	return out
}

func encodeList[T any](list []T) (string, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
