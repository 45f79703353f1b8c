// CLAUDE:SUMMARY SQLite journal of dictionary edits (canonical, variants, transport, timestamp), newest first.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultLimit caps List when the caller passes a non-positive limit.
const DefaultLimit = 50

// Change is one recorded add_term call.
type Change struct {
	ID        int64     `json:"id"`
	Canonical string    `json:"canonical"`
	Variants  []string  `json:"variants"`
	Transport string    `json:"transport"`
	CreatedAt time.Time `json:"created_at"`
}

// Log manages the term_changes SQLite table.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// term_changes table exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS term_changes (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		canonical   TEXT NOT NULL,
		variants    TEXT NOT NULL DEFAULT '[]',
		transport   TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create term_changes table: %w", err)
	}

	return &Log{db: db}, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends a change. A zero CreatedAt is stamped with the current time.
func (l *Log) Record(ctx context.Context, c Change) error {
	if c.Variants == nil {
		c.Variants = []string{}
	}
	variants, err := json.Marshal(c.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO term_changes (canonical, variants, transport, created_at) VALUES (?, ?, ?, ?)`,
		c.Canonical, string(variants), c.Transport, c.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record change for %s: %w", c.Canonical, err)
	}
	return nil
}

// List returns up to limit changes, newest first.
func (l *Log) List(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := l.db.QueryContext(ctx, `SELECT id, canonical, variants, transport, created_at
		FROM term_changes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var (
			c        Change
			variants string
			created  int64
		)
		if err := rows.Scan(&c.ID, &c.Canonical, &variants, &c.Transport, &created); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		if err := json.Unmarshal([]byte(variants), &c.Variants); err != nil {
			return nil, fmt.Errorf("decode variants of change %d: %w", c.ID, err)
		}
		c.CreatedAt = time.Unix(0, created)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
