// Package sqlite provides a durable usage.Store backed by a CGo-free SQLite
// driver. Timestamps are stored as RFC3339 TEXT; the schema is created on
// open.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kyleturman/houston/usage"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction so the TEXT
// comparisons in ORDER BY and the Since filter agree with time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id TEXT PRIMARY KEY,
    principal_id TEXT NOT NULL,
    subject_kind TEXT NOT NULL DEFAULT '',
    subject_id TEXT NOT NULL DEFAULT '',
    context TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL,
    model_key TEXT NOT NULL,
    input_tokens INTEGER NOT NULL,
    output_tokens INTEGER NOT NULL,
    cost REAL NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_principal ON usage_records(principal_id, created_at);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model_key);
`

// Store persists usage records in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the ledger database at path and initializes the
// schema. WAL journaling and a busy timeout keep concurrent writers usable.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("usage: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("usage: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts a ledger entry.
func (s *Store) Record(ctx context.Context, rec usage.Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO usage_records
  (id, principal_id, subject_kind, subject_id, context, provider, model_key, input_tokens, output_tokens, cost, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PrincipalID, rec.SubjectKind, rec.SubjectID, rec.Context,
		rec.Provider, rec.ModelKey, rec.InputTokens, rec.OutputTokens, rec.Cost,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("usage: insert record: %w", err)
	}
	return nil
}

// List returns records matching the filter, oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]usage.Record, error) {
	query, args := buildWhere(`
SELECT id, principal_id, subject_kind, subject_id, context, provider, model_key,
       input_tokens, output_tokens, cost, created_at
FROM usage_records`, f)
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usage: list records: %w", err)
	}
	defer rows.Close()

	var out []usage.Record
	for rows.Next() {
		var rec usage.Record
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.PrincipalID, &rec.SubjectKind, &rec.SubjectID,
			&rec.Context, &rec.Provider, &rec.ModelKey, &rec.InputTokens, &rec.OutputTokens,
			&rec.Cost, &createdAt); err != nil {
			return nil, fmt.Errorf("usage: scan record: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("usage: parse created_at: %w", err)
		}
		rec.CreatedAt = ts
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Totals aggregates records matching the filter.
func (s *Store) Totals(ctx context.Context, f Filter) (usage.Totals, error) {
	query, args := buildWhere(`
SELECT COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost), 0)
FROM usage_records`, f)

	var t usage.Totals
	if err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&t.Records, &t.InputTokens, &t.OutputTokens, &t.Cost); err != nil {
		return usage.Totals{}, fmt.Errorf("usage: totals: %w", err)
	}
	return t, nil
}

// Filter aliases usage.Filter so callers only import one package.
type Filter = usage.Filter

func buildWhere(base string, f Filter) (string, []any) {
	var conds []string
	var args []any
	if f.PrincipalID != "" {
		conds = append(conds, "principal_id = ?")
		args = append(args, f.PrincipalID)
	}
	if f.ModelKey != "" {
		conds = append(conds, "model_key = ?")
		args = append(args, f.ModelKey)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	for i, c := range conds {
		if i == 0 {
			base += " WHERE " + c
		} else {
			base += " AND " + c
		}
	}
	return base, args
}
