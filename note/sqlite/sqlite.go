// Package sqlite provides a durable note.Store backed by a CGo-free SQLite
// driver. Notes are soft deleted; timestamps are stored as RFC3339 TEXT.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kyleturman/houston/note"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    pinned INTEGER DEFAULT 0,
    archived INTEGER DEFAULT 0,
    deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_notes_deleted ON notes(deleted_at);
`

// Store handles SQLite operations for notes.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the note database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("note: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("note: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Create inserts a new note, deriving the title from content when empty.
func (s *Store) Create(ctx context.Context, title, content string) (*note.Note, error) {
	now := time.Now().UTC()
	n := &note.Note{
		ID:        "nt-" + uuid.NewString()[:8],
		Title:     note.DeriveTitle(title, content),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO notes (id, title, content, created_at, updated_at, pinned, archived)
VALUES (?, ?, ?, ?, ?, 0, 0)`,
		n.ID, n.Title, n.Content, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("note: insert: %w", err)
	}
	return n, nil
}

// Get returns a note by id; soft-deleted notes are not found.
func (s *Store) Get(ctx context.Context, id string) (*note.Note, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, content, created_at, updated_at, pinned, archived, deleted_at
FROM notes WHERE id = ? AND deleted_at IS NULL`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, note.ErrNotFound
	}
	return n, err
}

// List returns live notes ordered pinned first, then most recently updated.
func (s *Store) List(ctx context.Context, f note.ListFilter) ([]*note.Note, error) {
	query := `
SELECT id, title, content, created_at, updated_at, pinned, archived, deleted_at
FROM notes WHERE deleted_at IS NULL`
	if !f.IncludeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY pinned DESC, updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("note: list: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

// Update applies the non-nil fields of u and bumps updated_at.
func (s *Store) Update(ctx context.Context, id string, u note.Update) (*note.Note, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Title != nil {
		existing.Title = *u.Title
	}
	if u.Content != nil {
		existing.Content = *u.Content
		if u.Title == nil && existing.Title == "" {
			existing.Title = note.DeriveTitle("", existing.Content)
		}
	}
	if u.Pinned != nil {
		existing.Pinned = *u.Pinned
	}
	if u.Archived != nil {
		existing.Archived = *u.Archived
	}
	existing.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
UPDATE notes SET title = ?, content = ?, pinned = ?, archived = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`,
		existing.Title, existing.Content, boolInt(existing.Pinned), boolInt(existing.Archived),
		formatTime(existing.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("note: update: %w", err)
	}
	return existing, nil
}

// Delete soft deletes a note.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("note: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("note: delete: %w", err)
	}
	if affected == 0 {
		return note.ErrNotFound
	}
	return nil
}

// Search returns live notes whose title or content matches the query via LIKE.
func (s *Store) Search(ctx context.Context, query string) ([]*note.Note, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, content, created_at, updated_at, pinned, archived, deleted_at
FROM notes
WHERE deleted_at IS NULL AND (title LIKE ? OR content LIKE ?)
ORDER BY pinned DESC, updated_at DESC`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("note: search: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*note.Note, error) {
	var n note.Note
	var createdAt, updatedAt string
	var deletedAt sql.NullString
	var pinned, archived int
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &createdAt, &updatedAt,
		&pinned, &archived, &deletedAt); err != nil {
		return nil, err
	}
	var err error
	if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("note: parse created_at: %w", err)
	}
	if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("note: parse updated_at: %w", err)
	}
	if deletedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("note: parse deleted_at: %w", err)
		}
		n.DeletedAt = &ts
	}
	n.Pinned = pinned != 0
	n.Archived = archived != 0
	return &n, nil
}

func collectNotes(rows *sql.Rows) ([]*note.Note, error) {
	var out []*note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// timeLayout is RFC 3339 with a fixed nine-digit fraction so the TEXT
// comparisons in ORDER BY updated_at agree with time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
