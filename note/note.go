// Package note implements the assistant's note taking: a Note model plus
// Store implementations (in-memory and, via note/sqlite, durable). Notes are
// soft deleted and listed pinned-first, most recently updated first.
package note

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxTitleLength bounds titles derived from note content.
const maxTitleLength = 80

// ErrNotFound is returned when a note for the given id does not exist (or was
// deleted) in the underlying store.
var ErrNotFound = fmt.Errorf("note not found")

// Note represents a single note.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Pinned    bool       `json:"pinned"`
	Archived  bool       `json:"archived"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ListFilter narrows List results.
type ListFilter struct {
	IncludeArchived bool
}

// Update carries the mutable fields of a note; nil fields are left unchanged.
type Update struct {
	Title    *string
	Content  *string
	Pinned   *bool
	Archived *bool
}

// Store persists notes. Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, title, content string) (*Note, error)
	Get(ctx context.Context, id string) (*Note, error)
	List(ctx context.Context, f ListFilter) ([]*Note, error)
	Update(ctx context.Context, id string, u Update) (*Note, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]*Note, error)
}

// DeriveTitle returns the title to store for a note: the explicit title when
// given, otherwise the first line of the content truncated to 80 runes.
func DeriveTitle(title, content string) string {
	if title != "" {
		return title
	}
	line := content
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) > maxTitleLength {
		runes := []rune(line)
		line = string(runes[:maxTitleLength])
	}
	if line == "" {
		line = "Untitled"
	}
	return line
}
