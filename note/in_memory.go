package note

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a volatile note Store backed by a process-local map. Safe
// for concurrent access; each returned note is a copy so callers cannot
// mutate internal state.
type InMemoryStore struct {
	mu    sync.RWMutex
	notes map[string]*Note
}

// NewInMemoryStore constructs an empty in-memory note store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notes: make(map[string]*Note)}
}

// Create inserts a new note, deriving the title from content when empty.
func (s *InMemoryStore) Create(_ context.Context, title, content string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	n := &Note{
		ID:        "nt-" + uuid.NewString()[:8],
		Title:     DeriveTitle(title, content),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.notes[n.ID] = n
	cp := *n
	return &cp, nil
}

// Get returns a note by id; soft-deleted notes are not found.
func (s *InMemoryStore) Get(_ context.Context, id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok || n.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

// List returns live notes ordered pinned first, then most recently updated.
func (s *InMemoryStore) List(_ context.Context, f ListFilter) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Note, 0, len(s.notes))
	for _, n := range s.notes {
		if n.DeletedAt != nil {
			continue
		}
		if n.Archived && !f.IncludeArchived {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sortNotes(out)
	return out, nil
}

// Update applies the non-nil fields of u and bumps UpdatedAt.
func (s *InMemoryStore) Update(_ context.Context, id string, u Update) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Content != nil {
		n.Content = *u.Content
		if u.Title == nil && n.Title == "" {
			n.Title = DeriveTitle("", n.Content)
		}
	}
	if u.Pinned != nil {
		n.Pinned = *u.Pinned
	}
	if u.Archived != nil {
		n.Archived = *u.Archived
	}
	n.UpdatedAt = time.Now().UTC()
	cp := *n
	return &cp, nil
}

// Delete soft deletes a note.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	n.DeletedAt = &now
	return nil
}

// Search returns live notes whose title or content contains the query
// (case-insensitive substring match).
func (s *InMemoryStore) Search(_ context.Context, query string) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []*Note
	for _, n := range s.notes {
		if n.DeletedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sortNotes(out)
	return out, nil
}

func sortNotes(notes []*Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Pinned != notes[j].Pinned {
			return notes[i].Pinned
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}
