package usage

import (
	"context"
	"sync"
)

// InMemoryStore is a volatile Store keeping records in a process-local slice.
// Safe for concurrent access; best suited for tests and defaults.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewInMemoryStore constructs an empty in-memory usage ledger.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Record appends a ledger entry.
func (s *InMemoryStore) Record(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// List returns records matching the filter in insertion order.
func (s *InMemoryStore) List(_ context.Context, f Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Totals aggregates records matching the filter.
func (s *InMemoryStore) Totals(_ context.Context, f Filter) (Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t Totals
	for _, rec := range s.records {
		if !f.matches(rec) {
			continue
		}
		t.Records++
		t.InputTokens += rec.InputTokens
		t.OutputTokens += rec.OutputTokens
		t.Cost += rec.Cost
	}
	return t, nil
}
