package usage

import (
	"context"
	"time"
)

// Principal identifies the user or service on whose behalf an adapter is used.
type Principal interface {
	PrincipalID() string
}

// Subject identifies the domain object a request pertains to. Kind + ID form
// a polymorphic reference ("goal:42", "conversation:abc", ...).
type Subject interface {
	SubjectKind() string
	SubjectID() string
}

// Tracking is the attribution metadata attached to an adapter at resolution
// time. Principal is always non-nil on an attached Tracking; Subject and
// Context are optional.
type Tracking struct {
	Principal Principal
	Subject   Subject
	Context   string
}

// Record is a single ledger entry: one model generation attributed to a
// principal, priced in USD.
type Record struct {
	ID           string    `json:"id"`
	PrincipalID  string    `json:"principal_id"`
	SubjectKind  string    `json:"subject_kind,omitempty"`
	SubjectID    string    `json:"subject_id,omitempty"`
	Context      string    `json:"context,omitempty"`
	Provider     string    `json:"provider"`
	ModelKey     string    `json:"model_key"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	CreatedAt    time.Time `json:"created_at"`
}

// Recorder accepts usage records. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Filter narrows ledger queries. Zero values match everything.
type Filter struct {
	PrincipalID string
	ModelKey    string
	Since       time.Time
}

// Totals aggregates a set of records.
type Totals struct {
	Records      int     `json:"records"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// Store is a queryable usage ledger.
type Store interface {
	Recorder
	List(ctx context.Context, f Filter) ([]Record, error)
	Totals(ctx context.Context, f Filter) (Totals, error)
}

// SimplePrincipal is a plain string-backed Principal for callers without a
// richer identity type (CLI flags, tests).
type SimplePrincipal string

// PrincipalID implements Principal.
func (p SimplePrincipal) PrincipalID() string { return string(p) }

// SimpleSubject is a plain kind/id pair implementing Subject.
type SimpleSubject struct {
	Kind string
	ID   string
}

// SubjectKind implements Subject.
func (s SimpleSubject) SubjectKind() string { return s.Kind }

// SubjectID implements Subject.
func (s SimpleSubject) SubjectID() string { return s.ID }

// matches reports whether a record passes the filter.
func (f Filter) matches(rec Record) bool {
	if f.PrincipalID != "" && rec.PrincipalID != f.PrincipalID {
		return false
	}
	if f.ModelKey != "" && rec.ModelKey != f.ModelKey {
		return false
	}
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}
