package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleturman/houston/usage"
)

var _ usage.Store = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	rec := usage.Record{
		ID:           "r1",
		PrincipalID:  "alice",
		SubjectKind:  "goal",
		SubjectID:    "42",
		Context:      "daily-checkin",
		Provider:     "anthropic",
		ModelKey:     "sonnet-4.5",
		InputTokens:  2000,
		OutputTokens: 500,
		Cost:         0.0135,
		CreatedAt:    created,
	}
	require.NoError(t, store.Record(ctx, rec))

	records, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	got := records[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.PrincipalID, got.PrincipalID)
	assert.Equal(t, rec.SubjectKind, got.SubjectKind)
	assert.Equal(t, rec.SubjectID, got.SubjectID)
	assert.Equal(t, rec.Context, got.Context)
	assert.Equal(t, rec.Provider, got.Provider)
	assert.Equal(t, rec.ModelKey, got.ModelKey)
	assert.Equal(t, rec.InputTokens, got.InputTokens)
	assert.Equal(t, rec.OutputTokens, got.OutputTokens)
	assert.InDelta(t, rec.Cost, got.Cost, 1e-9)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestStore_ListFilters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	seed := []usage.Record{
		{ID: "r1", PrincipalID: "alice", Provider: "anthropic", ModelKey: "sonnet-4.5", InputTokens: 100, OutputTokens: 10, CreatedAt: base},
		{ID: "r2", PrincipalID: "alice", Provider: "anthropic", ModelKey: "haiku-4.5", InputTokens: 50, OutputTokens: 5, CreatedAt: base.Add(time.Hour)},
		{ID: "r3", PrincipalID: "bob", Provider: "openai", ModelKey: "gpt-4o", InputTokens: 200, OutputTokens: 20, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, rec := range seed {
		require.NoError(t, store.Record(ctx, rec))
	}

	byPrincipal, err := store.List(ctx, Filter{PrincipalID: "alice"})
	require.NoError(t, err)
	require.Len(t, byPrincipal, 2)
	assert.Equal(t, "r1", byPrincipal[0].ID, "oldest first")

	byModel, err := store.List(ctx, Filter{ModelKey: "gpt-4o"})
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, "r3", byModel[0].ID)

	since, err := store.List(ctx, Filter{Since: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	combined, err := store.List(ctx, Filter{PrincipalID: "alice", Since: base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "r2", combined[0].ID)
}

func TestStore_OrderingAcrossFractionalSeconds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// A whole-second timestamp must sort before a fractional one in the same
	// second; the stored TEXT is compared lexicographically.
	base := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	halfLater := base.Add(500 * time.Millisecond)
	require.NoError(t, store.Record(ctx, usage.Record{
		ID: "whole", PrincipalID: "alice", Provider: "anthropic", ModelKey: "sonnet-4.5", CreatedAt: base,
	}))
	require.NoError(t, store.Record(ctx, usage.Record{
		ID: "fractional", PrincipalID: "alice", Provider: "anthropic", ModelKey: "sonnet-4.5", CreatedAt: halfLater,
	}))

	records, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "whole", records[0].ID, "oldest first")
	assert.Equal(t, "fractional", records[1].ID)

	since, err := store.List(ctx, Filter{Since: halfLater})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "fractional", since[0].ID)
}

func TestStore_Totals(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []usage.Record{
		{ID: "r1", PrincipalID: "alice", Provider: "anthropic", ModelKey: "sonnet-4.5", InputTokens: 100, OutputTokens: 10, Cost: 0.01, CreatedAt: now},
		{ID: "r2", PrincipalID: "alice", Provider: "anthropic", ModelKey: "haiku-4.5", InputTokens: 50, OutputTokens: 5, Cost: 0.001, CreatedAt: now},
		{ID: "r3", PrincipalID: "bob", Provider: "openai", ModelKey: "gpt-4o", InputTokens: 200, OutputTokens: 20, Cost: 0.02, CreatedAt: now},
	}
	for _, rec := range seed {
		require.NoError(t, store.Record(ctx, rec))
	}

	totals, err := store.Totals(ctx, Filter{PrincipalID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Records)
	assert.Equal(t, 150, totals.InputTokens)
	assert.Equal(t, 15, totals.OutputTokens)
	assert.InDelta(t, 0.011, totals.Cost, 1e-9)

	empty, err := store.Totals(ctx, Filter{PrincipalID: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, empty.Records)
	assert.Zero(t, empty.Cost)
}

func TestStore_SchemaSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usage.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, usage.Record{
		ID: "r1", PrincipalID: "alice", Provider: "anthropic", ModelKey: "sonnet-4.5",
		InputTokens: 1, OutputTokens: 1, CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
