package houston

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleturman/houston/config"
	"github.com/kyleturman/houston/llm"
	"github.com/kyleturman/houston/usage"
)

func TestRegistry_ForRole_ResolvesRoleAssignments(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		role             string
		expectedModelKey string
		expectedProvider string
	}{
		{role: "agents", expectedModelKey: "sonnet-4.5", expectedProvider: "anthropic"},
		{role: "tasks", expectedModelKey: "haiku-4.5", expectedProvider: "anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			adapter, err := r.ForRole(tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedModelKey, adapter.Info().ModelKey)
			assert.Equal(t, tt.expectedProvider, adapter.Info().Provider)
		})
	}
}

func TestRegistry_Get_AttachesTrackingWithPrincipal(t *testing.T) {
	r := NewRegistry()

	principal := usage.SimplePrincipal("user-1")
	subject := usage.SimpleSubject{Kind: "goal", ID: "42"}

	adapter, err := r.Get("anthropic", "sonnet-4.5",
		WithPrincipal(principal),
		WithSubject(subject),
		WithContext("test"),
	)
	require.NoError(t, err)

	tracked, ok := adapter.(*usage.Tracked)
	require.True(t, ok, "expected a tracked adapter when a principal is supplied")
	assert.Equal(t, principal, tracked.Tracking().Principal)
	assert.Equal(t, subject, tracked.Tracking().Subject)
	assert.Equal(t, "test", tracked.Tracking().Context)

	// Info passes through the inner adapter unchanged.
	assert.Equal(t, "sonnet-4.5", tracked.Info().ModelKey)
}

func TestRegistry_Get_NoTrackingWithoutPrincipal(t *testing.T) {
	r := NewRegistry()

	adapter, err := r.Get("anthropic", "sonnet-4.5")
	require.NoError(t, err)

	_, tracked := adapter.(*usage.Tracked)
	assert.False(t, tracked, "no principal means no tracking")
}

func TestRegistry_Get_SubjectWithoutPrincipalIgnored(t *testing.T) {
	r := NewRegistry()

	adapter, err := r.Get("anthropic", "sonnet-4.5",
		WithSubject(usage.SimpleSubject{Kind: "goal", ID: "42"}),
		WithContext("test"),
	)
	require.NoError(t, err)

	_, tracked := adapter.(*usage.Tracked)
	assert.False(t, tracked, "subject/context without a principal must not attach tracking")
}

func TestRegistry_ForRole_UnknownRole(t *testing.T) {
	r := NewRegistry()

	_, err := r.ForRole("nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRole)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestRegistry_Get_UnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("acme", "sonnet-4.5")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistry_Get_UnknownModel(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("anthropic", "sonnet-99")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistry_Get_OllamaAcceptsAnyModelKey(t *testing.T) {
	r := NewRegistry()

	adapter, err := r.Get("ollama", "llama3.2")
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", adapter.Info().ModelKey)
	assert.False(t, adapter.Info().SupportsTools)
}

func TestRegistry_SetRoles_ReplacesTable(t *testing.T) {
	r := NewRegistry()

	r.SetRoles(map[string]config.Role{
		"agents": {Provider: "anthropic", Model: "haiku-4.5"},
	})

	adapter, err := r.ForRole("agents")
	require.NoError(t, err)
	assert.Equal(t, "haiku-4.5", adapter.Info().ModelKey)

	// The old table is gone entirely, not merged.
	_, err = r.ForRole("tasks")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRegistry_RegisterProvider_CustomFactory(t *testing.T) {
	r := NewRegistry()

	r.RegisterProvider("mock", func(modelKey string) (llm.Adapter, error) {
		return llm.NewMockAdapter(modelKey, "mock"), nil
	}, map[string]string{"test-model": "test-model"})

	adapter, err := r.Get("mock", "test-model")
	require.NoError(t, err)
	assert.Equal(t, "mock", adapter.Info().Provider)

	_, err = r.Get("mock", "other-model")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistry_Models_ListsSortedCatalog(t *testing.T) {
	r := NewRegistry()

	entries := r.Models()
	require.NotEmpty(t, entries)

	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Provider+"/"+e.ModelKey] = true
		assert.NotEmpty(t, e.APIModel)
	}
	assert.True(t, seen["anthropic/sonnet-4.5"])
	assert.True(t, seen["anthropic/haiku-4.5"])
	assert.True(t, seen["openai/gpt-4o"])
	assert.True(t, seen["gemini/gemini-2.5-flash"])

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		ordered := prev.Provider < cur.Provider ||
			(prev.Provider == cur.Provider && prev.ModelKey < cur.ModelKey)
		assert.True(t, ordered, "entries must be sorted by provider then key")
	}
}
