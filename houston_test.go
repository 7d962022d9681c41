package houston

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyleturman/houston/config"
	"github.com/kyleturman/houston/llm"
	"github.com/kyleturman/houston/note"
	"github.com/kyleturman/houston/usage"
)

// newMockAssistant wires an Assistant whose "agents" role resolves to the
// given mock adapter.
func newMockAssistant(t *testing.T, mock *llm.MockAdapter, optFns ...func(o *Options)) *Assistant {
	t.Helper()
	a := New(optFns...)
	a.Registry().RegisterProvider("mock", func(modelKey string) (llm.Adapter, error) {
		return mock, nil
	}, nil)
	a.Registry().SetRoles(map[string]config.Role{
		"agents": {Provider: "mock", Model: "test-model", Instruction: "Be helpful."},
	})
	return a
}

func TestNew_PartialConfigKeepsCallerSettings(t *testing.T) {
	a := New(func(o *Options) {
		o.Config = config.Config{
			Providers: config.Providers{
				Anthropic: config.ProviderConfig{APIKey: "sk-custom"},
			},
			Usage: config.UsageConfig{DB: "/data/usage.db"},
		}
	})

	assert.Equal(t, "sk-custom", a.opts.Config.Providers.Anthropic.APIKey,
		"caller credentials survive role defaulting")
	assert.Equal(t, "/data/usage.db", a.opts.Config.Usage.DB)
	assert.Equal(t, config.Default().Roles, a.opts.Config.Roles,
		"an unset role table falls back to the default assignments")
}

func TestNew_ExplicitRolesKept(t *testing.T) {
	a := New(func(o *Options) {
		o.Config = config.Config{
			Roles: map[string]config.Role{"agents": {Provider: "ollama", Model: "llama3"}},
		}
	})

	role, ok := a.Registry().Role("agents")
	require.True(t, ok)
	assert.Equal(t, "ollama", role.Provider)
	_, ok = a.Registry().Role("tasks")
	assert.False(t, ok, "a caller-supplied role table is not merged with defaults")
}

func TestAssistant_Ask_SingleTurn(t *testing.T) {
	mock := llm.NewMockAdapter("test-model", "mock")
	mock.AddResponse("hello", "Hi there!")

	a := newMockAssistant(t, mock)

	answer, err := a.Ask(context.Background(), "agents", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", answer.Text)
	assert.Equal(t, "test-model", answer.ModelKey)
	assert.Equal(t, 1, answer.Turns)
}

func TestAssistant_Ask_UnknownRole(t *testing.T) {
	a := New()

	_, err := a.Ask(context.Background(), "nonexistent", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestAssistant_Ask_ExecutesToolCalls(t *testing.T) {
	mock := llm.NewMockAdapter("test-model", "mock")
	mock.AddFunctionCall("note this down", "create_note", `{"content":"remember the milk"}`)
	mock.AddResponse("note this down", "Saved your note.")

	a := newMockAssistant(t, mock)

	answer, err := a.Ask(context.Background(), "agents", "note this down")
	require.NoError(t, err)
	assert.Equal(t, "Saved your note.", answer.Text)
	assert.Equal(t, 2, answer.Turns)

	notes, err := a.Notes().List(context.Background(), note.ListFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "remember the milk", notes[0].Content)
	assert.Equal(t, "remember the milk", notes[0].Title)
}

func TestAssistant_Ask_UnknownToolReportedToModel(t *testing.T) {
	mock := llm.NewMockAdapter("test-model", "mock")
	mock.AddFunctionCall("do something", "launch_rocket", `{}`)
	mock.AddResponse("do something", "That tool is not available.")

	a := newMockAssistant(t, mock)

	// The unknown tool must not fail the query; the error goes back to the
	// model as a function response.
	answer, err := a.Ask(context.Background(), "agents", "do something")
	require.NoError(t, err)
	assert.Equal(t, "That tool is not available.", answer.Text)
}

func TestAssistant_Ask_TracksUsage(t *testing.T) {
	mock := llm.NewMockAdapter("test-model", "mock")
	mock.AddResponse("hello", "Hi!")
	mock.SetUsage(100, 25)

	store := usage.NewInMemoryStore()
	a := newMockAssistant(t, mock, func(o *Options) {
		o.UsageStore = store
	})

	answer, err := a.Ask(context.Background(), "agents", "hello",
		WithPrincipal(usage.SimplePrincipal("user-7")),
		WithContext("chit-chat"),
	)
	require.NoError(t, err)
	assert.Equal(t, 100, answer.Usage.InputTokens)
	assert.Equal(t, 25, answer.Usage.OutputTokens)

	records, err := store.List(context.Background(), usage.Filter{PrincipalID: "user-7"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "test-model", records[0].ModelKey)
	assert.Equal(t, "chit-chat", records[0].Context)
	assert.Equal(t, 100, records[0].InputTokens)
	assert.Equal(t, 25, records[0].OutputTokens)
}

func TestAssistant_Ask_NoUsageRecordWithoutPrincipal(t *testing.T) {
	mock := llm.NewMockAdapter("test-model", "mock")
	mock.AddResponse("hello", "Hi!")
	mock.SetUsage(100, 25)

	store := usage.NewInMemoryStore()
	a := newMockAssistant(t, mock, func(o *Options) {
		o.UsageStore = store
	})

	_, err := a.Ask(context.Background(), "agents", "hello")
	require.NoError(t, err)

	totals, err := store.Totals(context.Background(), usage.Filter{})
	require.NoError(t, err)
	assert.Zero(t, totals.Records)
}

func TestAssistant_Intents_FixedCatalog(t *testing.T) {
	mock := llm.NewMockAdapter("test-model", "mock")
	mock.AddResponse("what is the weather", "Sunny.")

	a := newMockAssistant(t, mock)
	catalog := a.Intents()

	assert.Equal(t, []string{"add_note", "agent_query"}, catalog.Names())

	res, err := catalog.Dispatch(context.Background(), "take a note buy milk tomorrow")
	require.NoError(t, err)
	assert.Contains(t, res.Text, "buy milk tomorrow")

	notes, err := a.Notes().List(context.Background(), note.ListFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)

	res, err = catalog.Dispatch(context.Background(), "ask houston what is the weather")
	require.NoError(t, err)
	assert.Equal(t, "Sunny.", res.Text)
}
