// Package houston provides the adapter registry and a high-level assistant
// façade over it. Most applications interact with this package by:
//  1. Creating an Assistant via New() (optionally overriding default in-memory stores)
//  2. Resolving adapters by role (ForRole) or explicit provider/model pair (Get)
//  3. Running agent queries (Ask) that loop generation and tool execution
//
// The registry resolves a symbolic role ("agents", "tasks") or an explicit
// (provider, model key) pair to a fresh adapter; supplying a principal at
// resolution time attaches usage tracking so every generation is attributed
// and priced. All defaults are safe for local development and testing;
// production deployments typically supply durable stores and a structured
// logger.
package houston

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kyleturman/houston/config"
	"github.com/kyleturman/houston/intent"
	"github.com/kyleturman/houston/llm"
	"github.com/kyleturman/houston/logging"
	"github.com/kyleturman/houston/note"
	"github.com/kyleturman/houston/tool"
	"github.com/kyleturman/houston/transcript"
	"github.com/kyleturman/houston/usage"
)

// defaultMaxTurns bounds the generate -> tool -> generate loop of Ask.
const defaultMaxTurns = 4

// Options configures the Assistant.
type Options struct {
	// Config supplies the role table and provider credentials. An unset
	// role table falls back to config.Default().Roles; the rest of the
	// struct is taken as given.
	Config config.Config

	// Stores (default to in-memory implementations if not provided)
	UsageStore usage.Store
	NoteStore  note.Store

	// Transcripts fetches YouTube transcripts (defaults to transcript.New()).
	Transcripts *transcript.Fetcher

	// Tools extends the built-in tool set (create_note,
	// fetch_youtube_transcript) with additional function tools.
	Tools []tool.Tool

	// MaxTurns bounds Ask's tool loop. Zero selects the default.
	MaxTurns int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Assistant is the high-level façade aggregating the registry and services.
type Assistant struct {
	opts     Options
	registry *Registry
	tools    map[string]tool.Tool
	toolDefs []llm.ToolDefinition
}

// New creates an Assistant with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Assistant {
	opts := Options{
		Config:     config.Default(),
		UsageStore: usage.NewInMemoryStore(),
		NoteStore:  note.NewInMemoryStore(),
		MaxTurns:   defaultMaxTurns,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Transcripts == nil {
		opts.Transcripts = transcript.New()
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaultMaxTurns
	}
	if opts.Config.Roles == nil {
		opts.Config.Roles = config.Default().Roles
	}

	registry := NewRegistry(func(o *RegistryOptions) {
		o.Roles = opts.Config.Roles
		o.Providers = opts.Config.Providers
		o.Recorder = opts.UsageStore
		o.Logger = opts.Logger
	})

	a := &Assistant{
		opts:     opts,
		registry: registry,
		tools:    make(map[string]tool.Tool),
	}

	a.registerTool(note.Tool(opts.NoteStore))
	a.registerTool(transcript.Tool(opts.Transcripts))
	for _, t := range opts.Tools {
		a.registerTool(t)
	}

	return a
}

func (a *Assistant) registerTool(t tool.Tool) {
	a.tools[t.Name()] = t
	a.toolDefs = append(a.toolDefs, tool.Definition(t))
}

// Registry returns the underlying adapter registry.
func (a *Assistant) Registry() *Registry { return a.registry }

// Notes returns the note store.
func (a *Assistant) Notes() note.Store { return a.opts.NoteStore }

// Usage returns the usage ledger.
func (a *Assistant) Usage() usage.Store { return a.opts.UsageStore }

// Transcripts returns the transcript fetcher.
func (a *Assistant) Transcripts() *transcript.Fetcher { return a.opts.Transcripts }

// Answer is the outcome of an agent query.
type Answer struct {
	Text     string         `json:"text"`
	ModelKey string         `json:"model_key"`
	Usage    llm.TokenUsage `json:"usage"` // Summed across turns
	Turns    int            `json:"turns"`
}

// Ask resolves the role's adapter and runs a bounded generate -> tool ->
// generate loop: function calls surfaced by the model are executed against
// the registered tools and their results fed back until the model produces a
// response without calls or the turn budget runs out. Tracking options pass
// through to resolution, so usage is attributed per the registry rule.
func (a *Assistant) Ask(ctx context.Context, role, prompt string, opts ...ResolveOption) (*Answer, error) {
	adapter, err := a.registry.ForRole(role, opts...)
	if err != nil {
		return nil, err
	}

	instruction := ""
	if assignment, ok := a.registry.Role(role); ok {
		instruction = assignment.Instruction
	}

	info := adapter.Info()
	var tools []llm.ToolDefinition
	if info.SupportsTools {
		tools = a.toolDefs
	}

	contents := []llm.Content{llm.UserContent(prompt)}
	answer := &Answer{ModelKey: info.ModelKey}
	lastText := ""

	for turn := 1; turn <= a.opts.MaxTurns; turn++ {
		answer.Turns = turn

		start := time.Now()
		final, err := collectFinal(ctx, adapter, llm.Request{
			Instructions: instruction,
			Contents:     contents,
			Tools:        tools,
		})
		if err != nil {
			a.opts.Logger.Error("ask.generate.failed", "role", role, "model", info.ModelKey, "error", err.Error())
			return nil, fmt.Errorf("ask: generate: %w", err)
		}
		if final.Usage != nil {
			answer.Usage.Add(*final.Usage)
		}
		a.opts.Logger.Debug("ask.generate.completed",
			"role", role,
			"model", info.ModelKey,
			"turn", turn,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		if text := final.Content.Text(); text != "" {
			lastText = text
		}

		calls := final.Content.FunctionCalls()
		if len(calls) == 0 {
			answer.Text = lastText
			return answer, nil
		}

		contents = append(contents, final.Content)
		contents = append(contents, a.executeCalls(ctx, calls))
	}

	// Turn budget exhausted with calls still pending: return the text so far
	// rather than failing the query.
	a.opts.Logger.Warn("ask.turn_budget.exhausted", "role", role, "max_turns", a.opts.MaxTurns)
	answer.Text = lastText
	return answer, nil
}

// executeCalls runs each function call against the registered tools and
// collects the responses into a single tool content.
func (a *Assistant) executeCalls(ctx context.Context, calls []llm.FunctionCall) llm.Content {
	parts := make([]llm.Part, 0, len(calls))
	for _, call := range calls {
		fr := llm.FunctionResponse{ID: call.ID, Name: call.Name}

		t, ok := a.tools[call.Name]
		if !ok {
			fr.Error = fmt.Sprintf("unknown tool: %s", call.Name)
			parts = append(parts, llm.FunctionResponsePart{FunctionResponse: fr})
			continue
		}

		args := map[string]any{}
		if call.Arguments != "" {
			if err := decodeArguments(call.Arguments, &args); err != nil {
				fr.Error = fmt.Sprintf("invalid arguments: %v", err)
				parts = append(parts, llm.FunctionResponsePart{FunctionResponse: fr})
				continue
			}
		}

		start := time.Now()
		result, err := t.Call(ctx, args)
		if err != nil {
			a.opts.Logger.Error("tool.call.failed", "tool", call.Name, "error", err.Error())
			fr.Error = err.Error()
		} else {
			a.opts.Logger.Debug("tool.call.completed",
				"tool", call.Name,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			fr.Response = result
		}
		parts = append(parts, llm.FunctionResponsePart{FunctionResponse: fr})
	}
	return llm.Content{Role: "tool", Parts: parts}
}

func decodeArguments(raw string, into *map[string]any) error {
	return json.Unmarshal([]byte(raw), into)
}

// collectFinal drains a generation, returning the last non-partial response.
func collectFinal(ctx context.Context, adapter llm.Adapter, req llm.Request) (*llm.Response, error) {
	respCh, errCh := adapter.Generate(ctx, req)

	var final *llm.Response
	for resp := range respCh {
		if !resp.Partial {
			r := resp
			final = &r
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if final == nil {
		return nil, fmt.Errorf("no final response")
	}
	return final, nil
}

// Intents builds the assistant's declarative action catalog with its two
// fixed actions: adding a note and sending an agent query.
func (a *Assistant) Intents() *intent.Catalog {
	catalog := intent.NewCatalog()

	// Registration of the fixed actions cannot collide in a fresh catalog.
	_ = catalog.Register(intent.Intent{
		Name:    "add_note",
		Phrases: []string{"add a note", "take a note"},
		Handler: func(ctx context.Context, in intent.Input) (*intent.Result, error) {
			n, err := a.opts.NoteStore.Create(ctx, "", in.Utterance)
			if err != nil {
				return nil, err
			}
			return &intent.Result{Text: fmt.Sprintf("Noted: %s", n.Title)}, nil
		},
	})
	_ = catalog.Register(intent.Intent{
		Name:    "agent_query",
		Phrases: []string{"send an agent query", "ask houston"},
		Handler: func(ctx context.Context, in intent.Input) (*intent.Result, error) {
			answer, err := a.Ask(ctx, "agents", in.Utterance)
			if err != nil {
				return nil, err
			}
			return &intent.Result{Text: answer.Text}, nil
		},
	})

	return catalog
}
