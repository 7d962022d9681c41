package llm

import "context"

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized adapter input produced by callers.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions for the model
	Contents     []Content        `json:"contents"`     // Conversation history converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates another usage sample into the receiver.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// Response is a (partial or final) chunk emitted by an adapter.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"` // Indicates if this is a partial response
	Content      Content     `json:"content"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about an adapter implementation. ModelKey is the
// short catalog identifier callers select by (e.g. "sonnet-4.5"); APIModel is
// the wire-level model identifier actually sent to the provider.
type Info struct {
	ModelKey      string `json:"model_key"`
	Provider      string `json:"provider"` // "anthropic", "openai", "gemini", "ollama", ...
	APIModel      string `json:"api_model"`
	SupportsTools bool   `json:"supports_tools"`
}

// Adapter is the minimal interface required to drive generation against a
// specific provider/model pairing. Implementations are stateless after
// construction and safe for concurrent use. Both channels are closed exactly
// once when generation ends; the final (non-partial) Response of a successful
// generation carries Usage when the provider reports token counts.
type Adapter interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the adapter implementation.
	Info() Info
}
