package llm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockAdapter is a lightweight in-memory Adapter useful for tests & examples.
// Responses are keyed by the latest user prompt; a prompt may additionally be
// scripted to emit function calls on the first turn and the canned text once
// tool responses appear in the conversation.
type MockAdapter struct {
	info      Info
	responses map[string]string
	calls     map[string][]FunctionCall
	usage     *TokenUsage
}

// NewMockAdapter constructs a MockAdapter with basic tool support enabled.
func NewMockAdapter(modelKey, provider string) *MockAdapter {
	return &MockAdapter{
		info: Info{
			ModelKey:      modelKey,
			Provider:      provider,
			APIModel:      modelKey,
			SupportsTools: true,
		},
		responses: make(map[string]string),
		calls:     make(map[string][]FunctionCall),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockAdapter) AddResponse(prompt, response string) { m.responses[prompt] = response }

// AddFunctionCall scripts a function call for a prompt. The call is emitted as
// the final response of the first turn; once the conversation contains a tool
// response the canned text completion is returned instead.
func (m *MockAdapter) AddFunctionCall(prompt, name, arguments string) {
	m.calls[prompt] = append(m.calls[prompt], FunctionCall{
		ID:        uuid.NewString(),
		Name:      name,
		Arguments: arguments,
	})
}

// SetUsage attaches fixed token usage to every final response.
func (m *MockAdapter) SetUsage(input, output int) {
	m.usage = &TokenUsage{InputTokens: input, OutputTokens: output, TotalTokens: input + output}
}

// Generate implements Adapter; emits optional streaming char chunks then final response.
func (m *MockAdapter) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		prompt := lastUserText(req.Contents)
		if calls, ok := m.calls[prompt]; ok && !hasToolResponse(req.Contents) {
			parts := make([]Part, 0, len(calls))
			for _, call := range calls {
				parts = append(parts, FunctionCallPart{FunctionCall: call})
			}
			respCh <- Response{
				ID:           uuid.NewString(),
				Partial:      false,
				Content:      Content{Role: "assistant", Parts: parts},
				FinishReason: "tool_calls",
				Usage:        m.usage,
			}
			return
		}
		full := m.responses[prompt]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", prompt)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: Content{
						Role:  "assistant",
						Parts: []Part{TextPart{Text: string(r)}},
					},
				}:
				}
			}
		}
		respCh <- Response{
			ID:      uuid.NewString(),
			Partial: false,
			Content: Content{
				Role:  "assistant",
				Parts: []Part{TextPart{Text: full}},
			},
			FinishReason: "stop",
			Usage:        m.usage,
		}
	}()
	return respCh, errCh
}

// Info implements the Adapter interface.
func (m *MockAdapter) Info() Info { return m.info }

func lastUserText(contents []Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == "user" {
			return contents[i].Text()
		}
	}
	return contents[len(contents)-1].Text()
}

func hasToolResponse(contents []Content) bool {
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			if _, ok := p.(FunctionResponsePart); ok {
				return true
			}
		}
	}
	return false
}
