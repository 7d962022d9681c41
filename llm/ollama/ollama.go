// Package ollama provides an llm.Adapter for a local Ollama instance via its
// /api/chat endpoint. Any model key is accepted verbatim since the local
// catalog is user-defined; tool calling is not supported.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kyleturman/houston/llm"
)

const defaultBaseURL = "http://localhost:11434"

// Options configures the Ollama adapter.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Adapter talks to a local Ollama server behind the generic llm.Adapter interface.
type Adapter struct {
	modelKey string
	baseURL  string
	client   *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// New creates an Ollama adapter for the given model key.
func New(modelKey string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if modelKey == "" {
		return nil, fmt.Errorf("ollama: empty model key")
	}
	return &Adapter{
		modelKey: modelKey,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		client:   opts.HTTPClient,
	}, nil
}

// Generate implements non-streaming generation against /api/chat.
func (a *Adapter) Generate(ctx context.Context, req llm.Request) (<-chan llm.Response, <-chan error) {
	out := make(chan llm.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if req.Stream {
			errCh <- fmt.Errorf("ollama: streaming not yet implemented")
			return
		}

		messages := buildMessages(req)
		body, err := json.Marshal(chatRequest{Model: a.modelKey, Messages: messages, Stream: false})
		if err != nil {
			errCh <- fmt.Errorf("ollama: marshal request: %w", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			errCh <- fmt.Errorf("ollama: create request: %w", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := a.client.Do(httpReq)
		if err != nil {
			errCh <- fmt.Errorf("ollama: request: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errCh <- fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
			return
		}

		var chatResp chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
			errCh <- fmt.Errorf("ollama: decode response: %w", err)
			return
		}

		finishReason := chatResp.DoneReason
		if finishReason == "" {
			finishReason = "stop"
		}

		out <- llm.Response{
			Partial: false,
			Content: llm.Content{
				Role:  "assistant",
				Parts: []llm.Part{llm.TextPart{Text: strings.TrimSpace(chatResp.Message.Content)}},
			},
			FinishReason: finishReason,
			Usage: &llm.TokenUsage{
				InputTokens:  chatResp.PromptEvalCount,
				OutputTokens: chatResp.EvalCount,
				TotalTokens:  chatResp.PromptEvalCount + chatResp.EvalCount,
			},
		}
	}()

	return out, errCh
}

// buildMessages flattens normalized contents into the Ollama chat shape. Tool
// contents are skipped since the adapter advertises no tool support.
func buildMessages(req llm.Request) []chatMessage {
	var messages []chatMessage
	if req.Instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Instructions})
	}
	for _, c := range req.Contents {
		if c.Role == "tool" {
			continue
		}
		text := c.Text()
		if text == "" {
			continue
		}
		role := c.Role
		if role != "system" && role != "assistant" {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: text})
	}
	return messages
}

// Available reports whether the local server answers within a short timeout.
func (a *Adapter) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Info returns metadata describing this Ollama adapter.
func (a *Adapter) Info() llm.Info {
	return llm.Info{
		ModelKey:      a.modelKey,
		Provider:      "ollama",
		APIModel:      a.modelKey,
		SupportsTools: false,
	}
}
