// Package openai provides an llm.Adapter backed by the OpenAI Chat
// Completions API (including streaming + function/tool calling). It adapts
// the normalized Request/Response structures into the SDK's message format
// and back.
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kyleturman/houston/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// models maps short catalog keys to SDK chat model identifiers.
var models = map[string]string{
	"gpt-4o":       openai.ChatModelGPT4o,
	"gpt-4o-mini":  openai.ChatModelGPT4oMini,
	"gpt-4.1":      openai.ChatModelGPT4_1,
	"gpt-4.1-mini": openai.ChatModelGPT4_1Mini,
}

// Catalog returns a copy of the model key catalog (key -> wire identifier).
func Catalog() map[string]string {
	out := make(map[string]string, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}

// aggCall aggregates partial tool call streaming deltas (id, name, arguments)
// allowing reconstruction of complete function call parts when finish reason
// is emitted. Internal helper (unexported).
type aggCall struct{ id, name, args string }

// Options configure the OpenAI adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
}

// Adapter wraps the OpenAI Chat Completions API behind the generic llm.Adapter interface.
type Adapter struct {
	client   *openai.Client
	modelKey string
	apiModel string
	opts     Options
}

// New creates an OpenAI adapter for the given model key using the official
// client. The API key defaults to OPENAI_API_KEY when not configured.
func New(modelKey string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		APIKey:              os.Getenv("OPENAI_API_KEY"),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)
	return newFromClient(&client, modelKey, opts)
}

// NewFromClient creates an OpenAI adapter from an existing client.
func NewFromClient(client *openai.Client, modelKey string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{Temperature: 0.7, MaxCompletionTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}
	return newFromClient(client, modelKey, opts)
}

func newFromClient(client *openai.Client, modelKey string, opts Options) (*Adapter, error) {
	apiModel, ok := models[modelKey]
	if !ok {
		return nil, fmt.Errorf("openai: unknown model key %q", modelKey)
	}
	return &Adapter{client: client, modelKey: modelKey, apiModel: apiModel, opts: opts}, nil
}

// Generate implements unified streaming / non-streaming generation.
func (a *Adapter) Generate(ctx context.Context, req llm.Request) (<-chan llm.Response, <-chan error) {
	out := make(chan llm.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		toolResponses, order := collectToolResponses(req)
		messages := buildMessages(req, toolResponses, order)
		params := a.buildParams(req, messages)
		if req.Stream {
			a.handleStreaming(ctx, params, out, errCh)
			return
		}
		a.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// collectToolResponses indexes tool (function) responses by id preserving first-seen order.
func collectToolResponses(req llm.Request) (map[string]string, []string) {
	responses := map[string]string{}
	order := []string{}
	for _, c := range req.Contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(llm.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if _, exists := responses[fr.FunctionResponse.ID]; exists {
				continue
			}
			var text string
			if s, ok := fr.FunctionResponse.Response.(string); ok {
				text = s
			} else {
				text = fmt.Sprintf("%v", fr.FunctionResponse.Response)
			}
			responses[fr.FunctionResponse.ID] = text
			order = append(order, fr.FunctionResponse.ID)
		}
	}
	return responses, order
}

// buildMessages converts normalized contents into OpenAI chat messages while
// attaching matching tool responses immediately after assistant tool calls.
func buildMessages(
	req llm.Request,
	toolResponses map[string]string,
	order []string,
) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	for _, c := range req.Contents {
		if c.Role == "tool" {
			continue
		}
		var textBuilder strings.Builder
		for _, p := range c.Parts {
			if tp, ok := p.(llm.TextPart); ok {
				textBuilder.WriteString(tp.Text)
			}
		}
		text := textBuilder.String()
		switch c.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		case "user":
			messages = append(messages, openai.UserMessage(text))
		case "assistant":
			toolCalls, callIDs := extractToolCalls(c)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			messages = append(
				messages,
				openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				}},
			)
			for _, id := range callIDs {
				if id == "" {
					continue
				}
				if resp, ok := toolResponses[id]; ok {
					messages = append(messages, openai.ToolMessage(resp, id))
					delete(toolResponses, id)
				}
			}
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}
	for _, id := range order {
		if resp, ok := toolResponses[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}
	return messages
}

// extractToolCalls extracts tool call parts and returns OpenAI formatted tool calls + ordered IDs.
func extractToolCalls(c llm.Content) ([]openai.ChatCompletionMessageToolCallParam, []string) {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	var callIDs []string
	for _, p := range c.Parts {
		if fc, ok := p.(llm.FunctionCallPart); ok {
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   fc.FunctionCall.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      fc.FunctionCall.Name,
					Arguments: fc.FunctionCall.Arguments,
				},
			})
			callIDs = append(callIDs, fc.FunctionCall.ID)
		}
	}
	return toolCalls, callIDs
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (a *Adapter) buildParams(
	req llm.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               a.apiModel,
		Temperature:         openai.Float(a.opts.Temperature),
		MaxCompletionTokens: openai.Int(a.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// handleStreaming processes streaming responses and forwards partial / final events.
func (a *Adapter) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- llm.Response,
	errCh chan<- error,
) {
	stream := a.client.Chat.Completions.NewStreaming(ctx, params)
	var textBuilder strings.Builder
	toolAgg := map[int64]*aggCall{}
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			emitTextDelta(ch, &textBuilder, out)
			emitToolCallDeltas(ch, toolAgg, out)
			if ch.FinishReason != "" {
				emitFinalChunk(ck.ID, ch, &textBuilder, toolAgg, out)
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai: streaming error: %w", err)
	}
}

func emitTextDelta(
	ch openai.ChatCompletionChunkChoice,
	builder *strings.Builder,
	out chan<- llm.Response,
) {
	if ch.Delta.Content == "" {
		return
	}
	builder.WriteString(ch.Delta.Content)
	out <- llm.Response{
		Partial: true,
		Content: llm.Content{
			Role:  "assistant",
			Parts: []llm.Part{llm.TextPart{Text: ch.Delta.Content}},
		},
	}
}

func emitToolCallDeltas(
	ch openai.ChatCompletionChunkChoice,
	agg map[int64]*aggCall,
	out chan<- llm.Response,
) {
	for _, tc := range ch.Delta.ToolCalls {
		ac, ok := agg[tc.Index]
		if !ok {
			ac = &aggCall{}
			agg[tc.Index] = ac
		}
		if tc.ID != "" {
			ac.id = tc.ID
		}
		if tc.Function.Name != "" {
			ac.name = tc.Function.Name
		}
		if tc.Function.Arguments != "" {
			ac.args += tc.Function.Arguments
		}
		out <- llm.Response{
			Partial: true,
			Content: llm.Content{
				Role: "assistant",
				Parts: []llm.Part{llm.FunctionCallPart{FunctionCall: llm.FunctionCall{
					ID:        ac.id,
					Name:      ac.name,
					Arguments: ac.args,
				}}},
			},
		}
	}
}

func emitFinalChunk(
	id string,
	ch openai.ChatCompletionChunkChoice,
	builder *strings.Builder,
	toolAgg map[int64]*aggCall,
	out chan<- llm.Response,
) {
	finalParts := make([]llm.Part, 0, len(toolAgg)+1)
	if builder.Len() > 0 {
		finalParts = append(finalParts, llm.TextPart{Text: builder.String()})
	}
	for _, ac := range toolAgg {
		finalParts = append(finalParts, llm.FunctionCallPart{FunctionCall: llm.FunctionCall{
			ID:        ac.id,
			Name:      ac.name,
			Arguments: ac.args,
		}})
	}
	out <- llm.Response{
		ID:           id,
		Partial:      false,
		Content:      llm.Content{Role: "assistant", Parts: finalParts},
		FinishReason: ch.FinishReason,
	}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (a *Adapter) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- llm.Response,
	errCh chan<- error,
) {
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai: api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("openai: no choices returned")
		return
	}
	ch0 := resp.Choices[0]
	parts := make([]llm.Part, 0, len(ch0.Message.ToolCalls)+1)
	if ch0.Message.Content != "" {
		parts = append(parts, llm.TextPart{Text: ch0.Message.Content})
	}
	for _, tc := range ch0.Message.ToolCalls {
		parts = append(parts, llm.FunctionCallPart{FunctionCall: llm.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}
	usage := &llm.TokenUsage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
	out <- llm.Response{
		ID:           resp.ID,
		Partial:      false,
		Content:      llm.Content{Role: "assistant", Parts: parts},
		FinishReason: ch0.FinishReason,
		Usage:        usage,
	}
}

// Info returns metadata describing this OpenAI adapter.
func (a *Adapter) Info() llm.Info {
	return llm.Info{
		ModelKey:      a.modelKey,
		Provider:      "openai",
		APIModel:      a.apiModel,
		SupportsTools: true,
	}
}
