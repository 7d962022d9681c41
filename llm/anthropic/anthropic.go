// Package anthropic provides an llm.Adapter for the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/kyleturman/houston/llm"
)

// models maps short catalog keys to wire-level Anthropic model identifiers.
var models = map[string]anthropic.Model{
	"sonnet-4.5": "claude-sonnet-4-5-20250929",
	"haiku-4.5":  "claude-haiku-4-5-20251001",
	"opus-4.1":   "claude-opus-4-1-20250805",
}

// Catalog returns a copy of the model key catalog (key -> wire identifier).
func Catalog() map[string]string {
	out := make(map[string]string, len(models))
	for k, v := range models {
		out[k] = string(v)
	}
	return out
}

// Options configures the Anthropic adapter (temperature, max tokens, API key,
// base URL). Extend via functional options to preserve stability.
type Options struct {
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// Adapter wraps the Anthropic Messages API behind the generic llm.Adapter interface.
type Adapter struct {
	client   *anthropic.Client
	modelKey string
	apiModel anthropic.Model
	opts     Options
}

// New creates an Anthropic adapter for the given model key using the official
// client. The key must be present in the catalog; the API key defaults to
// ANTHROPIC_API_KEY when not configured.
func New(modelKey string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{
		Temperature: 0.7,
		MaxTokens:   4096,
		APIKey:      os.Getenv("ANTHROPIC_API_KEY"),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	apiModel, ok := models[modelKey]
	if !ok {
		return nil, fmt.Errorf("anthropic: unknown model key %q", modelKey)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Adapter{client: &client, modelKey: modelKey, apiModel: apiModel, opts: opts}, nil
}

// NewFromClient creates an Anthropic adapter from an existing client.
func NewFromClient(client *anthropic.Client, modelKey string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{Temperature: 0.7, MaxTokens: 4096}

	for _, fn := range optFns {
		fn(&opts)
	}

	apiModel, ok := models[modelKey]
	if !ok {
		return nil, fmt.Errorf("anthropic: unknown model key %q", modelKey)
	}

	return &Adapter{client: client, modelKey: modelKey, apiModel: apiModel, opts: opts}, nil
}

// Generate implements unified generation against the Anthropic Messages API
// (with function/tool calling), adapting its response into llm.Response events.
func (a *Adapter) Generate(ctx context.Context, req llm.Request) (<-chan llm.Response, <-chan error) {
	out := make(chan llm.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		messages := a.buildMessages(req.Contents)

		params := anthropic.MessageNewParams{
			Model:       a.apiModel,
			Messages:    messages,
			MaxTokens:   a.opts.MaxTokens,
			Temperature: anthropic.Float(a.opts.Temperature),
		}

		if systemBlocks := a.buildSystemBlocks(req); len(systemBlocks) > 0 {
			params.System = systemBlocks
		}

		if len(req.Tools) > 0 {
			params.Tools = a.buildTools(req.Tools)
		}

		if req.Stream {
			// TODO: adapt anthropic.MessageStreamEvent into partial responses
			errCh <- fmt.Errorf("anthropic: streaming not yet implemented")
			return
		}

		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic: api error: %w", err)
			return
		}

		var parts []llm.Part
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textBlock := block.AsText()
				if textBlock.Text != "" {
					parts = append(parts, llm.TextPart{Text: textBlock.Text})
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(argsBytes)
					}
				}
				parts = append(parts, llm.FunctionCallPart{
					FunctionCall: llm.FunctionCall{
						ID:        toolBlock.ID,
						Name:      toolBlock.Name,
						Arguments: args,
					},
				})
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		usage := &llm.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		}

		out <- llm.Response{
			ID:           resp.ID,
			Partial:      false,
			Content:      llm.Content{Role: "assistant", Parts: parts},
			FinishReason: finishReason,
			Usage:        usage,
		}
	}()

	return out, errCh
}

// buildMessages converts normalized contents to Anthropic message format.
func (a *Adapter) buildMessages(contents []llm.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	// Index tool responses by call id so they can be paired with their calls
	toolResponses := make(map[string]string)
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(llm.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if respStr, ok := fr.FunctionResponse.Response.(string); ok {
				toolResponses[fr.FunctionResponse.ID] = respStr
			} else {
				toolResponses[fr.FunctionResponse.ID] = fmt.Sprintf("%v", fr.FunctionResponse.Response)
			}
		}
	}

	for _, c := range contents {
		if c.Role == "system" || c.Role == "tool" {
			continue // System prompts handled separately, tool responses embedded
		}

		switch c.Role {
		case "assistant":
			content := a.buildAssistantContent(c.Parts, toolResponses)
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		default:
			// Unknown roles degrade to user
			content := buildUserContent(c.Parts)
			if len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		}
	}

	return messages
}

// buildSystemBlocks merges request instructions and system-role contents.
func (a *Adapter) buildSystemBlocks(req llm.Request) []anthropic.TextBlockParam {
	var systemBlocks []anthropic.TextBlockParam

	if req.Instructions != "" {
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, c := range req.Contents {
		if c.Role != "system" {
			continue
		}
		for _, p := range c.Parts {
			if tp, ok := p.(llm.TextPart); ok && tp.Text != "" {
				systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: tp.Text})
			}
		}
	}

	return systemBlocks
}

// buildUserContent builds content blocks for user messages.
func buildUserContent(parts []llm.Part) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	for _, p := range parts {
		if tp, ok := p.(llm.TextPart); ok && tp.Text != "" {
			content = append(content, anthropic.NewTextBlock(tp.Text))
		}
	}

	return content
}

// buildAssistantContent builds content blocks for assistant messages,
// attaching matching tool results directly after their tool_use blocks.
func (a *Adapter) buildAssistantContent(
	parts []llm.Part,
	toolResponses map[string]string,
) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion
	var toolCallIDs []string

	for _, p := range parts {
		switch part := p.(type) {
		case llm.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case llm.FunctionCallPart:
			var input any
			if part.FunctionCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &input); err != nil {
					input = part.FunctionCall.Arguments // fallback to string
				}
			}

			content = append(content, anthropic.NewToolUseBlock(
				part.FunctionCall.ID,
				input,
				part.FunctionCall.Name,
			))
			toolCallIDs = append(toolCallIDs, part.FunctionCall.ID)
		}
	}

	for _, id := range toolCallIDs {
		if resp, ok := toolResponses[id]; ok {
			content = append(content, anthropic.NewToolResultBlock(id, resp, false))
			delete(toolResponses, id)
		}
	}

	return content
}

// buildTools converts llm tool definitions to Anthropic tool format.
func (a *Adapter) buildTools(tools []llm.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if tool.Function.Parameters != nil {
			params := tool.Function.Parameters
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				if reqSlice, ok := required.([]string); ok {
					inputSchema.Required = reqSlice
				} else if reqAny, ok := required.([]any); ok {
					var reqStrings []string
					for _, r := range reqAny {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Function.Name)
	}

	return anthropicTools
}

// Info returns metadata describing this Anthropic adapter.
func (a *Adapter) Info() llm.Info {
	return llm.Info{
		ModelKey:      a.modelKey,
		Provider:      "anthropic",
		APIModel:      string(a.apiModel),
		SupportsTools: true,
	}
}
