// Package gemini provides an llm.Adapter backed by the Google Gemini API via
// the google.golang.org/genai client.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kyleturman/houston/llm"
	"google.golang.org/genai"
)

// models maps short catalog keys to Gemini API model identifiers.
var models = map[string]string{
	"gemini-2.5-flash": "gemini-2.5-flash",
	"gemini-2.5-pro":   "gemini-2.5-pro",
}

// Catalog returns a copy of the model key catalog (key -> wire identifier).
func Catalog() map[string]string {
	out := make(map[string]string, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}

// Options configures the Gemini adapter.
type Options struct {
	Temperature float64
	APIKey      string
}

// Adapter wraps the Gemini GenerateContent API behind the generic llm.Adapter interface.
type Adapter struct {
	client   *genai.Client
	modelKey string
	apiModel string
	opts     Options
}

// New creates a Gemini adapter for the given model key. The API key defaults
// to GEMINI_API_KEY when not configured.
func New(modelKey string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{
		Temperature: 0.7,
		APIKey:      os.Getenv("GEMINI_API_KEY"),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	apiModel, ok := models[modelKey]
	if !ok {
		return nil, fmt.Errorf("gemini: unknown model key %q", modelKey)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Adapter{client: client, modelKey: modelKey, apiModel: apiModel, opts: opts}, nil
}

// NewFromClient creates a Gemini adapter from an existing client.
func NewFromClient(client *genai.Client, modelKey string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{Temperature: 0.7}
	for _, fn := range optFns {
		fn(&opts)
	}
	apiModel, ok := models[modelKey]
	if !ok {
		return nil, fmt.Errorf("gemini: unknown model key %q", modelKey)
	}
	return &Adapter{client: client, modelKey: modelKey, apiModel: apiModel, opts: opts}, nil
}

// Generate implements non-streaming generation against GenerateContent.
func (a *Adapter) Generate(ctx context.Context, req llm.Request) (<-chan llm.Response, <-chan error) {
	out := make(chan llm.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if req.Stream {
			errCh <- fmt.Errorf("gemini: streaming not yet implemented")
			return
		}

		contents := buildContents(req.Contents)
		config, err := a.buildConfig(req)
		if err != nil {
			errCh <- err
			return
		}

		resp, err := a.client.Models.GenerateContent(ctx, a.apiModel, contents, config)
		if err != nil {
			errCh <- fmt.Errorf("gemini: api error: %w", err)
			return
		}

		var parts []llm.Part
		if text := resp.Text(); text != "" {
			parts = append(parts, llm.TextPart{Text: text})
		}
		for _, call := range resp.FunctionCalls() {
			args := ""
			if call.Args != nil {
				if raw, err := json.Marshal(call.Args); err == nil {
					args = string(raw)
				}
			}
			parts = append(parts, llm.FunctionCallPart{
				FunctionCall: llm.FunctionCall{ID: call.ID, Name: call.Name, Arguments: args},
			})
		}

		finishReason := "stop"
		if len(resp.FunctionCalls()) > 0 {
			finishReason = "tool_calls"
		}

		var usage *llm.TokenUsage
		if md := resp.UsageMetadata; md != nil {
			usage = &llm.TokenUsage{
				InputTokens:  int(md.PromptTokenCount),
				OutputTokens: int(md.CandidatesTokenCount),
				TotalTokens:  int(md.TotalTokenCount),
			}
		}

		out <- llm.Response{
			Partial:      false,
			Content:      llm.Content{Role: "assistant", Parts: parts},
			FinishReason: finishReason,
			Usage:        usage,
		}
	}()

	return out, errCh
}

// buildContents converts normalized contents into genai contents. Gemini
// requires exact pairing of call and result messages, so function calls and
// their responses are emitted as adjacent model/user contents.
func buildContents(contents []llm.Content) []*genai.Content {
	var out []*genai.Content

	for _, c := range contents {
		switch c.Role {
		case "assistant":
			var gparts []*genai.Part
			for _, p := range c.Parts {
				switch part := p.(type) {
				case llm.TextPart:
					if part.Text != "" {
						gparts = append(gparts, genai.NewPartFromText(part.Text))
					}
				case llm.FunctionCallPart:
					args := map[string]any{}
					if part.FunctionCall.Arguments != "" {
						_ = json.Unmarshal([]byte(part.FunctionCall.Arguments), &args)
					}
					gparts = append(gparts, &genai.Part{FunctionCall: &genai.FunctionCall{
						ID:   part.FunctionCall.ID,
						Name: part.FunctionCall.Name,
						Args: args,
					}})
				}
			}
			if len(gparts) > 0 {
				out = append(out, genai.NewContentFromParts(gparts, genai.RoleModel))
			}
		case "tool":
			for _, p := range c.Parts {
				fr, ok := p.(llm.FunctionResponsePart)
				if !ok {
					continue
				}
				out = append(out, genai.NewContentFromParts([]*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:   fr.FunctionResponse.ID,
						Name: fr.FunctionResponse.Name,
						Response: map[string]any{
							"output": fr.FunctionResponse.Response,
						},
					},
				}}, genai.RoleUser))
			}
		case "system":
			// Handled via SystemInstruction in buildConfig
		default:
			if text := c.Text(); text != "" {
				out = append(out, genai.NewContentFromText(text, genai.RoleUser))
			}
		}
	}

	return out
}

// buildConfig assembles generation config including system instructions and
// function declarations translated from JSON-schema maps.
func (a *Adapter) buildConfig(req llm.Request) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(a.opts.Temperature)),
	}

	system := req.Instructions
	for _, c := range req.Contents {
		if c.Role == "system" {
			if t := c.Text(); t != "" {
				if system != "" {
					system += "\n"
				}
				system += t
			}
		}
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if len(req.Tools) == 0 {
		return config, nil
	}

	var fds []*genai.FunctionDeclaration
	for _, t := range req.Tools {
		fd, err := declareFunction(t.Function.Name, t.Function.Description, t.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("gemini: declare tool %s: %w", t.Function.Name, err)
		}
		fds = append(fds, fd)
	}
	config.Tools = []*genai.Tool{{FunctionDeclarations: fds}}

	return config, nil
}

// declareFunction translates a JSON-schema parameter map into a genai
// FunctionDeclaration.
func declareFunction(name, description string, parameters map[string]any) (*genai.FunctionDeclaration, error) {
	var schema *genai.Schema

	if len(parameters) > 0 {
		var props map[string]*genai.Schema
		var required []string

		if obj, found := parameters["properties"]; found {
			props = make(map[string]*genai.Schema)
			data, err := json.Marshal(obj)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(data, &props); err != nil {
				return nil, err
			}
		}
		if obj, found := parameters["required"]; found {
			switch v := obj.(type) {
			case []string:
				required = v
			case []any:
				for _, r := range v {
					if s, ok := r.(string); ok {
						required = append(required, s)
					}
				}
			}
		}
		schema = &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   required,
		}
	}

	return &genai.FunctionDeclaration{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}, nil
}

// Info returns metadata describing this Gemini adapter.
func (a *Adapter) Info() llm.Info {
	return llm.Info{
		ModelKey:      a.modelKey,
		Provider:      "gemini",
		APIModel:      a.apiModel,
		SupportsTools: true,
	}
}
