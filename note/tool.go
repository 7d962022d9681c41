package note

import (
	"context"
	"fmt"

	"github.com/kyleturman/houston/tool"
)

// Tool exposes note creation to models as the "create_note" function tool.
func Tool(store Store) tool.Tool {
	return tool.NewFunctionTool(
		"create_note",
		"Create a note with the given content and optional title",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content": map[string]any{
					"type":        "string",
					"description": "The note body",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Optional note title; derived from the content when omitted",
				},
			},
			"required": []string{"content"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			content, _ := args["content"].(string)
			title, _ := args["title"].(string)
			n, err := store.Create(ctx, title, content)
			if err != nil {
				return nil, fmt.Errorf("create note: %w", err)
			}
			return map[string]any{"id": n.ID, "title": n.Title}, nil
		},
	)
}
