package transcript

import (
	"context"
	"errors"

	"github.com/kyleturman/houston/tool"
)

// Tool exposes transcript fetching to models as the
// "fetch_youtube_transcript" function tool. Availability errors are reported
// as tool results rather than failures so the model can explain them.
func Tool(f *Fetcher) tool.Tool {
	return tool.NewFunctionTool(
		"fetch_youtube_transcript",
		"Fetch the transcript of a YouTube video by its video id",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"video_id": map[string]any{
					"type":        "string",
					"description": "The YouTube video id (the v= parameter, e.g. dQw4w9WgXcQ)",
				},
			},
			"required": []string{"video_id"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			videoID, _ := args["video_id"].(string)
			t, err := f.Fetch(ctx, videoID)
			if err != nil {
				if errors.Is(err, ErrTranscriptsDisabled) ||
					errors.Is(err, ErrVideoUnavailable) ||
					errors.Is(err, ErrNoTranscript) {
					return map[string]any{"success": false, "error": err.Error()}, nil
				}
				return nil, err
			}
			return map[string]any{
				"success":    true,
				"transcript": t.Text(),
				"language":   t.Language,
			}, nil
		},
	)
}
