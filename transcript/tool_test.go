package transcript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTool_FetchesTranscript(t *testing.T) {
	fake := &fakeYouTube{
		status: "OK",
		tracks: []map[string]string{{"languageCode": "en"}},
		xml:    sampleXML,
	}
	srv := fake.start(t)

	fetch := Tool(New(func(o *Options) { o.BaseURL = srv.URL }))
	assert.Equal(t, "fetch_youtube_transcript", fetch.Name())

	result, err := fetch.Call(context.Background(), map[string]any{"video_id": "dQw4w9WgXcQ"})
	require.NoError(t, err)

	out, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "en", out["language"])
	assert.Contains(t, out["transcript"], "Hello & welcome")
}

func TestTool_AvailabilityErrorsAreResults(t *testing.T) {
	fake := &fakeYouTube{status: "ERROR", reason: "Video unavailable"}
	srv := fake.start(t)

	fetch := Tool(New(func(o *Options) { o.BaseURL = srv.URL }))
	result, err := fetch.Call(context.Background(), map[string]any{"video_id": "gone"})
	require.NoError(t, err, "availability problems are reported to the model, not raised")

	out := result.(map[string]any)
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "unavailable")
}

func TestTool_RequiresVideoID(t *testing.T) {
	fetch := Tool(New())
	_, err := fetch.Call(context.Background(), map[string]any{})
	assert.Error(t, err)
}
