package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYouTube serves the player endpoint and a timedtext track from one
// httptest server.
type fakeYouTube struct {
	status string
	reason string
	tracks []map[string]string
	xml    string
}

func (f *fakeYouTube) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			VideoID string `json:"videoId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		tracks := make([]map[string]string, 0, len(f.tracks))
		for _, tr := range f.tracks {
			cp := map[string]string{"languageCode": tr["languageCode"]}
			if k, ok := tr["kind"]; ok {
				cp["kind"] = k
			}
			cp["baseUrl"] = srv.URL + "/api/timedtext?lang=" + tr["languageCode"]
			tracks = append(tracks, cp)
		}
		resp := map[string]any{
			"playabilityStatus": map[string]string{"status": f.status, "reason": f.reason},
			"captions": map[string]any{
				"playerCaptionsTracklistRenderer": map[string]any{
					"captionTracks": tracks,
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, f.xml)
	})
	return srv
}

const sampleXML = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="1.5">Hello &amp; welcome</text>
  <text start="1.5" dur="2.0">to the &#39;show&#39;</text>
  <text start="3.5" dur="1.0">   </text>
  <text start="4.5" dur="2.5">goodbye</text>
</transcript>`

func TestFetcher_Fetch(t *testing.T) {
	fake := &fakeYouTube{
		status: "OK",
		tracks: []map[string]string{{"languageCode": "en"}},
		xml:    sampleXML,
	}
	srv := fake.start(t)

	f := New(func(o *Options) { o.BaseURL = srv.URL })
	tr, err := f.Fetch(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", tr.VideoID)
	assert.Equal(t, "en", tr.Language)
	require.Len(t, tr.Segments, 3, "blank cues dropped")
	assert.Equal(t, Segment{Text: "Hello & welcome", Start: 0.0, Duration: 1.5}, tr.Segments[0])
	assert.Equal(t, "to the 'show'", tr.Segments[1].Text, "entities unescaped")
	assert.Equal(t, "Hello & welcome to the 'show' goodbye", tr.Text())
}

func TestFetcher_LanguageSelection(t *testing.T) {
	tests := []struct {
		name      string
		languages []string
		tracks    []map[string]string
		expected  string
		err       error
	}{
		{
			name:      "exact match",
			languages: []string{"de"},
			tracks:    []map[string]string{{"languageCode": "en"}, {"languageCode": "de"}},
			expected:  "de",
		},
		{
			name:      "base code matches regional variant",
			languages: []string{"en"},
			tracks:    []map[string]string{{"languageCode": "en-US"}},
			expected:  "en-US",
		},
		{
			name:      "preference order wins over track order",
			languages: []string{"fr", "en"},
			tracks:    []map[string]string{{"languageCode": "en"}, {"languageCode": "fr"}},
			expected:  "fr",
		},
		{
			name:      "auto-generated track still matches",
			languages: []string{"en"},
			tracks:    []map[string]string{{"languageCode": "en", "kind": "asr"}},
			expected:  "en",
		},
		{
			name:      "no matching language",
			languages: []string{"ja"},
			tracks:    []map[string]string{{"languageCode": "en"}},
			err:       ErrNoTranscript,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeYouTube{status: "OK", tracks: tt.tracks, xml: sampleXML}
			srv := fake.start(t)

			f := New(func(o *Options) {
				o.BaseURL = srv.URL
				o.Languages = tt.languages
			})
			tr, err := f.Fetch(context.Background(), "vid123")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tr.Language)
		})
	}
}

func TestFetcher_Unavailable(t *testing.T) {
	for _, status := range []string{"ERROR", "LOGIN_REQUIRED", "UNPLAYABLE"} {
		t.Run(status, func(t *testing.T) {
			fake := &fakeYouTube{status: status, reason: "Video unavailable"}
			srv := fake.start(t)

			f := New(func(o *Options) { o.BaseURL = srv.URL })
			_, err := f.Fetch(context.Background(), "gone")
			assert.ErrorIs(t, err, ErrVideoUnavailable)
		})
	}
}

func TestFetcher_TranscriptsDisabled(t *testing.T) {
	fake := &fakeYouTube{status: "OK"}
	srv := fake.start(t)

	f := New(func(o *Options) { o.BaseURL = srv.URL })
	_, err := f.Fetch(context.Background(), "nocaptions")
	assert.ErrorIs(t, err, ErrTranscriptsDisabled)
}

func TestFetcher_PlayerEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(func(o *Options) { o.BaseURL = srv.URL })
	_, err := f.Fetch(context.Background(), "vid123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
