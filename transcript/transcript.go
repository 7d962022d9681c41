// Package transcript fetches YouTube video transcripts. It resolves the
// caption track list through the innertube player endpoint, selects the first
// track matching a requested language (base-code match, so "en" matches
// "en-US") and parses the timedtext XML into transcript segments.
package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.youtube.com"

// Error cases mirrored from the caption availability states the player
// endpoint reports.
var (
	// ErrTranscriptsDisabled is returned when the video exists but captions
	// are turned off entirely.
	ErrTranscriptsDisabled = fmt.Errorf("transcripts are disabled for this video")
	// ErrVideoUnavailable is returned when the video is missing or private.
	ErrVideoUnavailable = fmt.Errorf("video is unavailable")
	// ErrNoTranscript is returned when captions exist but none match the
	// requested languages.
	ErrNoTranscript = fmt.Errorf("no transcript found for this video")
)

// Segment is a single caption snippet.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is a fetched caption track.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Text joins all segment texts with single spaces.
func (t *Transcript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// Options configures the Fetcher.
type Options struct {
	HTTPClient *http.Client
	BaseURL    string   // Override for tests
	Languages  []string // Preference order; default ["en"]
}

// Fetcher retrieves transcripts over HTTP.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	languages []string
}

// New constructs a Fetcher with default languages ["en"].
func New(optFns ...func(o *Options)) *Fetcher {
	opts := Options{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    defaultBaseURL,
		Languages:  []string{"en"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Fetcher{
		client:    opts.HTTPClient,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		languages: opts.Languages,
	}
}

// playerRequest is the innertube player call body.
type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

// playerResponse is the subset of the player payload we consume.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

// timedText is the timedtext XML document shape.
type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

// Fetch retrieves the transcript for a video id in the first matching
// requested language.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	tracks, err := f.listTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track, ok := selectTrack(tracks, f.languages)
	if !ok {
		return nil, ErrNoTranscript
	}

	segments, err := f.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Transcript{
		VideoID:  videoID,
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

// listTracks resolves the caption track list via the player endpoint.
func (f *Fetcher) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	var reqBody playerRequest
	reqBody.Context.Client.ClientName = "ANDROID"
	reqBody.Context.Client.ClientVersion = "20.10.38"
	reqBody.VideoID = videoID

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("transcript: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.baseURL+"/youtubei/v1/player", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transcript: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript: player request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript: player endpoint status %d", resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("transcript: decode player response: %w", err)
	}

	switch player.PlayabilityStatus.Status {
	case "OK", "":
	case "ERROR", "LOGIN_REQUIRED", "UNPLAYABLE":
		return nil, ErrVideoUnavailable
	default:
		return nil, fmt.Errorf("transcript: playability status %q: %s",
			player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}
	return tracks, nil
}

// selectTrack picks the first track matching a requested language, trying each
// requested language in order. A requested base code matches regional variants
// ("en" matches "en-US").
func selectTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		for _, t := range tracks {
			if languageMatches(lang, t.LanguageCode) {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

func languageMatches(requested, actual string) bool {
	if strings.EqualFold(requested, actual) {
		return true
	}
	base := actual
	if idx := strings.IndexByte(base, '-'); idx >= 0 {
		base = base[:idx]
	}
	return strings.EqualFold(requested, base)
}

// fetchTrack downloads and parses a timedtext XML document.
func (f *Fetcher) fetchTrack(ctx context.Context, trackURL string) ([]Segment, error) {
	if strings.HasPrefix(trackURL, "/") {
		trackURL = f.baseURL + trackURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transcript: create track request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript: track request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript: track endpoint status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcript: read track: %w", err)
	}

	var doc timedText
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("transcript: parse timedtext: %w", err)
	}

	segments := make([]Segment, 0, len(doc.Texts))
	for _, cue := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(cue.Body))
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Start: cue.Start, Duration: cue.Dur})
	}
	return segments, nil
}
