package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_study/internal/engine"
)

// TranscriptSource names the strategy that produced a transcript.
type TranscriptSource string

const (
	SourceAuxiliaryAPI TranscriptSource = "auxiliary_api"
	SourceTimedText    TranscriptSource = "timedtext"
	SourceWatchPage    TranscriptSource = "watch_page"
	SourceProxy        TranscriptSource = "proxy"
	SourceSynthetic    TranscriptSource = "synthetic"
)

const (
	// minTranscriptChars is the bar every strategy result must clear.
	minTranscriptChars = 100
	// minCaptionChars is the per-format bar inside timedtext and caption XML parsing.
	minCaptionChars = 50
	// minUsableChars below which even filler text is replaced by the enhanced filler.
	minUsableChars = 50
)

// ErrNoTranscript means every strategy failed.
var ErrNoTranscript = errors.New("no transcript available")

// Transcript is the acquired text and where it came from.
type Transcript struct {
	Text   string           `json:"text"`
	Source TranscriptSource `json:"source"`
}

// Synthetic reports whether Text was generated from metadata rather than captions.
func (t Transcript) Synthetic() bool { return t.Source == SourceSynthetic }

// TranscriptStrategy is one way of getting caption text for a video.
type TranscriptStrategy interface {
	Name() TranscriptSource
	Fetch(ctx context.Context, videoID string) (string, error)
}

// TranscriptAcquirer runs strategies in order until one yields usable text.
type TranscriptAcquirer struct {
	strategies []TranscriptStrategy
	cache      *engine.Cache
}

// NewTranscriptAcquirer builds an acquirer. cache may be nil.
func NewTranscriptAcquirer(cache *engine.Cache, strategies ...TranscriptStrategy) *TranscriptAcquirer {
	return &TranscriptAcquirer{strategies: strategies, cache: cache}
}

// DefaultTranscriptStrategies returns the production chain:
// auxiliary API, official timedtext, watch page scrape, CORS proxy.
func DefaultTranscriptStrategies(cfg engine.Config) []TranscriptStrategy {
	ep := cfg.Endpoints
	return []TranscriptStrategy{
		&AuxiliaryAPIStrategy{Client: cfg.HTTPClient, BaseURL: ep.TranscriptAPI, Host: ep.TranscriptAPIHost, APIKey: cfg.RapidAPIKey},
		&TimedTextStrategy{Client: cfg.HTTPClient, BaseURL: ep.YouTube},
		&WatchPageStrategy{Client: cfg.HTTPClient, Browser: cfg.BrowserClient, BaseURL: ep.YouTube},
		&ProxyStrategy{Client: cfg.HTTPClient, ProxyURL: ep.CORSProxy, YouTubeURL: ep.YouTube},
	}
}

// Acquire returns the first transcript longer than 100 characters.
// Returns ErrNoTranscript when every strategy fails.
func (a *TranscriptAcquirer) Acquire(ctx context.Context, videoID string) (Transcript, error) {
	key := engine.CacheKey("transcript", videoID)
	if t, ok := engine.LoadJSON[Transcript](ctx, a.cache, key); ok {
		return t, nil
	}

	chain := make([]engine.Strategy[string], 0, len(a.strategies))
	names := make(map[string]TranscriptSource, len(a.strategies))
	for _, s := range a.strategies {
		s := s
		names[string(s.Name())] = s.Name()
		chain = append(chain, engine.Strategy[string]{
			Name:    string(s.Name()),
			Attempt: func(ctx context.Context) (string, error) { return s.Fetch(ctx, videoID) },
		})
	}

	text, winner, err := engine.FirstSuccess(ctx, "transcript", chain, func(s string) error {
		if n := len(strings.TrimSpace(s)); n <= minTranscriptChars {
			return fmt.Errorf("transcript too short: %d chars", n)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Transcript{}, ctxErr
		}
		return Transcript{}, fmt.Errorf("%w: %w", ErrNoTranscript, err)
	}

	t := Transcript{Text: strings.TrimSpace(text), Source: names[winner]}
	engine.StoreJSON(ctx, a.cache, key, t)
	slog.Info("transcript acquired", slog.String("video_id", videoID),
		slog.String("source", winner), slog.Int("chars", len(t.Text)))
	return t, nil
}

// AcquireOrSynthesize always returns non-empty text. When no strategy works,
// the text is filler built from the title and description. Anything shorter
// than 50 characters is replaced with the enhanced filler.
func (a *TranscriptAcquirer) AcquireOrSynthesize(ctx context.Context, videoID string, md VideoMetadata) Transcript {
	t, err := a.Acquire(ctx, videoID)
	if err != nil {
		slog.Warn("transcript: falling back to synthetic content",
			slog.String("video_id", videoID), slog.Any("error", err))
		t = Transcript{Text: FallbackContent(md.Title, md.Description), Source: SourceSynthetic}
	}
	if len(strings.TrimSpace(t.Text)) < minUsableChars {
		t = Transcript{Text: EnhancedFallbackContent(md.Title, md.Description), Source: SourceSynthetic}
	}
	engine.IncrTranscriptSource(string(t.Source))
	return t
}

// --- Strategy 1: third-party captions API ---

// AuxiliaryAPIStrategy queries a RapidAPI-style transcript service.
type AuxiliaryAPIStrategy struct {
	Client  *http.Client
	BaseURL string
	Host    string
	APIKey  string // optional
}

func (s *AuxiliaryAPIStrategy) Name() TranscriptSource { return SourceAuxiliaryAPI }

func (s *AuxiliaryAPIStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	headers := map[string]string{"Accept": "application/json"}
	if s.APIKey != "" {
		headers["X-RapidAPI-Key"] = s.APIKey
		headers["X-RapidAPI-Host"] = s.Host
	}
	body, err := engine.FetchBytes(ctx, s.Client, engine.FetchRequest{
		URL:     strings.TrimRight(s.BaseURL, "/") + "/transcript?videoId=" + url.QueryEscape(videoID),
		Headers: headers,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Transcript []struct {
			Text    string `json:"text"`
			Snippet string `json:"snippet"`
		} `json:"transcript"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode transcript api: %w", err)
	}
	if len(resp.Transcript) == 0 {
		return "", errors.New("transcript api: no segments")
	}
	parts := make([]string, 0, len(resp.Transcript))
	for _, seg := range resp.Transcript {
		text := seg.Text
		if text == "" {
			text = seg.Snippet
		}
		parts = append(parts, text)
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// --- Strategy 2: official timedtext endpoint ---

// TimedTextStrategy reads English captions from /api/timedtext in json3 format.
type TimedTextStrategy struct {
	Client  *http.Client
	BaseURL string
}

func (s *TimedTextStrategy) Name() TranscriptSource { return SourceTimedText }

func (s *TimedTextStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	body, err := engine.FetchBytes(ctx, s.Client, engine.FetchRequest{
		URL: timedTextURL(s.BaseURL, videoID, "json3"),
	})
	if err != nil {
		return "", err
	}
	text, err := parseJSON3(body)
	if err != nil {
		return "", fmt.Errorf("decode json3: %w", err)
	}
	if len(text) <= minCaptionChars {
		return "", errors.New("timedtext: no usable captions")
	}
	return text, nil
}

func timedTextURL(base, videoID, format string) string {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", "en")
	q.Set("fmt", format)
	return strings.TrimRight(base, "/") + "/api/timedtext?" + q.Encode()
}

// --- Strategy 3: watch page scrape ---

// WatchPageStrategy scrapes the watch page for the caption track list and
// downloads the chosen English track. Uses the stealth browser client when set.
type WatchPageStrategy struct {
	Client  *http.Client
	Browser *engine.BrowserClient
	BaseURL string
}

func (s *WatchPageStrategy) Name() TranscriptSource { return SourceWatchPage }

func (s *WatchPageStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	pageURL := strings.TrimRight(s.BaseURL, "/") + "/watch?v=" + url.QueryEscape(videoID)

	var (
		body []byte
		err  error
	)
	if s.Browser != nil {
		body, err = engine.BrowserGet(s.Browser, pageURL, nil)
	} else {
		body, err = engine.FetchBytes(ctx, s.Client, engine.FetchRequest{
			URL:     pageURL,
			Headers: map[string]string{"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		})
	}
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	tracks, err := captionTracksFromPage(body)
	if err != nil {
		return "", err
	}
	track, ok := pickBestTrack(tracks, englishLangs)
	if !ok {
		return "", errors.New("watch page: no usable English caption track")
	}

	xmlBody, err := engine.FetchBytes(ctx, s.Client, engine.FetchRequest{URL: track.BaseURL, Limit: 512 * 1024})
	if err != nil {
		return "", fmt.Errorf("caption track: %w", err)
	}
	text := parseCaptionXML(xmlBody)
	if len(text) <= minCaptionChars {
		return "", errors.New("caption track: no text content")
	}
	return text, nil
}

// captionTracksFromPage prefers the ytInitialPlayerResponse script and falls
// back to scanning the raw HTML for the caption track array.
func captionTracksFromPage(body []byte) ([]captionTrack, error) {
	tracks, err := tracksFromPlayerScript(body)
	if err == nil && len(tracks) > 0 {
		return tracks, nil
	}
	if err != nil {
		slog.Debug("watch page: player script unusable, scanning raw html", slog.Any("error", err))
	}

	tracks, err = tracksFromRawHTML(body)
	if err != nil {
		return nil, fmt.Errorf("watch page captions: %w", err)
	}
	if len(tracks) == 0 {
		return nil, errors.New("watch page: no caption tracks")
	}
	return tracks, nil
}

func tracksFromPlayerScript(body []byte) ([]captionTrack, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}

	var raw []byte
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src := sel.Text()
		idx := strings.Index(src, ytInitialPlayerResponseMarker)
		if idx < 0 {
			return true
		}
		raw = extractJSON([]byte(src[idx+len(ytInitialPlayerResponseMarker):]))
		return false
	})
	if raw == nil {
		return nil, errors.New("ytInitialPlayerResponse not found")
	}
	return tracksFromPlayerJSON(raw)
}

// --- Strategy 4: CORS relay ---

// ProxyStrategy fetches the srv1 timedtext document through an allorigins-style relay.
type ProxyStrategy struct {
	Client     *http.Client
	ProxyURL   string
	YouTubeURL string
}

func (s *ProxyStrategy) Name() TranscriptSource { return SourceProxy }

func (s *ProxyStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	target := timedTextURL(s.YouTubeURL, videoID, "srv1")
	body, err := engine.FetchBytes(ctx, s.Client, engine.FetchRequest{
		URL: strings.TrimRight(s.ProxyURL, "/") + "/get?url=" + url.QueryEscape(target),
	})
	if err != nil {
		return "", err
	}

	var relay struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &relay); err != nil {
		return "", fmt.Errorf("decode relay: %w", err)
	}
	if relay.Contents == "" {
		return "", errors.New("relay: empty contents")
	}
	text := parseCaptionXML([]byte(relay.Contents))
	if text == "" {
		return "", errors.New("relay: no caption text")
	}
	return text, nil
}
