package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_study/internal/engine"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoMetadata is what the lookup services know about a video.
type VideoMetadata struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int    `json:"duration"` // seconds, 0 = unknown
	Source       string `json:"source"`   // data_api | oembed | noembed | placeholder
}

// PlaceholderTitle is used when no service returns a title.
func PlaceholderTitle(videoID string) string {
	return "Video " + videoID
}

// MetadataFetcher resolves video metadata through a chain of lookup services.
// Fetch never fails: the last resort is a placeholder record.
type MetadataFetcher struct {
	client    *http.Client
	endpoints engine.Endpoints
	apiKeys   []string // YouTube Data API keys, primary first
	cache     *engine.Cache
}

// NewMetadataFetcher builds a fetcher from cfg. cache may be nil.
func NewMetadataFetcher(cfg engine.Config, cache *engine.Cache) *MetadataFetcher {
	var keys []string
	for _, k := range []string{cfg.YouTubeAPIKey, cfg.YouTubeAPIKeyFallback} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return &MetadataFetcher{client: cfg.HTTPClient, endpoints: cfg.Endpoints, apiKeys: keys, cache: cache}
}

// Fetch returns metadata for videoID. videoURL is what oEmbed/noembed are
// asked about; empty means the canonical watch URL.
func (f *MetadataFetcher) Fetch(ctx context.Context, videoID, videoURL string) VideoMetadata {
	if videoURL == "" {
		videoURL = WatchURL(videoID)
	}
	key := engine.CacheKey("metadata", videoID)
	if md, ok := engine.LoadJSON[VideoMetadata](ctx, f.cache, key); ok {
		return md
	}

	var chain []engine.Strategy[VideoMetadata]
	if len(f.apiKeys) > 0 {
		chain = append(chain, engine.Strategy[VideoMetadata]{Name: "data_api", Attempt: func(ctx context.Context) (VideoMetadata, error) {
			return f.fetchDataAPI(ctx, videoID)
		}})
	}
	chain = append(chain,
		engine.Strategy[VideoMetadata]{Name: "oembed", Attempt: func(ctx context.Context) (VideoMetadata, error) {
			return f.fetchOEmbed(ctx, videoURL)
		}},
		engine.Strategy[VideoMetadata]{Name: "noembed", Attempt: func(ctx context.Context) (VideoMetadata, error) {
			return f.fetchNoEmbed(ctx, videoURL)
		}},
	)

	md, _, err := engine.FirstSuccess(ctx, "metadata", chain, nil)
	if err != nil {
		engine.IncrMetadataFallback()
		slog.Warn("metadata: using placeholder", slog.String("video_id", videoID), slog.Any("error", err))
		return VideoMetadata{Title: PlaceholderTitle(videoID), Source: "placeholder"}
	}
	if strings.TrimSpace(md.Title) == "" {
		md.Title = PlaceholderTitle(videoID)
	}
	engine.StoreJSON(ctx, f.cache, key, md)
	return md
}

func (f *MetadataFetcher) fetchOEmbed(ctx context.Context, videoURL string) (VideoMetadata, error) {
	body, err := engine.FetchBytes(ctx, f.client, engine.FetchRequest{
		URL:   f.endpoints.OEmbed + "?url=" + url.QueryEscape(videoURL) + "&format=json",
		Limit: 256 * 1024,
	})
	if err != nil {
		return VideoMetadata{}, err
	}
	var resp struct {
		Title        string `json:"title"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return VideoMetadata{}, fmt.Errorf("decode oembed: %w", err)
	}
	return VideoMetadata{Title: resp.Title, ThumbnailURL: resp.ThumbnailURL, Source: "oembed"}, nil
}

func (f *MetadataFetcher) fetchNoEmbed(ctx context.Context, videoURL string) (VideoMetadata, error) {
	body, err := engine.FetchBytes(ctx, f.client, engine.FetchRequest{
		URL:   f.endpoints.NoEmbed + "?url=" + url.QueryEscape(videoURL),
		Limit: 256 * 1024,
	})
	if err != nil {
		return VideoMetadata{}, err
	}
	var resp struct {
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		ThumbnailURL string  `json:"thumbnail_url"`
		Duration     float64 `json:"duration"`
		Error        string  `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return VideoMetadata{}, fmt.Errorf("decode noembed: %w", err)
	}
	// noembed answers 200 with an error field for unknown videos.
	if resp.Error != "" {
		return VideoMetadata{}, fmt.Errorf("noembed: %s", resp.Error)
	}
	return VideoMetadata{
		Title:        resp.Title,
		Description:  resp.Description,
		ThumbnailURL: resp.ThumbnailURL,
		Duration:     int(resp.Duration),
		Source:       "noembed",
	}, nil
}

// fetchDataAPI tries each configured key in turn; quota errors move to the next.
func (f *MetadataFetcher) fetchDataAPI(ctx context.Context, videoID string) (VideoMetadata, error) {
	var lastErr error
	for _, key := range f.apiKeys {
		md, err := fetchDataAPIWithKey(ctx, videoID, key)
		if err == nil {
			return md, nil
		}
		lastErr = err
		slog.Debug("youtube data API key failed, trying fallback", slog.Any("error", err))
	}
	return VideoMetadata{}, lastErr
}

func fetchDataAPIWithKey(ctx context.Context, videoID, key string) (VideoMetadata, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("youtube.NewService: %w", err)
	}
	resp, err := svc.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return VideoMetadata{}, fmt.Errorf("videos.list: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return VideoMetadata{}, errors.New("videos.list: video not found")
	}

	item := resp.Items[0]
	md := VideoMetadata{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Source:      "data_api",
	}
	if th := item.Snippet.Thumbnails; th != nil {
		for _, t := range []*youtube.Thumbnail{th.High, th.Medium, th.Default} {
			if t != nil && t.Url != "" {
				md.ThumbnailURL = t.Url
				break
			}
		}
	}
	if item.ContentDetails != nil {
		md.Duration = parseISODuration(item.ContentDetails.Duration)
	}
	return md, nil
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseISODuration converts an ISO-8601 duration like PT1H2M3S to seconds.
// Returns 0 for anything it cannot read.
func parseISODuration(s string) int {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	mult := []int{86400, 3600, 60, 1}
	total := 0
	for i, unit := range mult {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}
