package engine

import (
	"net/http"
	"strings"
	"time"
)

// LLMProvider selects the completion backend.
type LLMProvider string

const (
	LLMDisabled LLMProvider = "disabled"
	LLMOpenAI   LLMProvider = "openai" // any OpenAI-compatible endpoint via go-kit/llm
	LLMGemini   LLMProvider = "gemini" // native generative-ai-go SDK
)

// Endpoints holds the base URLs of every upstream service the pipeline talks to.
// Tests override them with httptest servers.
type Endpoints struct {
	TranscriptAPI     string // third-party captions API
	TranscriptAPIHost string
	YouTube           string // www.youtube.com (timedtext, watch page)
	CORSProxy         string // allorigins-style relay
	OEmbed            string
	NoEmbed           string
}

// DefaultEndpoints returns the public production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		TranscriptAPI:     "https://youtube-transcript-api1.p.rapidapi.com",
		TranscriptAPIHost: "youtube-transcript-api1.p.rapidapi.com",
		YouTube:           "https://www.youtube.com",
		CORSProxy:         "https://api.allorigins.win",
		OEmbed:            "https://www.youtube.com/oembed",
		NoEmbed:           "https://noembed.com/embed",
	}
}

// Config holds all service configuration, built once in main and passed to constructors.
type Config struct {
	HTTPPort string
	MCPPort  string

	StoreDriver string // sqlite | postgres | supabase
	SQLitePath  string
	DatabaseURL string
	SupabaseURL string
	SupabaseKey string

	LLMProvider        LLMProvider
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMRPS             float64
	LLMTimeout         time.Duration

	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	RapidAPIKey           string
	Endpoints             Endpoints

	RedisURL             string
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	FetchTimeout   time.Duration
	ProcessTimeout time.Duration
	WebshareAPIKey string
	LogLevel       string

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = watch page fetched with HTTPClient
}

// ResolveLLMProvider normalizes the configured provider. A missing API key
// always resolves to LLMDisabled so every generation step takes its fallback.
func ResolveLLMProvider(provider, apiKey string) LLMProvider {
	if strings.TrimSpace(apiKey) == "" {
		return LLMDisabled
	}
	switch LLMProvider(strings.ToLower(strings.TrimSpace(provider))) {
	case LLMGemini:
		return LLMGemini
	case LLMDisabled:
		return LLMDisabled
	default:
		return LLMOpenAI
	}
}

// NewHTTPClient returns the shared pooled client used for upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}
