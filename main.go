// go_study turns YouTube videos into study material: summary, flashcards
// and a multiple-choice quiz, persisted to sqlite, postgres or Supabase.
//
// Serves a gin HTTP API and an MCP server side by side.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_study/internal/api"
	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/anatolykoptev/go_study/internal/engine/sources"
	"github.com/anatolykoptev/go_study/internal/engine/study"
	"github.com/anatolykoptev/go_study/internal/pipeline"
	"github.com/anatolykoptev/go_study/internal/store"
	"github.com/anatolykoptev/go_study/internal/studyserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}

	cfg := loadConfig()
	initLogger(cfg.LogLevel)

	slog.Info("starting go_study",
		slog.String("http_port", cfg.HTTPPort),
		slog.String("mcp_port", cfg.MCPPort),
		slog.String("store", cfg.StoreDriver),
	)

	ctx := context.Background()

	cache := engine.NewCache(cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheCleanupInterval)
	defer func() { _ = cache.Close() }()

	llmClient, err := engine.NewLLM(ctx, cfg)
	if err != nil {
		slog.Warn("llm init failed, generation will use templates", slog.Any("error", err))
		llmClient = engine.DisabledLLM{}
	}
	defer func() { _ = llmClient.Close() }()

	cfg.BrowserClient = engine.NewBrowserClient(int(cfg.FetchTimeout.Seconds()), cfg.WebshareAPIKey)
	if cfg.BrowserClient != nil {
		slog.Info("stealth browser client initialized")
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	proc := pipeline.New(
		sources.NewMetadataFetcher(cfg, cache),
		sources.NewTranscriptAcquirer(cache, sources.DefaultTranscriptStrategies(cfg)...),
		study.NewGenerator(llmClient),
		st,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(api.NewHandler(proc, cfg.ProcessTimeout)),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.ProcessTimeout + 30*time.Second,
	}
	go func() {
		slog.Info("http api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.Any("error", err))
		}
	}()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_study",
		Version: version,
	}, nil)
	studyserver.RegisterTools(server, proc, cfg.ProcessTimeout)
	slog.Info("tools registered", slog.Int("count", 2))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_study",
		Version:      version,
		Port:         cfg.MCPPort,
		WriteTimeout: cfg.ProcessTimeout + 30*time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", slog.Any("error", err))
	}
}

func loadConfig() engine.Config {
	defaults := engine.DefaultEndpoints()
	fetchTimeout := env.Duration("FETCH_TIMEOUT", 15*time.Second)

	return engine.Config{
		HTTPPort: env.Str("HTTP_PORT", "8080"),
		MCPPort:  env.Str("MCP_PORT", "8892"),

		StoreDriver: env.Str("STORE_DRIVER", "sqlite"),
		SQLitePath:  env.Str("SQLITE_PATH", store.DefaultSQLitePath()),
		DatabaseURL: env.Str("DATABASE_URL", ""),
		SupabaseURL: env.Str("SUPABASE_URL", ""),
		SupabaseKey: env.Str("SUPABASE_SERVICE_ROLE_KEY", ""),

		LLMProvider:        engine.LLMProvider(env.Str("LLM_PROVIDER", string(engine.LLMOpenAI))),
		LLMAPIKey:          env.Str("LLM_API_KEY", env.Str("GEMINI_API_KEY", "")),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:           env.Str("LLM_MODEL", "gemini-2.0-flash"),
		LLMRPS:             env.Float("LLM_RPS", 2),
		LLMTimeout:         env.Duration("LLM_TIMEOUT", 60*time.Second),

		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		RapidAPIKey:           env.Str("RAPIDAPI_KEY", ""),
		Endpoints: engine.Endpoints{
			TranscriptAPI:     env.Str("TRANSCRIPT_API_URL", defaults.TranscriptAPI),
			TranscriptAPIHost: env.Str("TRANSCRIPT_API_HOST", defaults.TranscriptAPIHost),
			YouTube:           env.Str("YOUTUBE_BASE_URL", defaults.YouTube),
			CORSProxy:         env.Str("CORS_PROXY_URL", defaults.CORSProxy),
			OEmbed:            env.Str("OEMBED_URL", defaults.OEmbed),
			NoEmbed:           env.Str("NOEMBED_URL", defaults.NoEmbed),
		},

		RedisURL:             env.Str("REDIS_URL", ""),
		CacheTTL:             env.Duration("CACHE_TTL", 6*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),

		FetchTimeout:   fetchTimeout,
		ProcessTimeout: env.Duration("PROCESS_TIMEOUT", 3*time.Minute),
		WebshareAPIKey: env.Str("WEBSHARE_API_KEY", ""),
		LogLevel:       env.Str("LOG_LEVEL", "info"),

		HTTPClient: engine.NewHTTPClient(fetchTimeout),
	}
}

func initLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
