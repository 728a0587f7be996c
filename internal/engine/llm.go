package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"golang.org/x/time/rate"
)

// ErrLLMDisabled is returned by the disabled provider. Callers treat it as
// "take the fallback path" and do not log it as a failure.
var ErrLLMDisabled = errors.New("llm disabled")

// CompletionOptions are per-call sampling parameters.
type CompletionOptions struct {
	Temperature float64
	TopP        float64 // 0 = provider default
	MaxTokens   int
}

// LLM is a single-prompt text completion backend.
type LLM interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
	Close() error
}

// NewLLM builds the provider selected by cfg, wrapped with rate limiting and metrics.
func NewLLM(ctx context.Context, cfg Config) (LLM, error) {
	provider := ResolveLLMProvider(string(cfg.LLMProvider), cfg.LLMAPIKey)

	var backend LLM
	switch provider {
	case LLMDisabled:
		slog.Info("llm: disabled, generation will use templates")
		return DisabledLLM{}, nil
	case LLMGemini:
		g, err := newGeminiLLM(ctx, cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		backend = g
	default:
		backend = newOpenAILLM(cfg)
	}

	slog.Info("llm: ready", slog.String("provider", string(provider)), slog.String("model", cfg.LLMModel))
	return newInstrumentedLLM(backend, cfg.LLMRPS), nil
}

// DisabledLLM is the typed "no provider configured" variant.
type DisabledLLM struct{}

func (DisabledLLM) Complete(context.Context, string, CompletionOptions) (string, error) {
	return "", ErrLLMDisabled
}

func (DisabledLLM) Close() error { return nil }

// LLMEnabled reports whether l can produce completions at all.
func LLMEnabled(l LLM) bool {
	if l == nil {
		return false
	}
	_, off := l.(DisabledLLM)
	return !off
}

// openAILLM talks to any OpenAI-compatible chat endpoint through go-kit/llm.
type openAILLM struct {
	client *llm.Client
}

func newOpenAILLM(cfg Config) *openAILLM {
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &openAILLM{
		client: llm.NewClient(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel,
			llm.WithFallbackKeys(cfg.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(4000),
			llm.WithTemperature(0.3),
			llm.WithHTTPClient(&http.Client{Timeout: timeout}),
		),
	}
}

func (o *openAILLM) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	// go-kit/llm has no top_p knob; temperature and max_tokens carry the call.
	return o.client.Complete(ctx, "", prompt,
		llm.WithChatTemperature(opts.Temperature),
		llm.WithChatMaxTokens(opts.MaxTokens),
	)
}

func (o *openAILLM) Close() error { return nil }

// instrumentedLLM counts calls and errors and paces outbound requests.
type instrumentedLLM struct {
	next    LLM
	limiter *rate.Limiter // nil = unlimited
}

func newInstrumentedLLM(next LLM, rps float64) *instrumentedLLM {
	il := &instrumentedLLM{next: next}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		il.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return il
}

func (il *instrumentedLLM) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	if il.limiter != nil {
		if err := il.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm rate limit: %w", err)
		}
	}
	// No retries: a failed completion goes straight to the template path.
	metrics.LLMCalls.Add(1)
	out, err := il.next.Complete(ctx, prompt, opts)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		metrics.LLMErrors.Add(1)
		return "", errors.New("llm returned empty completion")
	}
	return out, nil
}

func (il *instrumentedLLM) Close() error { return il.next.Close() }

// StripFences removes markdown code fences from LLM output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
