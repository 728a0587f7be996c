package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiLLM uses the native Gemini SDK, which exposes top_p.
type geminiLLM struct {
	client *genai.Client
	model  string
}

func newGeminiLLM(ctx context.Context, apiKey, model string) (*geminiLLM, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &geminiLLM{client: client, model: model}, nil
}

func (g *geminiLLM) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	// GenerativeModel carries sampling settings, so each call gets its own.
	m := g.client.GenerativeModel(g.model)
	if opts.Temperature > 0 {
		m.SetTemperature(float32(opts.Temperature))
	}
	if opts.TopP > 0 {
		m.SetTopP(float32(opts.TopP))
	}
	if opts.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

func (g *geminiLLM) Close() error { return g.client.Close() }
