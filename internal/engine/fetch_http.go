package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// MaxFetchBytes caps any upstream body read into memory.
const MaxFetchBytes = 6 * 1024 * 1024

// FetchRequest describes one GET against an upstream service.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Limit   int64 // 0 = MaxFetchBytes
}

// FetchBytes performs a GET with a randomized desktop User-Agent and the
// fetch retry budget. Any non-200 status is returned as *StatusError.
func FetchBytes(ctx context.Context, client *http.Client, fr FetchRequest) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	limit := fr.Limit
	if limit <= 0 {
		limit = MaxFetchBytes
	}

	metrics.FetchRequests.Add(1)
	resp, err := RetryHTTP(ctx, FetchRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fr.URL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		for k, v := range fr.Headers {
			req.Header.Set(k, v)
		}
		return client.Do(req)
	})
	if err != nil {
		metrics.FetchErrors.Add(1)
		return nil, fmt.Errorf("fetch %s: %w", fr.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.FetchErrors.Add(1)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: fr.URL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		metrics.FetchErrors.Add(1)
		return nil, fmt.Errorf("read %s: %w", fr.URL, err)
	}
	return body, nil
}
