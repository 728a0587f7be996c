package engine

import (
	"fmt"
	"log/slog"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
)

// BrowserClient is a Chrome-fingerprinted HTTP client used for the watch page.
type BrowserClient = stealth.BrowserClient

func ChromeHeaders() map[string]string { return stealth.ChromeHeaders() }
func RandomUserAgent() string          { return stealth.RandomUserAgent() }

// NewBrowserClient builds the stealth client, routed through a Webshare
// proxy pool when an API key is given. Returns nil when the client cannot be
// built; callers then fall back to the plain HTTP client.
func NewBrowserClient(timeoutSec int, webshareKey string) *BrowserClient {
	opts := []stealth.ClientOption{stealth.WithTimeout(timeoutSec)}

	if webshareKey != "" {
		pool, err := proxypool.NewWebshare(webshareKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Warn("stealth client init failed", slog.Any("error", err))
		return nil
	}
	return bc
}

// BrowserGet fetches rawURL with Chrome headers through bc.
func BrowserGet(bc *BrowserClient, rawURL string, extra map[string]string) ([]byte, error) {
	headers := ChromeHeaders()
	headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	headers["accept-language"] = "en-US,en;q=0.9"
	for k, v := range extra {
		headers[k] = v
	}

	metrics.FetchRequests.Add(1)
	data, _, status, err := bc.Do(http.MethodGet, rawURL, headers, nil)
	if err != nil {
		metrics.FetchErrors.Add(1)
		return nil, fmt.Errorf("browser get: %w", err)
	}
	if status != http.StatusOK {
		metrics.FetchErrors.Add(1)
		return nil, &StatusError{StatusCode: status, URL: rawURL}
	}
	return data, nil
}
