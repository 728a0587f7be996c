package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// metrics tracks operational counters across the service.
var metrics struct {
	ProcessRequests   atomic.Int64
	ProcessErrors     atomic.Int64
	LLMCalls          atomic.Int64
	LLMErrors         atomic.Int64
	FetchRequests     atomic.Int64
	FetchErrors       atomic.Int64
	MetadataFallbacks atomic.Int64
	TranscriptAux     atomic.Int64
	TranscriptTimed   atomic.Int64
	TranscriptWatch   atomic.Int64
	TranscriptProxy   atomic.Int64
	TranscriptFiller  atomic.Int64
	TemplateFallbacks atomic.Int64
	RowsInserted      atomic.Int64
}

var metricKeys = []string{
	"process_requests", "process_errors",
	"llm_calls", "llm_errors",
	"fetch_requests", "fetch_errors",
	"metadata_fallbacks",
	"transcript_auxiliary_api", "transcript_timedtext", "transcript_watch_page",
	"transcript_proxy", "transcript_synthetic",
	"template_fallbacks", "rows_inserted",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"process_requests":         metrics.ProcessRequests.Load(),
		"process_errors":           metrics.ProcessErrors.Load(),
		"llm_calls":                metrics.LLMCalls.Load(),
		"llm_errors":               metrics.LLMErrors.Load(),
		"fetch_requests":           metrics.FetchRequests.Load(),
		"fetch_errors":             metrics.FetchErrors.Load(),
		"metadata_fallbacks":       metrics.MetadataFallbacks.Load(),
		"transcript_auxiliary_api": metrics.TranscriptAux.Load(),
		"transcript_timedtext":     metrics.TranscriptTimed.Load(),
		"transcript_watch_page":    metrics.TranscriptWatch.Load(),
		"transcript_proxy":         metrics.TranscriptProxy.Load(),
		"transcript_synthetic":     metrics.TranscriptFiller.Load(),
		"template_fallbacks":       metrics.TemplateFallbacks.Load(),
		"rows_inserted":            metrics.RowsInserted.Load(),
		"cache_hits":               hits,
		"cache_misses":             misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrProcessRequests()   { metrics.ProcessRequests.Add(1) }
func IncrProcessErrors()     { metrics.ProcessErrors.Add(1) }
func IncrMetadataFallback()  { metrics.MetadataFallbacks.Add(1) }
func IncrTemplateFallback()  { metrics.TemplateFallbacks.Add(1) }
func AddRowsInserted(n int)  { metrics.RowsInserted.Add(int64(n)) }

// IncrTranscriptSource counts which strategy produced a transcript.
func IncrTranscriptSource(source string) {
	switch source {
	case "auxiliary_api":
		metrics.TranscriptAux.Add(1)
	case "timedtext":
		metrics.TranscriptTimed.Add(1)
	case "watch_page":
		metrics.TranscriptWatch.Add(1)
	case "proxy":
		metrics.TranscriptProxy.Add(1)
	case "synthetic":
		metrics.TranscriptFiller.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
