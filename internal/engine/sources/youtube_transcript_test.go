package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	name  TranscriptSource
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeStrategy) Name() TranscriptSource { return f.name }

func (f *fakeStrategy) Fetch(context.Context, string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func TestAcquireFirstSuccessWins(t *testing.T) {
	s1 := &fakeStrategy{name: SourceAuxiliaryAPI, err: errors.New("HTTP 403")}
	s2 := &fakeStrategy{name: SourceTimedText, text: "too short"}
	s3 := &fakeStrategy{name: SourceWatchPage, text: strings.Repeat("a", 150)}
	s4 := &fakeStrategy{name: SourceProxy, text: strings.Repeat("b", 500)}

	a := NewTranscriptAcquirer(nil, s1, s2, s3, s4)
	got, err := a.Acquire(context.Background(), "abc12345678")
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("a", 150), got.Text)
	assert.Equal(t, SourceWatchPage, got.Source)
	assert.False(t, got.Synthetic())
	assert.EqualValues(t, 1, s1.calls.Load())
	assert.EqualValues(t, 1, s2.calls.Load())
	assert.EqualValues(t, 1, s3.calls.Load())
	assert.EqualValues(t, 0, s4.calls.Load(), "strategy after the winner must not run")
}

func TestAcquireExactly100CharsIsRejected(t *testing.T) {
	a := NewTranscriptAcquirer(nil, &fakeStrategy{name: SourceProxy, text: strings.Repeat("x", 100)})
	_, err := a.Acquire(context.Background(), "abc12345678")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestAcquireOrSynthesizeAllFail(t *testing.T) {
	fail := func(n TranscriptSource) *fakeStrategy {
		return &fakeStrategy{name: n, err: errors.New("down")}
	}
	a := NewTranscriptAcquirer(nil,
		fail(SourceAuxiliaryAPI), fail(SourceTimedText), fail(SourceWatchPage), fail(SourceProxy))

	got := a.AcquireOrSynthesize(context.Background(), "abc12345678", VideoMetadata{Title: "Learn the DOM"})
	assert.True(t, got.Synthetic())
	assert.GreaterOrEqual(t, len(got.Text), 50)
	assert.Contains(t, got.Text, `titled "Learn the DOM"`)
	assert.Contains(t, got.Text, "Document Object Model")
}

func TestAcquireUsesCache(t *testing.T) {
	cache := engine.NewCache("", time.Minute, 10, time.Minute)
	defer cache.Close()

	s := &fakeStrategy{name: SourceTimedText, text: strings.Repeat("c", 200)}
	a := NewTranscriptAcquirer(cache, s)
	for i := 0; i < 2; i++ {
		got, err := a.Acquire(context.Background(), "cachedvid01")
		require.NoError(t, err)
		assert.Equal(t, SourceTimedText, got.Source)
	}
	assert.EqualValues(t, 1, s.calls.Load())
}

func TestParseCaptionXML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "well formed with double escaped entities",
			in:   `<?xml version="1.0" encoding="utf-8" ?><transcript><text start="0" dur="1">Hello &amp;#39;world&amp;#39;</text><text start="1" dur="2">a &amp;amp; b</text></transcript>`,
			want: "Hello 'world' a & b",
		},
		{
			name: "malformed falls back to regex",
			in:   `<transcript><text start="0">first  line</text><text>second &quot;quoted&quot;</text>`,
			want: `first line second "quoted"`,
		},
		{
			name: "no text nodes",
			in:   `<transcript></transcript>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCaptionXML([]byte(tt.in)))
		})
	}
}

func TestParseJSON3(t *testing.T) {
	got, err := parseJSON3([]byte(`{"events":[{"tStartMs":0},{"segs":[{"utf8":"hello"},{"utf8":" there"}]},{"segs":[{"utf8":"\nworld"}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "hello there world", got)

	_, err = parseJSON3([]byte(`not json`))
	assert.Error(t, err)
}

func TestPickBestTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "https://x/de", LanguageCode: "de"},
		{BaseURL: "https://x/en-asr", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "https://x/en-manual&exp=xpe", LanguageCode: "en"},
		{BaseURL: "https://x/en-gb", LanguageCode: "en-GB"},
	}
	got, ok := pickBestTrack(tracks, englishLangs)
	require.True(t, ok)
	assert.Equal(t, "https://x/en-gb", got.BaseURL, "manual en-GB beats asr en; PoToken track skipped")

	_, ok = pickBestTrack([]captionTrack{{BaseURL: "https://x/fr", LanguageCode: "fr"}}, englishLangs)
	assert.False(t, ok)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":"}"}`, string(extractJSON([]byte(`{"a":"}"};var x = 1;`))))
	assert.Equal(t, `[{"b":"\"]"}]`, string(extractJSON([]byte(`[{"b":"\"]"}],"next":1`))))
	assert.Nil(t, extractJSON([]byte(`{"open":`)))
	assert.Nil(t, extractJSON([]byte(`x`)))
}

const captionXMLFixture = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0.0" dur="2.5">Welcome to this lesson about the document object model.</text>` +
	`<text start="2.5" dur="3.0">We will select elements, listen for events, and update the page.</text>` +
	`<text start="5.5" dur="3.0">By the end you will build an interactive to-do list from scratch.</text>` +
	`</transcript>`

func newYouTubeFixture(t *testing.T, watchHTML func(base string) string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var captionHits atomic.Int32
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, watchHTML(srv.URL))
	})
	mux.HandleFunc("/captions", func(w http.ResponseWriter, r *http.Request) {
		captionHits.Add(1)
		fmt.Fprint(w, captionXMLFixture)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &captionHits
}

func TestWatchPageStrategy(t *testing.T) {
	t.Run("player response script", func(t *testing.T) {
		srv, hits := newYouTubeFixture(t, func(base string) string {
			return `<html><head><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
				`{"baseUrl":"` + base + `/captions?lang=en&fmt=srv1","languageCode":"en","kind":"asr"}]}}};</script></head><body></body></html>`
		})
		s := &WatchPageStrategy{Client: srv.Client(), BaseURL: srv.URL}
		text, err := s.Fetch(context.Background(), "abc12345678")
		require.NoError(t, err)
		assert.Contains(t, text, "document object model")
		assert.Greater(t, len(text), minTranscriptChars)
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("raw html fallback", func(t *testing.T) {
		srv, _ := newYouTubeFixture(t, func(base string) string {
			return `<html><body><div data-x='{"captionTracks":[{"baseUrl":"` + base + `/captions","languageCode":"en-US"}]}'></div></body></html>`
		})
		s := &WatchPageStrategy{Client: srv.Client(), BaseURL: srv.URL}
		text, err := s.Fetch(context.Background(), "abc12345678")
		require.NoError(t, err)
		assert.Contains(t, text, "to-do list")
	})

	t.Run("no english track", func(t *testing.T) {
		srv, hits := newYouTubeFixture(t, func(base string) string {
			return `<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"` + base + `/captions","languageCode":"es"}]}}};</script>`
		})
		s := &WatchPageStrategy{Client: srv.Client(), BaseURL: srv.URL}
		_, err := s.Fetch(context.Background(), "abc12345678")
		assert.Error(t, err)
		assert.EqualValues(t, 0, hits.Load())
	})

	t.Run("no captions at all", func(t *testing.T) {
		srv, _ := newYouTubeFixture(t, func(string) string {
			return `<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"}};</script>`
		})
		s := &WatchPageStrategy{Client: srv.Client(), BaseURL: srv.URL}
		_, err := s.Fetch(context.Background(), "abc12345678")
		assert.Error(t, err)
	})
}

func TestHTTPStrategies(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 8)

	mux := http.NewServeMux()
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc12345678", r.URL.Query().Get("videoId"))
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		fmt.Fprintf(w, `{"transcript":[{"text":%q},{"snippet":"tail"}]}`, long)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		assert.Equal(t, "json3", r.URL.Query().Get("fmt"))
		fmt.Fprintf(w, `{"events":[{"segs":[{"utf8":%q}]}]}`, long)
	})
	mux.HandleFunc("/get", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("url"), "fmt=srv1")
		fmt.Fprintf(w, `{"contents":%q}`, captionXMLFixture)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()

	text, err := (&AuxiliaryAPIStrategy{Client: srv.Client(), BaseURL: srv.URL, APIKey: "secret"}).Fetch(ctx, "abc12345678")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(text, "tail"))

	text, err = (&TimedTextStrategy{Client: srv.Client(), BaseURL: srv.URL}).Fetch(ctx, "abc12345678")
	require.NoError(t, err)
	assert.Equal(t, engine.CollapseSpaces(long), text)

	text, err = (&ProxyStrategy{Client: srv.Client(), ProxyURL: srv.URL, YouTubeURL: "https://www.youtube.com"}).Fetch(ctx, "abc12345678")
	require.NoError(t, err)
	assert.Contains(t, text, "interactive to-do list")
}

func TestStrategyHTTPFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	strategies := DefaultTranscriptStrategies(engine.Config{
		HTTPClient: srv.Client(),
		Endpoints: engine.Endpoints{
			TranscriptAPI: srv.URL,
			YouTube:       srv.URL,
			CORSProxy:     srv.URL,
		},
	})
	require.Len(t, strategies, 4)

	a := NewTranscriptAcquirer(nil, strategies...)
	_, err := a.Acquire(context.Background(), "abc12345678")
	assert.ErrorIs(t, err, ErrNoTranscript)
}
