package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/anatolykoptev/go_study/internal/engine/sources"
	"github.com/anatolykoptev/go_study/internal/engine/study"
	"github.com/anatolykoptev/go_study/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetadata struct{ calls atomic.Int32 }

func (f *fakeMetadata) Fetch(_ context.Context, videoID, _ string) sources.VideoMetadata {
	f.calls.Add(1)
	return sources.VideoMetadata{Title: "JavaScript DOM Crash Course", ThumbnailURL: "https://i.ytimg.com/vi/" + videoID + "/hq.jpg", Source: "oembed"}
}

type fakeTranscripts struct{ calls atomic.Int32 }

func (f *fakeTranscripts) AcquireOrSynthesize(_ context.Context, _ string, md sources.VideoMetadata) sources.Transcript {
	f.calls.Add(1)
	return sources.Transcript{Text: sources.FallbackContent(md.Title, md.Description), Source: sources.SourceSynthetic}
}

// countingStore counts writes and can fail one of them.
type countingStore struct {
	store.Store
	writes       atomic.Int32
	failQuestion bool
}

func (c *countingStore) InsertVideo(ctx context.Context, v *store.Video) error {
	c.writes.Add(1)
	return c.Store.InsertVideo(ctx, v)
}

func (c *countingStore) InsertFlashcards(ctx context.Context, cards []store.Flashcard) (int, error) {
	c.writes.Add(1)
	return c.Store.InsertFlashcards(ctx, cards)
}

func (c *countingStore) InsertQuiz(ctx context.Context, q *store.Quiz) error {
	c.writes.Add(1)
	return c.Store.InsertQuiz(ctx, q)
}

func (c *countingStore) InsertQuizQuestions(ctx context.Context, qs []store.QuizQuestion) error {
	c.writes.Add(1)
	if c.failQuestion {
		return errors.New("connection reset")
	}
	return c.Store.InsertQuizQuestions(ctx, qs)
}

type fixture struct {
	proc        *Processor
	metadata    *fakeMetadata
	transcripts *fakeTranscripts
	store       *countingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{metadata: &fakeMetadata{}, transcripts: &fakeTranscripts{}, store: &countingStore{Store: db}}
	f.proc = New(f.metadata, f.transcripts, study.NewGenerator(engine.DisabledLLM{}), f.store)
	return f
}

func intPtr(n int) *int { return &n }

func TestProcessEndToEndWithoutLLM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.proc.Process(ctx, Request{
		YouTubeURL:        "https://youtu.be/abc12345678",
		FlashcardCount:    intPtr(10),
		QuizQuestionCount: intPtr(5),
		Difficulty:        "easy",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 10, res.Flashcards)
	assert.Equal(t, "abc12345678", res.Video.VideoID)
	assert.Equal(t, "synthetic", res.Video.TranscriptSource)
	assert.Contains(t, res.Video.Summary, `Summary of "JavaScript DOM Crash Course"`)

	require.NotNil(t, res.Quiz)
	require.Len(t, res.Quiz.Questions, 5)
	assert.Equal(t, "Quiz: JavaScript DOM Crash Course (easy)", res.Quiz.Title)
	for i, q := range res.Quiz.Questions {
		assert.Equal(t, i, q.OrderIndex)
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}

	m, err := f.proc.GetVideoMaterials(ctx, res.Video.ID)
	require.NoError(t, err)
	require.Len(t, m.Flashcards, 10)
	for _, c := range m.Flashcards {
		assert.Equal(t, "easy", c.Difficulty)
		assert.Equal(t, "template", c.Provenance)
	}
	require.Len(t, m.Quizzes, 1)
	assert.Len(t, m.Quizzes[0].Questions, 5)
}

func TestProcessDefaults(t *testing.T) {
	f := newFixture(t)
	res, err := f.proc.Process(context.Background(), Request{YouTubeURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"})
	require.NoError(t, err)
	assert.Equal(t, DefaultFlashcardCount, res.Flashcards)
	assert.Len(t, res.Quiz.Questions, DefaultQuizQuestionCount)
	assert.Equal(t, "medium", res.Quiz.Difficulty)
}

func TestProcessZeroCountsSkipArtifacts(t *testing.T) {
	f := newFixture(t)
	res, err := f.proc.Process(context.Background(), Request{
		YouTubeURL:        "https://youtu.be/abc12345678",
		FlashcardCount:    intPtr(0),
		QuizQuestionCount: intPtr(0),
	})
	require.NoError(t, err)
	assert.Zero(t, res.Flashcards)
	assert.Nil(t, res.Quiz)
	assert.EqualValues(t, 1, f.store.writes.Load(), "only the video row")
}

func TestProcessRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"not youtube", Request{YouTubeURL: "https://vimeo.com/123"}, ErrInvalidURL},
		{"short id", Request{YouTubeURL: "https://youtu.be/abc"}, ErrInvalidURL},
		{"empty", Request{}, ErrInvalidURL},
		{"bad difficulty", Request{YouTubeURL: "https://youtu.be/abc12345678", Difficulty: "expert"}, ErrInvalidInput},
		{"too many cards", Request{YouTubeURL: "https://youtu.be/abc12345678", FlashcardCount: intPtr(51)}, ErrInvalidInput},
		{"negative questions", Request{YouTubeURL: "https://youtu.be/abc12345678", QuizQuestionCount: intPtr(-1)}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.proc.Process(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.metadata.calls.Load())
			assert.Zero(t, f.transcripts.calls.Load())
			assert.Zero(t, f.store.writes.Load())
		})
	}
}

func TestProcessStoreFailureLeavesVideo(t *testing.T) {
	f := newFixture(t)
	f.store.failQuestion = true

	_, err := f.proc.Process(context.Background(), Request{YouTubeURL: "https://youtu.be/abc12345678"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save quiz questions")
}

func TestGetVideoMaterialsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.proc.GetVideoMaterials(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
