package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "study.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testVideo() *Video {
	return &Video{
		VideoID:          "abc12345678",
		YouTubeURL:       "https://youtu.be/abc12345678",
		Title:            "JavaScript DOM Crash Course",
		Transcript:       "The DOM is a tree of nodes.",
		TranscriptSource: "timedtext",
		Summary:          "A summary.",
		Duration:         630,
	}
}

func questions(quizID string, n int) []QuizQuestion {
	qs := make([]QuizQuestion, n)
	for i := range qs {
		qs[i] = QuizQuestion{
			QuizID:        quizID,
			Question:      "What is node " + string(rune('A'+i)) + "?",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "c",
			Explanation:   "Because.",
			OrderIndex:    i,
		}
	}
	return qs
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v := testVideo()
	require.NoError(t, s.InsertVideo(ctx, v))
	require.NotEmpty(t, v.ID)
	assert.False(t, v.CreatedAt.IsZero())

	got, err := s.GetVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Title, got.Title)
	assert.Equal(t, "timedtext", got.TranscriptSource)
	assert.Equal(t, 630, got.Duration)
	assert.Nil(t, got.UserID)
	assert.True(t, v.CreatedAt.Equal(got.CreatedAt))

	cards := []Flashcard{
		{VideoID: v.ID, Question: "Q1 question?", Answer: "A1", Difficulty: "easy", Provenance: "template"},
		{VideoID: v.ID, Question: "Q2 question?", Answer: "A2", Difficulty: "easy", Provenance: "template"},
	}
	n, err := s.InsertFlashcards(ctx, cards)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	listed, err := s.ListFlashcards(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Q1 question?", listed[0].Question)
	assert.Equal(t, "template", listed[1].Provenance)

	quiz := &Quiz{VideoID: v.ID, Title: "Quiz: x (easy)", Description: "d", Difficulty: "easy", Provenance: "llm"}
	require.NoError(t, s.InsertQuiz(ctx, quiz))

	// Insert out of order; reads come back by order_index.
	qs := questions(quiz.ID, 3)
	qs[0], qs[2] = qs[2], qs[0]
	require.NoError(t, s.InsertQuizQuestions(ctx, qs))

	quizzes, err := s.ListQuizzes(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "llm", quizzes[0].Provenance)
	require.Len(t, quizzes[0].Questions, 3)
	for i, q := range quizzes[0].Questions {
		assert.Equal(t, i, q.OrderIndex)
		assert.Equal(t, []string{"a", "b", "c", "d"}, q.Options)
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}
}

func TestSQLiteListsBatchesInTimeOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v := testVideo()
	require.NoError(t, s.InsertVideo(ctx, v))

	base := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	batch := func(q string, at time.Time) []Flashcard {
		return []Flashcard{{VideoID: v.ID, Question: q, Answer: "A", Difficulty: "easy", Provenance: "template", CreatedAt: at}}
	}
	// Written out of order; a whole second and a fractional one in the same second.
	_, err := s.InsertFlashcards(ctx, batch("second batch?", base.Add(500*time.Millisecond)))
	require.NoError(t, err)
	_, err = s.InsertFlashcards(ctx, batch("third batch?", base.Add(512*time.Millisecond)))
	require.NoError(t, err)
	_, err = s.InsertFlashcards(ctx, batch("first batch?", base))
	require.NoError(t, err)

	listed, err := s.ListFlashcards(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "first batch?", listed[0].Question)
	assert.Equal(t, "second batch?", listed[1].Question)
	assert.Equal(t, "third batch?", listed[2].Question)
	assert.True(t, base.Add(500*time.Millisecond).Equal(listed[1].CreatedAt))
}

func TestSQLiteNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetVideo(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	quizzes, err := s.ListQuizzes(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestSQLiteRejectsInvalidRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	v := testVideo()
	require.NoError(t, s.InsertVideo(ctx, v))
	quiz := &Quiz{VideoID: v.ID, Title: "q"}
	require.NoError(t, s.InsertQuiz(ctx, quiz))

	tests := []struct {
		name   string
		mutate func([]QuizQuestion)
	}{
		{"answer not an option", func(qs []QuizQuestion) { qs[0].CorrectAnswer = "z" }},
		{"three options", func(qs []QuizQuestion) { qs[1].Options = qs[1].Options[:3] }},
		{"gap in order", func(qs []QuizQuestion) { qs[1].OrderIndex = 5 }},
		{"duplicate order", func(qs []QuizQuestion) { qs[1].OrderIndex = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs := questions(quiz.ID, 2)
			tt.mutate(qs)
			assert.ErrorIs(t, s.InsertQuizQuestions(ctx, qs), ErrInvalidRow)
		})
	}

	_, err := s.InsertFlashcards(ctx, []Flashcard{{VideoID: v.ID, Question: "q", Answer: "a", Difficulty: "expert"}})
	assert.ErrorIs(t, err, ErrInvalidRow)

	// Foreign keys are enforced.
	_, err = s.InsertFlashcards(ctx, []Flashcard{{VideoID: "nope", Question: "q", Answer: "a", Difficulty: "easy"}})
	assert.Error(t, err)

	quizzes, err := s.ListQuizzes(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, quizzes[0].Questions)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), engine.Config{StoreDriver: "mongo"})
	assert.Error(t, err)
}
