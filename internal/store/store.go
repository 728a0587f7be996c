// Package store persists videos and their generated study material.
//
// Three backends share one interface: SQLite (default, local file), Postgres
// (pgx pool with embedded migrations) and Supabase (PostgREST). Row ids are
// UUIDv4 strings generated here so every backend uses the same scheme.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by GetVideo for an unknown id.
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidRow is returned before writing a row that breaks a table invariant.
	ErrInvalidRow = errors.New("store: invalid row")
)

// Video is one processed video. Immutable after insert.
type Video struct {
	ID               string    `json:"id"`
	UserID           *string   `json:"user_id"`
	VideoID          string    `json:"video_id"`
	YouTubeURL       string    `json:"youtube_url"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ThumbnailURL     string    `json:"thumbnail_url"`
	Duration         int       `json:"duration"`
	Transcript       string    `json:"transcript"`
	TranscriptSource string    `json:"transcript_source,omitempty"`
	Summary          string    `json:"summary"`
	CreatedAt        time.Time `json:"created_at"`
}

// Flashcard belongs to a video row.
type Flashcard struct {
	ID         string    `json:"id"`
	UserID     *string   `json:"user_id"`
	VideoID    string    `json:"video_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Difficulty string    `json:"difficulty"`
	Provenance string    `json:"provenance,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Quiz belongs to a video row. Questions is filled on read only.
type Quiz struct {
	ID          string         `json:"id"`
	UserID      *string        `json:"user_id"`
	VideoID     string         `json:"video_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Difficulty  string         `json:"difficulty,omitempty"`
	Provenance  string         `json:"provenance,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Questions   []QuizQuestion `json:"quiz_questions"`
}

// QuizQuestion belongs to a quiz. OrderIndex is zero-based and contiguous
// within its quiz.
type QuizQuestion struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quiz_id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation"`
	OrderIndex    int       `json:"order_index"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the persistence boundary. Each call is atomic on its own; there is
// no transaction spanning calls.
type Store interface {
	// InsertVideo assigns ID and CreatedAt when empty and writes the row.
	InsertVideo(ctx context.Context, v *Video) error
	// InsertFlashcards writes the batch and returns the number of rows written.
	InsertFlashcards(ctx context.Context, cards []Flashcard) (int, error)
	// InsertQuiz writes the quiz row only; questions go through InsertQuizQuestions.
	InsertQuiz(ctx context.Context, q *Quiz) error
	InsertQuizQuestions(ctx context.Context, qs []QuizQuestion) error

	GetVideo(ctx context.Context, id string) (*Video, error)
	ListFlashcards(ctx context.Context, videoRowID string) ([]Flashcard, error)
	// ListQuizzes returns quizzes with questions ordered by OrderIndex.
	ListQuizzes(ctx context.Context, videoRowID string) ([]Quiz, error)

	Close() error
}

// Open builds the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg engine.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "", "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "postgres":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case "supabase":
		return OpenSupabase(cfg.SupabaseURL, cfg.SupabaseKey)
	default:
		return nil, fmt.Errorf("store: unknown driver %q (valid: sqlite, postgres, supabase)", cfg.StoreDriver)
	}
}

func newID() string { return uuid.NewString() }

func stamp(id *string, at *time.Time, now time.Time) {
	if *id == "" {
		*id = newID()
	}
	if at.IsZero() {
		*at = now
	}
}

func prepareVideo(v *Video) error {
	if v.VideoID == "" || v.Title == "" {
		return fmt.Errorf("%w: video needs video_id and title", ErrInvalidRow)
	}
	stamp(&v.ID, &v.CreatedAt, time.Now().UTC())
	return nil
}

func prepareFlashcards(cards []Flashcard) error {
	now := time.Now().UTC()
	for i := range cards {
		c := &cards[i]
		if c.VideoID == "" {
			return fmt.Errorf("%w: flashcard %d has no video_id", ErrInvalidRow, i)
		}
		switch c.Difficulty {
		case "easy", "medium", "hard":
		default:
			return fmt.Errorf("%w: flashcard %d difficulty %q", ErrInvalidRow, i, c.Difficulty)
		}
		stamp(&c.ID, &c.CreatedAt, now)
	}
	return nil
}

func prepareQuiz(q *Quiz) error {
	if q.VideoID == "" {
		return fmt.Errorf("%w: quiz has no video_id", ErrInvalidRow)
	}
	stamp(&q.ID, &q.CreatedAt, time.Now().UTC())
	return nil
}

// prepareQuestions enforces four options, a correct answer among them, and
// order indexes 0..n-1 per quiz within the batch.
func prepareQuestions(qs []QuizQuestion) error {
	now := time.Now().UTC()
	seen := make(map[string][]int)
	for i := range qs {
		q := &qs[i]
		if q.QuizID == "" {
			return fmt.Errorf("%w: question %d has no quiz_id", ErrInvalidRow, i)
		}
		if len(q.Options) != 4 {
			return fmt.Errorf("%w: question %d has %d options", ErrInvalidRow, i, len(q.Options))
		}
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("%w: question %d correct_answer not among options", ErrInvalidRow, i)
		}
		seen[q.QuizID] = append(seen[q.QuizID], q.OrderIndex)
		stamp(&q.ID, &q.CreatedAt, now)
	}
	for quizID, idx := range seen {
		slices.Sort(idx)
		for want, got := range idx {
			if want != got {
				return fmt.Errorf("%w: quiz %s order_index not contiguous from 0", ErrInvalidRow, quizID)
			}
		}
	}
	return nil
}

func sortQuestions(qs []QuizQuestion) {
	slices.SortFunc(qs, func(a, b QuizQuestion) int { return a.OrderIndex - b.OrderIndex })
}
