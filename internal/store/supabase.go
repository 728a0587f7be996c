package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseStore writes through PostgREST with a service-role key. The
// project schema is managed outside this service, so only the columns of
// the hosted tables are sent: provenance and quiz difficulty stay local.
type SupabaseStore struct {
	client *supabase.Client
}

// OpenSupabase builds the REST client. No request is made until first use.
func OpenSupabase(url, serviceKey string) (*SupabaseStore, error) {
	if url == "" || serviceKey == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase store")
	}
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Close() error { return nil }

type sbVideo struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"user_id"`
	VideoID      string    `json:"video_id"`
	YouTubeURL   string    `json:"youtube_url"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Duration     int       `json:"duration"`
	Transcript   string    `json:"transcript"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
}

type sbFlashcard struct {
	ID         string    `json:"id"`
	UserID     *string   `json:"user_id"`
	VideoID    string    `json:"video_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

type sbQuiz struct {
	ID          string           `json:"id"`
	UserID      *string          `json:"user_id"`
	VideoID     string           `json:"video_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
	Questions   []sbQuizQuestion `json:"quiz_questions,omitempty"`
}

type sbQuizQuestion struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quiz_id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation"`
	OrderIndex    int       `json:"order_index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *SupabaseStore) insert(table string, rows any) error {
	if _, _, err := s.client.From(table).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("supabase: insert into %s: %w", table, err)
	}
	return nil
}

func (s *SupabaseStore) InsertVideo(ctx context.Context, v *Video) error {
	if err := prepareVideo(v); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.insert("videos", sbVideo{
		ID: v.ID, UserID: v.UserID, VideoID: v.VideoID, YouTubeURL: v.YouTubeURL,
		Title: v.Title, Description: v.Description, ThumbnailURL: v.ThumbnailURL,
		Duration: v.Duration, Transcript: v.Transcript, Summary: v.Summary, CreatedAt: v.CreatedAt,
	})
}

// InsertFlashcards sends the batch as one PostgREST request, which runs in
// a single statement on the server.
func (s *SupabaseStore) InsertFlashcards(ctx context.Context, cards []Flashcard) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	if err := prepareFlashcards(cards); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rows := make([]sbFlashcard, len(cards))
	for i, c := range cards {
		rows[i] = sbFlashcard{ID: c.ID, UserID: c.UserID, VideoID: c.VideoID, Question: c.Question,
			Answer: c.Answer, Difficulty: c.Difficulty, CreatedAt: c.CreatedAt}
	}
	if err := s.insert("flashcards", rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *SupabaseStore) InsertQuiz(ctx context.Context, q *Quiz) error {
	if err := prepareQuiz(q); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.insert("quizzes", sbQuiz{ID: q.ID, UserID: q.UserID, VideoID: q.VideoID,
		Title: q.Title, Description: q.Description, CreatedAt: q.CreatedAt})
}

func (s *SupabaseStore) InsertQuizQuestions(ctx context.Context, qs []QuizQuestion) error {
	if len(qs) == 0 {
		return nil
	}
	if err := prepareQuestions(qs); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([]sbQuizQuestion, len(qs))
	for i, q := range qs {
		rows[i] = sbQuizQuestion(q)
	}
	return s.insert("quiz_questions", rows)
}

func (s *SupabaseStore) GetVideo(ctx context.Context, id string) (*Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []sbVideo
	if _, err := s.client.From("videos").Select("*", "", false).Eq("id", id).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("supabase: get video: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	r := rows[0]
	return &Video{
		ID: r.ID, UserID: r.UserID, VideoID: r.VideoID, YouTubeURL: r.YouTubeURL,
		Title: r.Title, Description: r.Description, ThumbnailURL: r.ThumbnailURL,
		Duration: r.Duration, Transcript: r.Transcript, Summary: r.Summary, CreatedAt: r.CreatedAt,
	}, nil
}

func (s *SupabaseStore) ListFlashcards(ctx context.Context, videoRowID string) ([]Flashcard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []sbFlashcard
	if _, err := s.client.From("flashcards").Select("*", "", false).Eq("video_id", videoRowID).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("supabase: list flashcards: %w", err)
	}
	out := make([]Flashcard, len(rows))
	for i, r := range rows {
		out[i] = Flashcard{ID: r.ID, UserID: r.UserID, VideoID: r.VideoID, Question: r.Question,
			Answer: r.Answer, Difficulty: r.Difficulty, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

// ListQuizzes fetches quizzes with their questions embedded in one request.
func (s *SupabaseStore) ListQuizzes(ctx context.Context, videoRowID string) ([]Quiz, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []sbQuiz
	if _, err := s.client.From("quizzes").Select("*, quiz_questions(*)", "", false).Eq("video_id", videoRowID).ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("supabase: list quizzes: %w", err)
	}
	out := make([]Quiz, len(rows))
	for i, r := range rows {
		qs := make([]QuizQuestion, len(r.Questions))
		for j, q := range r.Questions {
			qs[j] = QuizQuestion(q)
		}
		sortQuestions(qs)
		out[i] = Quiz{ID: r.ID, UserID: r.UserID, VideoID: r.VideoID, Title: r.Title,
			Description: r.Description, CreatedAt: r.CreatedAt, Questions: qs}
	}
	return out, nil
}
