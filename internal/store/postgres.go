package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PostgresStore holds the pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pgx pool and runs schema migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres store")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("postgres store connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

func (s *PostgresStore) InsertVideo(ctx context.Context, v *Video) error {
	if err := prepareVideo(v); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO videos (id, user_id, video_id, youtube_url, title, description, thumbnail_url,
		                     duration, transcript, transcript_source, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, v.UserID, v.VideoID, v.YouTubeURL, v.Title, v.Description, v.ThumbnailURL,
		v.Duration, v.Transcript, v.TranscriptSource, v.Summary, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert video: %w", err)
	}
	return nil
}

// InsertFlashcards streams the batch with COPY; it lands entirely or not at all.
func (s *PostgresStore) InsertFlashcards(ctx context.Context, cards []Flashcard) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	if err := prepareFlashcards(cards); err != nil {
		return 0, err
	}
	rows := make([][]any, len(cards))
	for i, c := range cards {
		rows[i] = []any{c.ID, c.UserID, c.VideoID, c.Question, c.Answer, c.Difficulty, c.Provenance, c.CreatedAt}
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"flashcards"},
		[]string{"id", "user_id", "video_id", "question", "answer", "difficulty", "provenance", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: copy flashcards: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) InsertQuiz(ctx context.Context, q *Quiz) error {
	if err := prepareQuiz(q); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, user_id, video_id, title, description, difficulty, provenance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.UserID, q.VideoID, q.Title, q.Description, q.Difficulty, q.Provenance, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert quiz: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertQuizQuestions(ctx context.Context, qs []QuizQuestion) error {
	if len(qs) == 0 {
		return nil
	}
	if err := prepareQuestions(qs); err != nil {
		return err
	}
	rows := make([][]any, len(qs))
	for i, q := range qs {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("postgres: encode options: %w", err)
		}
		rows[i] = []any{q.ID, q.QuizID, q.Question, opts, q.CorrectAnswer, q.Explanation, q.OrderIndex, q.CreatedAt}
	}
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"quiz_questions"},
		[]string{"id", "quiz_id", "question", "options", "correct_answer", "explanation", "order_index", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("postgres: copy quiz questions: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetVideo(ctx context.Context, id string) (*Video, error) {
	var v Video
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, video_id, youtube_url, title, description, thumbnail_url,
		        duration, transcript, transcript_source, summary, created_at
		 FROM videos WHERE id = $1`, id,
	).Scan(&v.ID, &v.UserID, &v.VideoID, &v.YouTubeURL, &v.Title, &v.Description, &v.ThumbnailURL,
		&v.Duration, &v.Transcript, &v.TranscriptSource, &v.Summary, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get video: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) ListFlashcards(ctx context.Context, videoRowID string) ([]Flashcard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, video_id, question, answer, difficulty, provenance, created_at
		 FROM flashcards WHERE video_id = $1 ORDER BY created_at, id`, videoRowID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list flashcards: %w", err)
	}
	defer rows.Close()

	var out []Flashcard
	for rows.Next() {
		var c Flashcard
		if err := rows.Scan(&c.ID, &c.UserID, &c.VideoID, &c.Question, &c.Answer, &c.Difficulty, &c.Provenance, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan flashcard: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListQuizzes(ctx context.Context, videoRowID string) ([]Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, video_id, title, description, difficulty, provenance, created_at
		 FROM quizzes WHERE video_id = $1 ORDER BY created_at, id`, videoRowID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []Quiz
	index := make(map[string]int)
	for rows.Next() {
		var q Quiz
		if err := rows.Scan(&q.ID, &q.UserID, &q.VideoID, &q.Title, &q.Description, &q.Difficulty, &q.Provenance, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan quiz: %w", err)
		}
		q.Questions = []QuizQuestion{}
		index[q.ID] = len(quizzes)
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return quizzes, nil
	}

	qrows, err := s.pool.Query(ctx,
		`SELECT qq.id, qq.quiz_id, qq.question, qq.options, qq.correct_answer, qq.explanation, qq.order_index, qq.created_at
		 FROM quiz_questions qq JOIN quizzes q ON q.id = qq.quiz_id
		 WHERE q.video_id = $1 ORDER BY qq.quiz_id, qq.order_index`, videoRowID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list quiz questions: %w", err)
	}
	defer qrows.Close()

	for qrows.Next() {
		var (
			q    QuizQuestion
			opts []byte
		)
		if err := qrows.Scan(&q.ID, &q.QuizID, &q.Question, &opts, &q.CorrectAnswer, &q.Explanation, &q.OrderIndex, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan quiz question: %w", err)
		}
		if err := json.Unmarshal(opts, &q.Options); err != nil {
			return nil, fmt.Errorf("postgres: decode options of %s: %w", q.ID, err)
		}
		if i, ok := index[q.QuizID]; ok {
			quizzes[i].Questions = append(quizzes[i].Questions, q)
		}
	}
	return quizzes, qrows.Err()
}
