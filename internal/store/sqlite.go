package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS videos (
	id                TEXT PRIMARY KEY,
	user_id           TEXT,
	video_id          TEXT NOT NULL,
	youtube_url       TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	thumbnail_url     TEXT NOT NULL DEFAULT '',
	duration          INTEGER NOT NULL DEFAULT 0,
	transcript        TEXT NOT NULL DEFAULT '',
	transcript_source TEXT NOT NULL DEFAULT '',
	summary           TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_video_id ON videos(video_id);

CREATE TABLE IF NOT EXISTS flashcards (
	id         TEXT PRIMARY KEY,
	user_id    TEXT,
	video_id   TEXT NOT NULL REFERENCES videos(id),
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	difficulty TEXT NOT NULL CHECK (difficulty IN ('easy','medium','hard')),
	provenance TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flashcards_video ON flashcards(video_id);

CREATE TABLE IF NOT EXISTS quizzes (
	id          TEXT PRIMARY KEY,
	user_id     TEXT,
	video_id    TEXT NOT NULL REFERENCES videos(id),
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	difficulty  TEXT NOT NULL DEFAULT '',
	provenance  TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quizzes_video ON quizzes(video_id);

CREATE TABLE IF NOT EXISTS quiz_questions (
	id             TEXT PRIMARY KEY,
	quiz_id        TEXT NOT NULL REFERENCES quizzes(id),
	question       TEXT NOT NULL,
	options        TEXT NOT NULL,
	correct_answer TEXT NOT NULL,
	explanation    TEXT NOT NULL DEFAULT '',
	order_index    INTEGER NOT NULL,
	created_at     TEXT NOT NULL,
	UNIQUE (quiz_id, order_index)
);
`

// SQLiteStore keeps everything in one local file.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultSQLitePath is ~/.go_study/study.db.
func DefaultSQLitePath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_study", "study.db")
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("sqlite: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle for ad-hoc queries.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) InsertVideo(ctx context.Context, v *Video) error {
	if err := prepareVideo(v); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, user_id, video_id, youtube_url, title, description, thumbnail_url,
		                     duration, transcript, transcript_source, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.VideoID, v.YouTubeURL, v.Title, v.Description, v.ThumbnailURL,
		v.Duration, v.Transcript, v.TranscriptSource, v.Summary, formatTime(v.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert video: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertFlashcards(ctx context.Context, cards []Flashcard) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}
	if err := prepareFlashcards(cards); err != nil {
		return 0, err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO flashcards (id, user_id, video_id, question, answer, difficulty, provenance, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range cards {
			if _, err := stmt.ExecContext(ctx, c.ID, c.UserID, c.VideoID, c.Question, c.Answer,
				c.Difficulty, c.Provenance, formatTime(c.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert flashcards: %w", err)
	}
	return len(cards), nil
}

func (s *SQLiteStore) InsertQuiz(ctx context.Context, q *Quiz) error {
	if err := prepareQuiz(q); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, user_id, video_id, title, description, difficulty, provenance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.UserID, q.VideoID, q.Title, q.Description, q.Difficulty, q.Provenance, formatTime(q.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert quiz: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertQuizQuestions(ctx context.Context, qs []QuizQuestion) error {
	if len(qs) == 0 {
		return nil
	}
	if err := prepareQuestions(qs); err != nil {
		return err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO quiz_questions (id, quiz_id, question, options, correct_answer, explanation, order_index, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, q := range qs {
			opts, err := json.Marshal(q.Options)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, q.ID, q.QuizID, q.Question, string(opts), q.CorrectAnswer,
				q.Explanation, q.OrderIndex, formatTime(q.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: insert quiz questions: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetVideo(ctx context.Context, id string) (*Video, error) {
	var (
		v       Video
		userID  sql.NullString
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, video_id, youtube_url, title, description, thumbnail_url,
		        duration, transcript, transcript_source, summary, created_at
		 FROM videos WHERE id = ?`, id,
	).Scan(&v.ID, &userID, &v.VideoID, &v.YouTubeURL, &v.Title, &v.Description, &v.ThumbnailURL,
		&v.Duration, &v.Transcript, &v.TranscriptSource, &v.Summary, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get video: %w", err)
	}
	v.UserID = nullable(userID)
	v.CreatedAt = parseTime(created)
	return &v, nil
}

func (s *SQLiteStore) ListFlashcards(ctx context.Context, videoRowID string) ([]Flashcard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, video_id, question, answer, difficulty, provenance, created_at
		 FROM flashcards WHERE video_id = ? ORDER BY created_at, rowid`, videoRowID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list flashcards: %w", err)
	}
	defer rows.Close()

	var out []Flashcard
	for rows.Next() {
		var (
			c       Flashcard
			userID  sql.NullString
			created string
		)
		if err := rows.Scan(&c.ID, &userID, &c.VideoID, &c.Question, &c.Answer, &c.Difficulty, &c.Provenance, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan flashcard: %w", err)
		}
		c.UserID = nullable(userID)
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListQuizzes(ctx context.Context, videoRowID string) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, video_id, title, description, difficulty, provenance, created_at
		 FROM quizzes WHERE video_id = ? ORDER BY created_at, rowid`, videoRowID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list quizzes: %w", err)
	}
	var quizzes []Quiz
	for rows.Next() {
		var (
			q       Quiz
			userID  sql.NullString
			created string
		)
		if err := rows.Scan(&q.ID, &userID, &q.VideoID, &q.Title, &q.Description, &q.Difficulty, &q.Provenance, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scan quiz: %w", err)
		}
		q.UserID = nullable(userID)
		q.CreatedAt = parseTime(created)
		quizzes = append(quizzes, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list quizzes: %w", err)
	}

	// Single connection: the quiz cursor must be closed before the next query.
	for i := range quizzes {
		qs, err := s.listQuestions(ctx, quizzes[i].ID)
		if err != nil {
			return nil, err
		}
		quizzes[i].Questions = qs
	}
	return quizzes, nil
}

func (s *SQLiteStore) listQuestions(ctx context.Context, quizID string) ([]QuizQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, question, options, correct_answer, explanation, order_index, created_at
		 FROM quiz_questions WHERE quiz_id = ? ORDER BY order_index`, quizID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list quiz questions: %w", err)
	}
	defer rows.Close()

	qs := []QuizQuestion{}
	for rows.Next() {
		var (
			q       QuizQuestion
			opts    string
			created string
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Question, &opts, &q.CorrectAnswer, &q.Explanation, &q.OrderIndex, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan quiz question: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return nil, fmt.Errorf("sqlite: decode options of %s: %w", q.ID, err)
		}
		q.CreatedAt = parseTime(created)
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// timeLayout is fixed width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
