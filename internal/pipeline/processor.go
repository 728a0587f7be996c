// Package pipeline runs one video through metadata, transcript, generation
// and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/anatolykoptev/go_study/internal/engine/sources"
	"github.com/anatolykoptev/go_study/internal/engine/study"
	"github.com/anatolykoptev/go_study/internal/store"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidURL   = errors.New("invalid YouTube URL")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	DefaultFlashcardCount    = 15
	DefaultQuizQuestionCount = 10
	MaxCount                 = 50
)

// Request is the body of a processing call. Nil counts take the defaults.
type Request struct {
	YouTubeURL        string `json:"youtubeUrl" jsonschema:"YouTube video URL (watch?v=, youtu.be/, /embed/ or /v/ form)"`
	FlashcardCount    *int   `json:"flashcardCount,omitempty" jsonschema:"Number of flashcards, 0-50 (default 15, 0 skips flashcards)"`
	QuizQuestionCount *int   `json:"quizQuestionCount,omitempty" jsonschema:"Number of quiz questions, 0-50 (default 10, 0 skips the quiz)"`
	Difficulty        string `json:"difficulty,omitempty" jsonschema:"easy, medium or hard (default medium)"`
}

// Result is returned after a successful run. Flashcards is the number of
// flashcard rows written; Quiz is nil when no quiz was requested.
type Result struct {
	Success    bool         `json:"success"`
	Video      *store.Video `json:"video"`
	Flashcards int          `json:"flashcards"`
	Quiz       *store.Quiz  `json:"quiz"`
}

// Materials is everything stored for one video.
type Materials struct {
	Video      *store.Video      `json:"video"`
	Flashcards []store.Flashcard `json:"flashcards"`
	Quizzes    []store.Quiz      `json:"quizzes"`
}

// MetadataSource never fails; the worst case is a placeholder record.
type MetadataSource interface {
	Fetch(ctx context.Context, videoID, videoURL string) sources.VideoMetadata
}

// TranscriptSource always returns non-empty text, synthetic if need be.
type TranscriptSource interface {
	AcquireOrSynthesize(ctx context.Context, videoID string, md sources.VideoMetadata) sources.Transcript
}

// ContentGenerator never fails; model problems fall back to templates.
type ContentGenerator interface {
	Summary(ctx context.Context, title, transcript string) string
	Flashcards(ctx context.Context, title, transcript string, count int, d study.Difficulty) study.FlashcardSet
	Quiz(ctx context.Context, title, transcript string, n int, d study.Difficulty) study.Quiz
}

// Processor wires the stages together.
type Processor struct {
	metadata    MetadataSource
	transcripts TranscriptSource
	gen         ContentGenerator
	store       store.Store
}

func New(metadata MetadataSource, transcripts TranscriptSource, gen ContentGenerator, st store.Store) *Processor {
	return &Processor{metadata: metadata, transcripts: transcripts, gen: gen, store: st}
}

type job struct {
	videoID    string
	url        string
	flashcards int
	questions  int
	difficulty study.Difficulty
}

// validate runs before any network call.
func (r Request) validate() (job, error) {
	u := strings.TrimSpace(r.YouTubeURL)
	id, ok := sources.ParseVideoID(u)
	if !ok {
		return job{}, fmt.Errorf("%w: %q", ErrInvalidURL, r.YouTubeURL)
	}
	j := job{videoID: id, url: u, flashcards: DefaultFlashcardCount, questions: DefaultQuizQuestionCount, difficulty: study.Medium}
	if r.FlashcardCount != nil {
		j.flashcards = *r.FlashcardCount
	}
	if r.QuizQuestionCount != nil {
		j.questions = *r.QuizQuestionCount
	}
	if j.flashcards < 0 || j.flashcards > MaxCount {
		return job{}, fmt.Errorf("%w: flashcardCount must be 0-%d, got %d", ErrInvalidInput, MaxCount, j.flashcards)
	}
	if j.questions < 0 || j.questions > MaxCount {
		return job{}, fmt.Errorf("%w: quizQuestionCount must be 0-%d, got %d", ErrInvalidInput, MaxCount, j.questions)
	}
	if r.Difficulty != "" {
		d, err := study.ParseDifficulty(r.Difficulty)
		if err != nil {
			return job{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		j.difficulty = d
	}
	return j, nil
}

// Process runs the whole pipeline for one request. Only invalid input and
// store failures surface as errors; a store failure after the video insert
// leaves that video row in place.
func (p *Processor) Process(ctx context.Context, req Request) (res *Result, err error) {
	engine.IncrProcessRequests()
	err = engine.TrackOperation(ctx, "process:"+req.YouTubeURL, func(ctx context.Context) error {
		res, err = p.process(ctx, req)
		return err
	})
	if err != nil {
		engine.IncrProcessErrors()
	}
	return res, err
}

func (p *Processor) process(ctx context.Context, req Request) (*Result, error) {
	j, err := req.validate()
	if err != nil {
		return nil, err
	}
	log := slog.With(slog.String("video_id", j.videoID))

	md := p.metadata.Fetch(ctx, j.videoID, j.url)
	tr := p.transcripts.AcquireOrSynthesize(ctx, j.videoID, md)
	log.Info("transcript ready",
		slog.String("source", string(tr.Source)), slog.Int("chars", len(tr.Text)), slog.Bool("synthetic", tr.Synthetic()))

	video := &store.Video{
		VideoID:          j.videoID,
		YouTubeURL:       j.url,
		Title:            md.Title,
		Description:      md.Description,
		ThumbnailURL:     md.ThumbnailURL,
		Duration:         md.Duration,
		Transcript:       tr.Text,
		TranscriptSource: string(tr.Source),
		Summary:          p.gen.Summary(ctx, md.Title, tr.Text),
	}
	if err := p.store.InsertVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("save video: %w", err)
	}
	engine.AddRowsInserted(1)

	var (
		flashcards int
		quiz       *store.Quiz
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := p.saveFlashcards(gctx, video, tr.Text, j)
		flashcards = n
		return err
	})
	g.Go(func() error {
		q, err := p.saveQuiz(gctx, video, tr.Text, j)
		quiz = q
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("generation not saved, video row left without material",
			slog.String("row_id", video.ID), slog.Any("error", err))
		return nil, err
	}

	log.Info("video processed",
		slog.String("row_id", video.ID), slog.Int("flashcards", flashcards), slog.Bool("quiz", quiz != nil))
	return &Result{Success: true, Video: video, Flashcards: flashcards, Quiz: quiz}, nil
}

func (p *Processor) saveFlashcards(ctx context.Context, video *store.Video, transcript string, j job) (int, error) {
	if j.flashcards == 0 {
		return 0, nil
	}
	set := p.gen.Flashcards(ctx, video.Title, transcript, j.flashcards, j.difficulty)
	rows := make([]store.Flashcard, len(set.Cards))
	for i, c := range set.Cards {
		rows[i] = store.Flashcard{
			VideoID:    video.ID,
			Question:   c.Question,
			Answer:     c.Answer,
			Difficulty: string(c.Difficulty),
			Provenance: string(set.Provenance),
		}
	}
	n, err := p.store.InsertFlashcards(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("save flashcards: %w", err)
	}
	engine.AddRowsInserted(n)
	return n, nil
}

func (p *Processor) saveQuiz(ctx context.Context, video *store.Video, transcript string, j job) (*store.Quiz, error) {
	if j.questions == 0 {
		return nil, nil
	}
	generated := p.gen.Quiz(ctx, video.Title, transcript, j.questions, j.difficulty)
	quiz := &store.Quiz{
		VideoID:     video.ID,
		Title:       generated.Title,
		Description: generated.Description,
		Difficulty:  string(generated.Difficulty),
		Provenance:  string(generated.Provenance),
	}
	if err := p.store.InsertQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("save quiz: %w", err)
	}

	questions := make([]store.QuizQuestion, len(generated.Questions))
	for i, q := range generated.Questions {
		questions[i] = store.QuizQuestion{
			QuizID:        quiz.ID,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			OrderIndex:    i,
		}
	}
	if err := p.store.InsertQuizQuestions(ctx, questions); err != nil {
		return nil, fmt.Errorf("save quiz questions: %w", err)
	}
	engine.AddRowsInserted(1 + len(questions))
	quiz.Questions = questions
	return quiz, nil
}

// GetVideoMaterials reads back a processed video with its flashcards and quizzes.
func (p *Processor) GetVideoMaterials(ctx context.Context, rowID string) (*Materials, error) {
	video, err := p.store.GetVideo(ctx, rowID)
	if err != nil {
		return nil, err
	}
	cards, err := p.store.ListFlashcards(ctx, rowID)
	if err != nil {
		return nil, err
	}
	quizzes, err := p.store.ListQuizzes(ctx, rowID)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []store.Flashcard{}
	}
	if quizzes == nil {
		quizzes = []store.Quiz{}
	}
	return &Materials{Video: video, Flashcards: cards, Quizzes: quizzes}, nil
}
