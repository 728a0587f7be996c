package study

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_study/internal/engine"
)

const (
	summaryTranscriptRunes   = 10000
	flashcardTranscriptRunes = 3000
	quizTranscriptRunes      = 4000
	maxFlashcardTokens       = 4000
	maxQuizTokens            = 5000
)

// Generator produces study material, preferring the model and falling back
// to templates whenever the model is disabled, fails, or yields nothing usable.
type Generator struct {
	llm engine.LLM
}

// NewGenerator wraps l. A nil l behaves like a disabled provider.
func NewGenerator(l engine.LLM) *Generator {
	if l == nil {
		l = engine.DisabledLLM{}
	}
	return &Generator{llm: l}
}

// Summary returns a summary of the transcript. It never fails.
func (g *Generator) Summary(ctx context.Context, title, transcript string) string {
	if !engine.LLMEnabled(g.llm) {
		return fmt.Sprintf(`Summary of "%s": This video covers educational content based on the transcript analysis. Key concepts and learning objectives are discussed throughout the presentation.`, title)
	}
	prompt := fmt.Sprintf(summaryPrompt, title, engine.TruncateRunes(transcript, summaryTranscriptRunes, ""))
	out, err := g.llm.Complete(ctx, prompt, engine.CompletionOptions{Temperature: 0.3, MaxTokens: 1000})
	if err != nil {
		slog.Warn("summary: llm failed, using template", slog.Any("error", err))
		engine.IncrTemplateFallback()
		return fmt.Sprintf(`Summary of "%s": This educational video provides comprehensive coverage of key concepts and practical applications. The content includes detailed explanations and examples to help learners understand the material effectively.`, title)
	}
	return strings.TrimSpace(out)
}

// Flashcards returns up to count validated flashcards from the model, or
// exactly count template flashcards when the model path yields none.
func (g *Generator) Flashcards(ctx context.Context, title, transcript string, count int, d Difficulty) FlashcardSet {
	if count <= 0 {
		return FlashcardSet{Provenance: ProvenanceTemplate}
	}
	strategies := []engine.Strategy[[]Flashcard]{{
		Name: "template",
		Attempt: func(context.Context) ([]Flashcard, error) {
			return TemplateFlashcards(title, transcript, count, d), nil
		},
	}}
	if engine.LLMEnabled(g.llm) {
		strategies = append([]engine.Strategy[[]Flashcard]{{
			Name: string(ProvenanceLLM),
			Attempt: func(ctx context.Context) ([]Flashcard, error) {
				return g.llmFlashcards(ctx, title, transcript, count, d)
			},
		}}, strategies...)
	}

	cards, winner, err := engine.FirstSuccess(ctx, "flashcards", strategies, nonEmpty[Flashcard])
	if err != nil {
		// Context cancelled before any attempt finished.
		cards, winner = TemplateFlashcards(title, transcript, count, d), "template"
	}
	if winner != string(ProvenanceLLM) && engine.LLMEnabled(g.llm) {
		engine.IncrTemplateFallback()
	}
	return FlashcardSet{Cards: cards, Provenance: Provenance(winner)}
}

func (g *Generator) llmFlashcards(ctx context.Context, title, transcript string, count int, d Difficulty) ([]Flashcard, error) {
	content := engine.TruncateRunes(engine.CollapseSpaces(transcript), flashcardTranscriptRunes, "")
	upper := strings.ToUpper(string(d))
	prompt := fmt.Sprintf(flashcardPrompt, d, title, content, count, flashcardInstructions[d], upper, flashcardExamples[d])

	raw, err := g.llm.Complete(ctx, prompt, engine.CompletionOptions{
		Temperature: 0.3,
		TopP:        0.8,
		MaxTokens:   min(count*150, maxFlashcardTokens),
	})
	if err != nil {
		return nil, err
	}
	items, err := ParseArray(raw)
	if err != nil {
		return nil, err
	}
	cards := decodeFlashcards(items, d)
	if len(cards) > count {
		cards = cards[:count]
	}
	return cards, nil
}

// Quiz returns a quiz of up to n model questions, or exactly n template
// questions when the model path yields none.
func (g *Generator) Quiz(ctx context.Context, title, transcript string, n int, d Difficulty) Quiz {
	quiz := Quiz{
		Title:       QuizTitle(title, d),
		Description: QuizDescription(title, n, d),
		Difficulty:  d,
		Provenance:  ProvenanceTemplate,
	}
	if n <= 0 {
		return quiz
	}
	strategies := []engine.Strategy[[]Question]{{
		Name: "template",
		Attempt: func(context.Context) ([]Question, error) {
			return TemplateQuiz(title, transcript, n, d), nil
		},
	}}
	if engine.LLMEnabled(g.llm) {
		strategies = append([]engine.Strategy[[]Question]{{
			Name: string(ProvenanceLLM),
			Attempt: func(ctx context.Context) ([]Question, error) {
				return g.llmQuiz(ctx, title, transcript, n, d)
			},
		}}, strategies...)
	}

	questions, winner, err := engine.FirstSuccess(ctx, "quiz", strategies, nonEmpty[Question])
	if err != nil {
		questions, winner = TemplateQuiz(title, transcript, n, d), "template"
	}
	if winner != string(ProvenanceLLM) && engine.LLMEnabled(g.llm) {
		engine.IncrTemplateFallback()
	}
	quiz.Questions = questions
	quiz.Provenance = Provenance(winner)
	return quiz
}

func (g *Generator) llmQuiz(ctx context.Context, title, transcript string, n int, d Difficulty) ([]Question, error) {
	content := engine.TruncateRunes(engine.CollapseSpaces(transcript), quizTranscriptRunes, "")
	upper := strings.ToUpper(string(d))
	prompt := fmt.Sprintf(quizPrompt, d, title, content, n, quizInstructions[d], upper, quizGuidelines[d])

	raw, err := g.llm.Complete(ctx, prompt, engine.CompletionOptions{
		Temperature: 0.3,
		TopP:        0.8,
		MaxTokens:   min(n*200, maxQuizTokens),
	})
	if err != nil {
		return nil, err
	}
	items, err := ParseArray(raw)
	if err != nil {
		return nil, err
	}
	questions := decodeQuestions(items)
	if len(questions) > n {
		questions = questions[:n]
	}
	return questions, nil
}

func nonEmpty[T any](items []T) error {
	if len(items) == 0 {
		return errNoValidItems
	}
	return nil
}
