package study

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers by prompt kind and records what it was asked.
type scriptedLLM struct {
	mu        sync.Mutex
	summary   string
	flashcard string
	quiz      string
	err       error
	prompts   []string
	opts      []engine.CompletionOptions
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string, opts engine.CompletionOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return "", s.err
	}
	switch {
	case strings.Contains(prompt, "flashcards from this educational video"):
		return s.flashcard, nil
	case strings.Contains(prompt, "multiple choice quiz questions"):
		return s.quiz, nil
	default:
		return s.summary, nil
	}
}

func (s *scriptedLLM) Close() error { return nil }

const sampleTranscript = "Closures capture variables from their enclosing scope. A closure keeps state alive after the outer function returns."

func TestGeneratorDisabled(t *testing.T) {
	g := NewGenerator(engine.DisabledLLM{})
	ctx := context.Background()

	sum := g.Summary(ctx, "Closures", sampleTranscript)
	assert.Equal(t, `Summary of "Closures": This video covers educational content based on the transcript analysis. Key concepts and learning objectives are discussed throughout the presentation.`, sum)

	set := g.Flashcards(ctx, "Closures", sampleTranscript, 10, Easy)
	assert.Len(t, set.Cards, 10)
	assert.Equal(t, ProvenanceTemplate, set.Provenance)

	quiz := g.Quiz(ctx, "Closures", sampleTranscript, 5, Easy)
	assert.Len(t, quiz.Questions, 5)
	assert.Equal(t, ProvenanceTemplate, quiz.Provenance)
	assert.Equal(t, "Quiz: Closures (easy)", quiz.Title)
}

func TestGeneratorLLMPath(t *testing.T) {
	stub := &scriptedLLM{
		summary:   "  A focused summary about closures.  ",
		flashcard: "```json\n[{\"question\":\"What does a closure capture?\",\"answer\":\"Variables from the enclosing lexical scope.\",\"difficulty\":\"hard\"},{\"question\":\"bad\",\"answer\":\"bad\"}]\n```",
		quiz:      `[{"question":"What keeps state alive after return?","options":["A closure","A loop","A constant","An array"],"correct_answer":"A closure","explanation":"The video says closures keep state alive."}]`,
	}
	g := NewGenerator(stub)
	ctx := context.Background()

	assert.Equal(t, "A focused summary about closures.", g.Summary(ctx, "Closures", sampleTranscript))

	set := g.Flashcards(ctx, "Closures", sampleTranscript, 10, Medium)
	require.Len(t, set.Cards, 1)
	assert.Equal(t, ProvenanceLLM, set.Provenance)
	assert.Equal(t, Medium, set.Cards[0].Difficulty)

	quiz := g.Quiz(ctx, "Closures", sampleTranscript, 5, Hard)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, ProvenanceLLM, quiz.Provenance)
	assert.Equal(t, `Quiz based on "Closures" with 5 hard-level questions`, quiz.Description)

	require.Len(t, stub.opts, 3)
	assert.Equal(t, engine.CompletionOptions{Temperature: 0.3, MaxTokens: 1000}, stub.opts[0])
	assert.Equal(t, engine.CompletionOptions{Temperature: 0.3, TopP: 0.8, MaxTokens: 1500}, stub.opts[1])
	assert.Equal(t, engine.CompletionOptions{Temperature: 0.3, TopP: 0.8, MaxTokens: 1000}, stub.opts[2])
	assert.Contains(t, stub.prompts[1], "TASK: Create exactly 10 flashcards at medium difficulty level.")
	assert.Contains(t, stub.prompts[2], "DIFFICULTY REQUIREMENTS FOR HARD:")
}

func TestGeneratorTruncatesLLMOverflow(t *testing.T) {
	card := `{"question":"What does a closure capture?","answer":"Variables from the enclosing lexical scope."}`
	stub := &scriptedLLM{flashcard: "[" + strings.Repeat(card+",", 4) + card + "]"}
	set := NewGenerator(stub).Flashcards(context.Background(), "Closures", sampleTranscript, 3, Easy)
	assert.Len(t, set.Cards, 3)
}

func TestGeneratorFallsBackOnBadOutput(t *testing.T) {
	// Every question is missing an option, so nothing survives validation.
	stub := &scriptedLLM{
		flashcard: "I'm sorry, I can't do that.",
		quiz:      `[{"question":"What keeps state alive after return?","options":["A closure","A loop","A constant"],"correct_answer":"A closure","explanation":"x"}]`,
	}
	g := NewGenerator(stub)
	ctx := context.Background()

	set := g.Flashcards(ctx, "Closures", sampleTranscript, 4, Hard)
	assert.Len(t, set.Cards, 4)
	assert.Equal(t, ProvenanceTemplate, set.Provenance)

	quiz := g.Quiz(ctx, "Closures", sampleTranscript, 3, Medium)
	assert.Len(t, quiz.Questions, 3)
	assert.Equal(t, ProvenanceTemplate, quiz.Provenance)
}

func TestGeneratorFallsBackOnError(t *testing.T) {
	g := NewGenerator(&scriptedLLM{err: errors.New("503 upstream")})
	ctx := context.Background()

	sum := g.Summary(ctx, "Closures", sampleTranscript)
	assert.True(t, strings.HasPrefix(sum, `Summary of "Closures": This educational video provides comprehensive coverage`))
	assert.Len(t, g.Flashcards(ctx, "Closures", sampleTranscript, 2, Easy).Cards, 2)
	assert.Len(t, g.Quiz(ctx, "Closures", sampleTranscript, 2, Easy).Questions, 2)
}

func TestGeneratorZeroCounts(t *testing.T) {
	stub := &scriptedLLM{}
	g := NewGenerator(stub)
	assert.Empty(t, g.Flashcards(context.Background(), "t", sampleTranscript, 0, Easy).Cards)
	assert.Empty(t, g.Quiz(context.Background(), "t", sampleTranscript, 0, Easy).Questions)
	assert.Empty(t, stub.prompts)
}
