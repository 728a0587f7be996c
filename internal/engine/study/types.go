// Package study turns a transcript into study material: a summary,
// flashcards and a multiple-choice quiz. Every artifact has an LLM path and a
// deterministic template path, so generation itself never fails.
package study

import (
	"fmt"
	"strings"
)

// Difficulty is the requested tier for flashcards and quiz questions.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty accepts easy, medium or hard in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("invalid difficulty %q: want easy, medium or hard", s)
	}
}

// Tag is the question prefix used by template output, e.g. "[EASY]".
func (d Difficulty) Tag() string {
	return "[" + strings.ToUpper(string(d)) + "]"
}

// Provenance records which path produced a batch.
type Provenance string

const (
	ProvenanceLLM      Provenance = "llm"
	ProvenanceTemplate Provenance = "template"
)

// Flashcard is one validated question/answer pair.
type Flashcard struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
}

// FlashcardSet is a batch of flashcards from one path.
type FlashcardSet struct {
	Cards      []Flashcard
	Provenance Provenance
}

// Question is one validated multiple-choice question. CorrectAnswer is
// byte-equal to one of the four Options.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a generated quiz before persistence.
type Quiz struct {
	Title       string
	Description string
	Difficulty  Difficulty
	Questions   []Question
	Provenance  Provenance
}

// QuizTitle formats the stored quiz title.
func QuizTitle(videoTitle string, d Difficulty) string {
	return fmt.Sprintf("Quiz: %s (%s)", videoTitle, d)
}

// QuizDescription formats the stored quiz description.
func QuizDescription(videoTitle string, n int, d Difficulty) string {
	return fmt.Sprintf(`Quiz based on "%s" with %d %s-level questions`, videoTitle, n, d)
}
