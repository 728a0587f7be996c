package study

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	minQuestionRunes   = 11 // question must be longer than 10 characters
	minAnswerRunes     = 21 // answer must be longer than 20 characters
	optionsPerQuestion = 4
)

type llmFlashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type llmQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// decodeFlashcards keeps the elements that decode and validate. Difficulty
// is always the requested one, whatever the model wrote.
func decodeFlashcards(items []json.RawMessage, d Difficulty) []Flashcard {
	var out []Flashcard
	for _, raw := range items {
		var fc llmFlashcard
		if err := json.Unmarshal(raw, &fc); err != nil {
			continue
		}
		q, a := strings.TrimSpace(fc.Question), strings.TrimSpace(fc.Answer)
		if utf8.RuneCountInString(q) < minQuestionRunes || utf8.RuneCountInString(a) < minAnswerRunes {
			continue
		}
		out = append(out, Flashcard{Question: q, Answer: a, Difficulty: d})
	}
	return out
}

func decodeQuestions(items []json.RawMessage) []Question {
	var out []Question
	for _, raw := range items {
		var lq llmQuestion
		if err := json.Unmarshal(raw, &lq); err != nil {
			continue
		}
		if q, ok := validQuestion(lq); ok {
			out = append(out, q)
		}
	}
	return out
}

// validQuestion requires a real question, exactly four non-empty options, an
// explanation, and a correct answer that matches one option. A bare letter
// A-D is mapped to the option at that position.
func validQuestion(lq llmQuestion) (Question, bool) {
	q := Question{
		Question:    strings.TrimSpace(lq.Question),
		Explanation: strings.TrimSpace(lq.Explanation),
	}
	if utf8.RuneCountInString(q.Question) < minQuestionRunes || q.Explanation == "" {
		return Question{}, false
	}
	if len(lq.Options) != optionsPerQuestion {
		return Question{}, false
	}
	for _, opt := range lq.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return Question{}, false
		}
		q.Options = append(q.Options, opt)
	}

	correct := strings.TrimSpace(lq.CorrectAnswer)
	for _, opt := range q.Options {
		if opt == correct {
			q.CorrectAnswer = opt
			return q, true
		}
	}
	if idx, ok := letterIndex(correct); ok {
		q.CorrectAnswer = q.Options[idx]
		return q, true
	}
	return Question{}, false
}

// letterIndex reads answers like "B" or "b)" as an option position.
func letterIndex(s string) (int, bool) {
	s = strings.TrimRight(s, ").:")
	if len(s) != 1 {
		return 0, false
	}
	c := s[0] | 0x20
	if c < 'a' || c > 'd' {
		return 0, false
	}
	return int(c - 'a'), true
}
