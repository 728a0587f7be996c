package study

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	programmingTerms = []string{"function", "variable", "method", "object", "array", "property", "event", "callback", "parameter", "return", "loop", "condition"}
	domTerms         = []string{"element", "selector", "attribute", "innerHTML", "textContent", "addEventListener", "querySelector", "getElementById"}
	jsFeatureTerms   = []string{"const", "let", "var", "arrow function", "template literal", "destructuring", "spread operator"}
	selectorMethods  = []string{"querySelector", "getElementById", "getElementsByClassName"}

	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	easyLeadRe      = regexp.MustCompile(`How does|What techniques|How are`)
	easyTailRe      = regexp.MustCompile(`are discussed|are covered|are demonstrated`)
)

type concept struct {
	question string
	answer   string
}

// containedTerms returns the vocabulary entries that occur anywhere in text,
// ignoring case, in vocabulary order.
func containedTerms(text string, vocab ...[]string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, list := range vocab {
		for _, term := range list {
			if strings.Contains(lower, strings.ToLower(term)) {
				out = append(out, term)
			}
		}
	}
	return out
}

func intersect(terms, allowed []string) []string {
	var out []string
	for _, t := range terms {
		for _, a := range allowed {
			if t == a {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func has(terms []string, term string) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}

func firstN(terms []string, n int) []string {
	if len(terms) > n {
		return terms[:n]
	}
	return terms
}

// mainTopic is the title up to the first '|', e.g. "DOM Crash Course | Traversy".
func mainTopic(title string) string {
	return strings.TrimSpace(strings.SplitN(title, "|", 2)[0])
}

func countSentences(transcript string) int {
	n := 0
	for _, s := range sentenceSplitRe.Split(transcript, -1) {
		if len(strings.TrimSpace(s)) > 20 {
			n++
		}
	}
	return n
}

// flashcardConcepts derives question/answer seeds from title and transcript.
func flashcardConcepts(title, transcript string) []concept {
	lowerTitle := strings.ToLower(title)
	terms := containedTerms(transcript, programmingTerms, domTerms, jsFeatureTerms)
	topic := mainTopic(title)
	var out []concept

	if strings.Contains(lowerTitle, "dom") {
		if has(terms, "element") {
			methods := strings.Join(intersect(terms, selectorMethods), ", ")
			if methods == "" {
				methods = "standard DOM selection methods"
			}
			out = append(out, concept{
				question: "What methods for DOM element selection are discussed in this video?",
				answer:   "Based on the video content, DOM element selection is performed using JavaScript methods like " + methods + ". The video demonstrates practical approaches to accessing HTML elements for manipulation.",
			})
		}
		if has(terms, "event") {
			out = append(out, concept{
				question: "How does the video explain DOM event handling?",
				answer:   "The video covers event handling in the DOM, showing how to respond to user interactions and browser events. This includes practical examples of attaching event listeners and managing event-driven functionality.",
			})
		}
		var manip strings.Builder
		if has(terms, "innerHTML") {
			manip.WriteString("innerHTML modification, ")
		}
		if has(terms, "textContent") {
			manip.WriteString("textContent updates, ")
		}
		out = append(out, concept{
			question: "What DOM manipulation techniques are demonstrated in this video?",
			answer:   "The video demonstrates practical DOM manipulation including " + manip.String() + "and dynamic element interaction techniques.",
		})
	}

	if strings.Contains(lowerTitle, "javascript") {
		var covers strings.Builder
		covers.WriteString("This video covers ")
		if features := intersect(terms, jsFeatureTerms); len(features) > 0 {
			covers.WriteString("modern JavaScript features including " + strings.Join(features, ", ") + ", along with ")
		}
		basics := strings.Join(firstN(intersect(terms, programmingTerms), 3), ", ")
		if basics == "" {
			basics = "core programming constructs"
		}
		covers.WriteString("fundamental programming concepts such as " + basics + ". The content focuses on practical implementation and real-world applications.")
		out = append(out, concept{
			question: "What JavaScript programming concepts are covered in this educational content?",
			answer:   covers.String(),
		})

		var fn strings.Builder
		if has(terms, "function") {
			fn.WriteString("functions, their creation and usage, ")
		}
		if has(terms, "method") {
			fn.WriteString("methods and their application, ")
		}
		out = append(out, concept{
			question: "How are JavaScript functions and methods explained in the video?",
			answer:   "The video provides detailed explanations of JavaScript " + fn.String() + "demonstrating practical programming techniques for effective code development.",
		})
	}

	approach := "structured instruction"
	if len(terms) > 3 {
		approach = "hands-on technical demonstrations"
	}
	out = append(out, concept{
		question: `What are the key learning objectives addressed in "` + topic + `"?`,
		answer: "This educational video addresses comprehensive learning objectives related to " + topic +
			". The content systematically builds understanding through " + approach +
			", providing both conceptual knowledge and practical application skills.",
	})

	techniques := strings.Join(firstN(terms, 4), ", ")
	if techniques == "" {
		techniques = "the core techniques of the lesson"
	}
	if len(terms) > 4 {
		techniques += " and other key concepts"
	}
	out = append(out, concept{
		question: "What practical implementation techniques are demonstrated in this video?",
		answer:   "The video demonstrates practical implementation using " + techniques + ". The instructional approach emphasizes real-world applications and hands-on coding examples.",
	})

	depth := "focused instruction"
	if countSentences(transcript) > 20 {
		depth = "comprehensive explanations"
	}
	out = append(out, concept{
		question: "How does this content support progressive skill development?",
		answer: "The video content is structured to support learners at different levels, from foundational concepts to advanced applications. It includes " +
			depth + " that build systematically on core principles in " + topic + ".",
	})
	return out
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}

// adjust rewrites a concept for the difficulty tier.
func (c concept) adjust(d Difficulty) concept {
	switch d {
	case Easy:
		q := replaceFirst(easyLeadRe, c.question, "What is")
		q = replaceFirst(easyTailRe, q, "mentioned in this video")
		a := strings.SplitN(c.answer, ".", 2)[0] + ". This basic concept is fundamental to understanding the topic."
		return concept{question: q, answer: a}
	case Hard:
		q := strings.Replace(c.question, "What", "Analyze how", 1)
		q = strings.Replace(q, "How does", "Critically evaluate how", 1)
		return concept{question: q, answer: c.answer + " This advanced concept requires synthesizing multiple related ideas and evaluating their interactions in complex scenarios."}
	default:
		q := c.question
		if !strings.Contains(q, "How") {
			q = strings.Replace(q, "What", "How does the video explain", 1)
		}
		return concept{question: q, answer: c.answer + " Understanding this concept requires applying the knowledge in practical scenarios."}
	}
}

// TemplateFlashcards builds exactly count flashcards without a model. Seeds
// are reused cyclically; reused ones carry a "(Question N)" suffix so every
// question text stays distinct.
func TemplateFlashcards(title, transcript string, count int, d Difficulty) []Flashcard {
	if count <= 0 {
		return nil
	}
	concepts := flashcardConcepts(title, transcript)
	out := make([]Flashcard, 0, count)
	for i := range count {
		c := concepts[i%len(concepts)].adjust(d)
		q := d.Tag() + " " + c.question
		if i >= len(concepts) {
			q += fmt.Sprintf(" (Question %d)", i+1)
		}
		out = append(out, Flashcard{Question: q, Answer: c.answer, Difficulty: d})
	}
	return out
}
