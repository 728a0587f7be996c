package study

import (
	"fmt"
	"strings"
)

var (
	quizProgrammingTerms = []string{"function", "variable", "method", "object", "array", "property", "event", "callback"}
	quizDOMTerms         = []string{"element", "selector", "attribute", "innerHTML", "textContent", "addEventListener", "querySelector"}
	quizJSTerms          = []string{"const", "let", "var", "arrow", "template", "destructuring", "spread"}
)

// wordTerms returns vocabulary entries that appear as whole words in text,
// ignoring case and surrounding punctuation.
func wordTerms(text string, vocab ...[]string) []string {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[strings.Trim(w, ".,;:!?()[]{}\"'`")] = true
	}
	var out []string
	for _, list := range vocab {
		for _, term := range list {
			if words[strings.ToLower(term)] {
				out = append(out, term)
			}
		}
	}
	return out
}

func domQuestions(topic string, terms []string, d Difficulty) []Question {
	switch d {
	case Easy:
		return []Question{
			{
				Question:      `According to "` + topic + `", what does DOM stand for?`,
				Options:       []string{"Document Object Model", "Data Object Management", "Direct Object Method", "Dynamic Object Module"},
				CorrectAnswer: "Document Object Model",
				Explanation:   "The video explains that DOM stands for Document Object Model, which is fundamental to understanding web page structure and manipulation.",
			},
			{
				Question:      "Based on the video content, what is the primary purpose of the DOM?",
				Options:       []string{"Managing databases", "Representing web page structure", "Processing images", "Handling network requests"},
				CorrectAnswer: "Representing web page structure",
				Explanation:   "The video demonstrates that the DOM represents the structure of web pages, allowing programs to interact with HTML elements.",
			},
		}
	case Medium:
		methods := "standard DOM selection techniques"
		if has(terms, "querySelector") {
			methods = "querySelector and getElementById"
		}
		return []Question{
			{
				Question:      "How does the video explain the process of DOM element selection?",
				Options:       []string{"Only through CSS", "Using JavaScript selection methods", "Directly editing HTML", "Through browser tools only"},
				CorrectAnswer: "Using JavaScript selection methods",
				Explanation:   "The video demonstrates practical JavaScript methods like " + methods + " for accessing elements.",
			},
			{
				Question:      "What relationship between JavaScript and DOM manipulation is shown in the video?",
				Options:       []string{"They are unrelated", "JavaScript can read and modify DOM elements", "Only CSS can modify DOM", "DOM cannot be changed"},
				CorrectAnswer: "JavaScript can read and modify DOM elements",
				Explanation:   "The video shows how JavaScript provides powerful capabilities for both reading from and writing to DOM elements dynamically.",
			},
		}
	default:
		return []Question{
			{
				Question:      "Analyze the DOM manipulation strategies discussed in the video - why would you choose event-driven approaches over direct manipulation?",
				Options:       []string{"Events are faster", "Events provide better user interaction and dynamic response", "Events use less memory", "Events are easier to code"},
				CorrectAnswer: "Events provide better user interaction and dynamic response",
				Explanation:   "The video demonstrates that event-driven DOM manipulation creates more interactive and responsive applications by reacting to user actions and system events.",
			},
			{
				Question:      "Evaluate the DOM concepts presented: How do selection methods, modification techniques, and event handling work together in real applications?",
				Options:       []string{"They work independently", "They create a comprehensive system for dynamic web interaction", "Only selection is important", "They replace HTML entirely"},
				CorrectAnswer: "They create a comprehensive system for dynamic web interaction",
				Explanation:   "The video shows how combining DOM selection, modification, and event handling creates powerful, interactive web applications with dynamic user experiences.",
			},
		}
	}
}

func jsQuestion(terms []string, d Difficulty) Question {
	switch d {
	case Easy:
		kind := "methods"
		if has(terms, "function") {
			kind = "functions"
		}
		return Question{
			Question:      "According to the video, what are JavaScript " + kind + " used for?",
			Options:       []string{"Only calculations", "Executing code and performing tasks", "Storing data only", "Styling web pages"},
			CorrectAnswer: "Executing code and performing tasks",
			Explanation:   "The video explains that JavaScript " + kind + " are fundamental building blocks for executing code and performing various programming tasks.",
		}
	case Medium:
		pair := "functions and methods"
		if len(terms) >= 2 {
			pair = strings.Join(terms[:2], " and ")
		}
		return Question{
			Question:      "How does the video demonstrate the relationship between JavaScript " + pair + "?",
			Options:       []string{"They are unrelated", "They work together to create functionality", "One replaces the other", "They are identical"},
			CorrectAnswer: "They work together to create functionality",
			Explanation:   "The video shows how different JavaScript concepts like " + pair + " complement each other to build comprehensive programming solutions.",
		}
	default:
		trio := "functions, objects, events"
		if len(terms) >= 3 {
			trio = strings.Join(terms[:3], ", ")
		}
		return Question{
			Question:      "Synthesize the JavaScript programming patterns shown in the video: How do " + trio + " combine to solve complex programming challenges?",
			Options:       []string{"They create simple scripts only", "They enable sophisticated programming architectures and problem-solving approaches", "They only handle basic operations", "They replace other programming languages"},
			CorrectAnswer: "They enable sophisticated programming architectures and problem-solving approaches",
			Explanation:   "The video demonstrates how advanced JavaScript concepts work synergistically to create robust, scalable solutions for complex programming challenges in modern web development.",
		}
	}
}

var genericQuiz = map[Difficulty]struct {
	prefix, complexity, wrong, correct, teaches, skill string
}{
	Easy: {
		"According to the video", "basic understanding of", "Surface-level information only",
		"Comprehensive educational content with practical examples", "introduces fundamental concepts clearly", "basic recall",
	},
	Medium: {
		"How does the video explain", "practical application of", "Theoretical concepts only",
		"Applied knowledge with real-world scenarios", "applies knowledge to practical scenarios", "conceptual understanding",
	},
	Hard: {
		"Analyze how the video demonstrates", "advanced synthesis of", "Theoretical concepts only",
		"Advanced integration of multiple complex concepts", "synthesizes complex relationships between advanced concepts", "analytical thinking",
	},
}

func genericQuestion(topic string, d Difficulty) Question {
	g := genericQuiz[d]
	return Question{
		Question:      fmt.Sprintf(`%s the %s concepts in "%s"?`, g.prefix, g.complexity, topic),
		Options:       []string{g.wrong, g.correct, "Entertainment content", "Historical information only"},
		CorrectAnswer: g.correct,
		Explanation:   fmt.Sprintf("The video provides %s-level instruction that %s to support comprehensive learning.", d, g.teaches),
	}
}

// TemplateQuiz builds exactly n questions without a model. Seeds are reused
// cyclically once exhausted, with a "(Question N)" suffix.
func TemplateQuiz(title, transcript string, n int, d Difficulty) []Question {
	if n <= 0 {
		return nil
	}
	lowerTitle := strings.ToLower(title)
	terms := wordTerms(transcript, quizProgrammingTerms, quizDOMTerms, quizJSTerms)
	topic := mainTopic(title)

	var seeds []Question
	if strings.Contains(lowerTitle, "dom") {
		seeds = append(seeds, domQuestions(topic, terms, d)...)
	}
	if strings.Contains(lowerTitle, "javascript") {
		seeds = append(seeds, jsQuestion(terms, d))
	}
	seeds = append(seeds, genericQuestion(topic, d))

	out := make([]Question, 0, n)
	for _, q := range firstNQuestions(seeds, n) {
		q.Question = d.Tag() + " " + q.Question
		out = append(out, q)
	}
	for len(out) < n {
		base := seeds[len(out)%len(seeds)]
		out = append(out, Question{
			Question:      fmt.Sprintf("%s %s (Question %d)", d.Tag(), base.Question, len(out)+1),
			Options:       append([]string(nil), base.Options...),
			CorrectAnswer: base.CorrectAnswer,
			Explanation:   base.Explanation + " This " + string(d) + "-level assessment evaluates " + genericQuiz[d].skill + " skills.",
		})
	}
	return out
}

func firstNQuestions(qs []Question, n int) []Question {
	if len(qs) > n {
		return qs[:n]
	}
	return qs
}
