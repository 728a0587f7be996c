package study

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_study/internal/engine"
)

var (
	// ErrUnparseable is returned when no repair stage yields a JSON array.
	ErrUnparseable  = errors.New("llm output is not a JSON array")
	errNoValidItems = errors.New("no valid items in llm output")
)

var fenceRe = regexp.MustCompile("```(?:json|JSON)?")

// repairStages run cumulatively. A strict parse is attempted after each one.
var repairStages = []struct {
	name string
	fn   func(string) string
}{
	{"strip_fences", stripFences},
	{"trim_to_array", trimToArray},
	{"trailing_commas", removeTrailingCommas},
	{"bare_keys", quoteBareKeys},
	{"normalize_strings", normalizeStrings},
}

// ParseArray recovers a JSON array from raw model output. Elements are
// returned undecoded so a malformed one can be dropped without losing the rest.
func ParseArray(raw string) ([]json.RawMessage, error) {
	s := raw
	for _, stage := range repairStages {
		s = stage.fn(s)
		var out []json.RawMessage
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			slog.Debug("llm json parsed", slog.String("stage", stage.name), slog.Int("items", len(out)))
			return out, nil
		}
	}
	return nil, ErrUnparseable
}

func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(engine.StripFences(s), ""))
}

// trimToArray keeps the span from the first '[' to the last ']'.
func trimToArray(s string) string {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return s
	}
	end := strings.LastIndexByte(s, ']')
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

// scanner walks s tracking whether the cursor is inside a quoted string.
// Both quote styles count since the later stages see single-quoted JSON.
type scanner struct {
	s     string
	i     int
	quote byte // 0 outside strings
}

func (sc *scanner) step(b *strings.Builder) {
	c := sc.s[sc.i]
	b.WriteByte(c)
	sc.i++
	switch {
	case sc.quote != 0 && c == '\\' && sc.i < len(sc.s):
		b.WriteByte(sc.s[sc.i])
		sc.i++
	case sc.quote != 0 && c == sc.quote:
		sc.quote = 0
	case sc.quote == 0 && (c == '"' || c == '\''):
		sc.quote = c
	}
}

func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	sc := &scanner{s: s}
	for sc.i < len(s) {
		if sc.quote == 0 && s[sc.i] == ',' {
			j := sc.i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				sc.i++
				continue
			}
		}
		sc.step(&b)
	}
	return b.String()
}

func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	sc := &scanner{s: s}
	var prev byte // last non-space byte written outside strings
	for sc.i < len(s) {
		c := s[sc.i]
		if sc.quote == 0 && isIdentStart(c) && (prev == '{' || prev == ',') {
			j := sc.i
			for j < len(s) && isIdent(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[sc.i:j])
				b.WriteByte('"')
				sc.i = j
				prev = '"'
				continue
			}
		}
		if sc.quote == 0 && !isSpace(c) {
			prev = c
		}
		sc.step(&b)
	}
	return b.String()
}

var smartQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
	`\n`, " ",
)

// normalizeStrings converts typographic quotes, rewrites single-quoted
// strings as double-quoted ones and replaces raw control characters inside
// strings with spaces.
func normalizeStrings(s string) string {
	s = smartQuotes.Replace(s)
	var b strings.Builder
	b.Grow(len(s) + 16)
	inDouble := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inDouble && c == '\\' && i+1 < len(s):
			b.WriteByte(c)
			i++
			b.WriteByte(s[i])
		case inDouble && c == '"':
			inDouble = false
			b.WriteByte(c)
		case inDouble && (c == '\n' || c == '\r' || c == '\t'):
			b.WriteByte(' ')
		case c == '"':
			inDouble = true
			b.WriteByte(c)
		case c == '\'':
			i = writeSingleQuoted(&b, s, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// writeSingleQuoted re-emits the single-quoted string starting at s[start]
// with double quotes and returns the index of its closing quote.
func writeSingleQuoted(b *strings.Builder, s string, start int) int {
	b.WriteByte('"')
	i := start + 1
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(s):
			b.WriteByte(c)
			i++
			b.WriteByte(s[i])
		case c == '\'':
			b.WriteByte('"')
			return i
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n' || c == '\r' || c == '\t':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return i
}

func isSpace(c byte) bool { return c == ' ' || c == '\n' || c == '\r' || c == '\t' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }
