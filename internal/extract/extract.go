// Package extract pulls a single JSON value out of free-form model output and
// checks it against the shape a caller expects.
//
// The accepted grammar is: optional prose, an optional ``` or ```json fence,
// then exactly one top-level JSON object or array. The value is located by
// scanning for balanced brackets while respecting string literals and
// escapes, so braces inside strings do not confuse it.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extraction is the tagged result of JSON. Value is set only when Valid is
// true; Reason explains why extraction failed otherwise.
type Extraction struct {
	Valid  bool
	Value  json.RawMessage
	Reason string
}

func malformed(format string, args ...any) Extraction {
	return Extraction{Reason: fmt.Sprintf(format, args...)}
}

// JSON extracts the single top-level JSON value from raw. It never panics.
func JSON(raw string) Extraction {
	text := strings.TrimSpace(raw)
	if text == "" {
		return malformed("empty response")
	}

	if body, ok := fencedBody(text); ok {
		text = body
	}

	if strings.IndexAny(text, "{[") < 0 {
		return malformed("no JSON object or array found (snippet: %s)", Snippet(raw))
	}

	start, end, failure := firstValue(text)
	if start < 0 {
		return failure
	}

	if extra := secondValue(text[end:]); extra != "" {
		return malformed("multiple top-level JSON values (second: %s)", Snippet(extra))
	}

	return Extraction{Valid: true, Value: json.RawMessage(text[start:end])}
}

// firstValue returns the bounds of the first bracketed span in text that is
// valid JSON. Balanced spans that fail to parse are skipped whole; an
// unbalanced opener is skipped by one byte. When nothing parses, start is -1
// and the failure describes the first candidate.
func firstValue(text string) (int, int, Extraction) {
	var failure Extraction
	for offset := 0; offset < len(text); {
		idx := strings.IndexAny(text[offset:], "{[")
		if idx < 0 {
			break
		}
		start := offset + idx

		end, ok := scanValue(text, start)
		if !ok {
			if failure.Reason == "" {
				failure = malformed("unterminated JSON value (snippet: %s)", Snippet(text[start:]))
			}
			offset = start + 1
			continue
		}

		candidate := text[start:end]
		var value any
		if err := json.Unmarshal([]byte(candidate), &value); err != nil {
			if failure.Reason == "" {
				failure = malformed("malformed JSON: %v (snippet: %s)", err, Snippet(candidate))
			}
			offset = end
			continue
		}
		return start, end, Extraction{}
	}
	return -1, -1, failure
}

// fencedBody returns the contents of the first ``` fence in text, dropping
// an optional language tag on the opening line.
func fencedBody(text string) (string, bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", false
	}
	rest := text[open+3:]

	// Language tag runs to the end of the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isLanguageTag(tag) {
			rest = rest[nl+1:]
		}
	} else if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
		rest = rest[4:]
	}

	closing := strings.Index(rest, "```")
	if closing < 0 {
		// Unclosed fence: models sometimes stop before the closing marker.
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:closing]), true
}

func isLanguageTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// scanValue returns the index just past the bracketed value opening at
// text[start]. The boolean is false when the brackets never balance.
func scanValue(text string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// secondValue reports a further well-formed JSON object or array in rest.
// Stray brackets in trailing prose that do not form valid JSON are ignored.
func secondValue(rest string) string {
	for offset := 0; offset < len(rest); {
		idx := strings.IndexAny(rest[offset:], "{[")
		if idx < 0 {
			return ""
		}
		start := offset + idx
		end, ok := scanValue(rest, start)
		if !ok {
			return ""
		}
		candidate := rest[start:end]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
		offset = end
	}
	return ""
}

// Snippet returns a single-line, length-limited preview of content for logs
// and failure reasons.
func Snippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

// Unfence returns the body of the first code fence in raw, or raw trimmed
// when it has none.
func Unfence(raw string) string {
	text := strings.TrimSpace(raw)
	if body, ok := fencedBody(text); ok {
		return body
	}
	return text
}
