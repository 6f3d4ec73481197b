// Package llmtext extracts structured payloads from untrusted model output.
//
// Completion services wrap JSON in prose, markdown fences, or preambles.
// FirstObject locates the first balanced {...} span and callers branch on the
// ok flag; a missing or malformed payload is a service failure, never a crash.
package llmtext

import "encoding/json"

// FirstObject returns the first balanced top-level JSON object in text.
// Braces inside string literals (including escaped quotes) are ignored.
// Returns ok=false when no balanced span exists or the span is not valid JSON.
func FirstObject(text string) (json.RawMessage, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				span := text[start : i+1]
				if json.Valid([]byte(span)) {
					return json.RawMessage(span), true
				}
				// Keep scanning: a later span may still be well-formed.
				start = -1
			}
		}
	}

	return nil, false
}

// DecodeFirst extracts the first balanced object and unmarshals it into v.
func DecodeFirst(text string, v any) bool {
	raw, ok := FirstObject(text)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
