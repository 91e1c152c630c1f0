// Package llmjson pulls a JSON value out of free-form model output.
//
// Framing is lenient: the payload may sit inside a ```json fence or be the
// whole text. Content is strict: it must decode into the target type.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Extract returns the body of the first ```json fence, or raw when there is none.
func Extract(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// Parse decodes the JSON payload of raw into T. The bool is false when the
// payload is empty, malformed, null, followed by other text, or does not fit T.
func Parse[T any](raw string) (T, bool) {
	var out T

	candidate := strings.TrimSpace(Extract(raw))
	if candidate == "" || candidate == "null" {
		return out, false
	}

	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// ParseOr is Parse with a caller-supplied fallback.
func ParseOr[T any](raw string, fallback T) T {
	if v, ok := Parse[T](raw); ok {
		return v
	}
	return fallback
}
