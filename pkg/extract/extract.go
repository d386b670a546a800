// Package extract turns free-text model output into structured data.
//
// Models frequently wrap JSON answers in fenced code blocks despite being
// told not to. Extract strips the fence; ParseJSON then attempts a strict
// parse. Callers are expected to treat a ParseError as a degraded stage,
// log it and continue - one stage's malformed output must not abort stages
// that do not depend on it.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract strips a fenced code block and enclosing backticks from raw
// model output and trims whitespace.
//
// The fence may carry a language tag ("```json"). Only one enclosing
// fence is recognized; inner fences are payload. Extract is idempotent:
// stripping an already-clean string is a no-op.
//
// Returns ok=false when raw is empty or whitespace-only, which signals
// "nothing to parse" upstream - distinct from a parse failure.
func Extract(raw string) (string, bool) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", false
	}

	if strings.HasPrefix(content, "```") {
		// Drop the opening fence line, with or without a language tag.
		if idx := strings.IndexByte(content, '\n'); idx >= 0 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```")
		}
		content = strings.TrimSuffix(strings.TrimRight(content, " \t\n"), "```")
		content = strings.TrimSpace(content)
		content = strings.Trim(content, "`")
		content = strings.TrimSpace(content)
	}

	if content == "" {
		return "", false
	}
	return content, true
}

// ParseError reports model output that could not be parsed as the
// expected structure. Raw carries the original text for diagnostics.
type ParseError struct {
	// Raw is the unmodified model output.
	Raw string
	// Err is the underlying parse failure.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseJSON extracts the JSON payload from raw model output and
// unmarshals it into v.
//
// The parse is strict: after fence stripping, the whole remaining string
// must be valid JSON (the one documented fallback is exactly that - the
// trimmed string is treated as the payload; no substring search is
// attempted). Failures return a *ParseError carrying raw.
func ParseJSON(raw string, v any) error {
	candidate, ok := Extract(raw)
	if !ok {
		return &ParseError{Raw: raw, Err: fmt.Errorf("empty response")}
	}

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}

// TruncateLines returns at most the first n newline-separated lines of s.
// Truncation is by line count, never by characters or sentences; the
// clinical notes have a hard brevity cap expressed in lines.
func TruncateLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}
