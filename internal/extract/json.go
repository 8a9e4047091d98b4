package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeBlockRe     = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*(.*?)\\s*```$")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// DecodeLenient unmarshals model output into v. Strict decoding is tried
// first; on failure the text is run through CleanJSON and decoded again.
// The returned error is from the second attempt.
func DecodeLenient(raw string, v any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), v); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(CleanJSON(raw)), v)
}

// CleanJSON repairs common defects in model JSON: markdown fences, prose
// around the payload, raw control characters and trailing commas.
func CleanJSON(raw string) string {
	s := stripCodeBlock(raw)
	s = outermost(s)
	s = escapeControl(s)
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// outermost cuts s to the span from the first opening brace or bracket to
// the last matching closer.
func outermost(s string) string {
	open := strings.IndexAny(s, "{[")
	if open < 0 {
		return s
	}
	closer := byte('}')
	if s[open] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < open {
		return s[open:]
	}
	return s[open : end+1]
}

// escapeControl escapes newlines and tabs that appear inside string
// literals and drops every other control character.
func escapeControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			case c == '\n':
				b.WriteString(`\n`)
				continue
			case c == '\r':
				b.WriteString(`\r`)
				continue
			case c == '\t':
				b.WriteString(`\t`)
				continue
			case c < 0x20:
				continue
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		} else if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
