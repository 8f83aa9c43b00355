// Package extract recovers structured data from free-form AI completion
// text. Upstream models wrap JSON in prose or markdown fences, embed raw
// control characters inside string values, and sometimes emit near-JSON
// (JSON5) output, so parsing is layered: locate a candidate span, try it
// verbatim, then progressively relax. Sanitizing never happens before the
// exact text has been attempted, to avoid corrupting valid payloads.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/titanous/json5"

	"quali-backend/internal/shared/telemetry"
)

var (
	// ErrNoData means the text contains no JSON-like span at all.
	ErrNoData = errors.New("no structured data found")
	// ErrParseFailed means a candidate span was found but could not be
	// parsed by any tier. Callers must treat this as recoverable.
	ErrParseFailed = errors.New("structured data parse failed")
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json5?|JSON)\\s*\\n?(.*?)```")

// JSON extracts the first structured value from raw and returns it as
// strict JSON bytes. The result is always valid JSON on success.
func JSON(raw string) (json.RawMessage, error) {
	candidate, ok := candidateSpan(raw)
	if !ok {
		return nil, ErrNoData
	}

	candidate = escapeNewlinesInStrings(candidate)

	if json.Valid([]byte(candidate)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(candidate)); err == nil {
			return json.RawMessage(buf.Bytes()), nil
		}
	}

	if out, err := lenient(candidate); err == nil {
		return out, nil
	}

	sanitized := escapeNewlinesInStrings(stripControl(candidate))
	if out, err := lenient(sanitized); err == nil {
		return out, nil
	}

	telemetry.Error("extract.parse_failed", map[string]any{
		"raw": raw,
	})
	return nil, ErrParseFailed
}

// Into extracts structured data from raw and unmarshals it into v.
func Into(raw string, v any) error {
	data, err := JSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ErrParseFailed
	}
	return nil
}

// candidateSpan picks the candidate text to parse: a fenced block labeled
// as JSON wins; otherwise the first greedy top-level {...} or [...] span.
func candidateSpan(raw string) (string, bool) {
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner, true
		}
	}

	objStart := strings.IndexByte(raw, '{')
	arrStart := strings.IndexByte(raw, '[')
	start, closer := -1, byte('}')
	switch {
	case objStart >= 0 && (arrStart < 0 || objStart < arrStart):
		start = objStart
	case arrStart >= 0:
		start, closer = arrStart, ']'
	}
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(raw, closer)
	if end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func lenient(candidate string) (json.RawMessage, error) {
	var v any
	if err := json5.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

// escapeNewlinesInStrings replaces literal line breaks appearing inside
// quoted string literals with escaped sequences. Models routinely emit
// multi-line values as raw newlines, which strict JSON rejects.
func escapeNewlinesInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	var quote rune
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteRune(r)
				continue
			case r == '\\':
				escaped = true
				b.WriteRune(r)
				continue
			case r == quote:
				inString = false
				b.WriteRune(r)
				continue
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			}
			b.WriteRune(r)
			continue
		}
		if r == '"' || r == '\'' {
			inString = true
			quote = r
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripControl drops control characters other than plain whitespace.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
