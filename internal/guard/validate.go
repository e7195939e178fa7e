package guard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Outcome codes for configuration validation failures.
const (
	CodeEmpty     = "EMPTY"
	CodeTooLarge  = "TOO_LARGE"
	CodeMalformed = "MALFORMED"
	CodeTooDeep   = "TOO_DEEP"
	CodeUnsafe    = "UNSAFE_CONTENT"
)

// Outcome is the result of validating untrusted configuration input.
type Outcome struct {
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func reject(code, message string) Outcome {
	return Outcome{Code: code, Message: message}
}

// DefaultDenylist covers the usual script-injection markers. The deployed
// list comes from configuration; this is the fallback.
var DefaultDenylist = []string{
	"<script",
	"</script",
	"javascript:",
	"vbscript:",
	"onerror=",
	"onload=",
	"onclick=",
	"eval(",
	"expression(",
	"document.cookie",
}

// Guard validates and sanitizes untrusted input before it reaches the
// generation layer. It holds only read-only configuration and is safe for
// concurrent use.
type Guard struct {
	maxTextLength  int
	maxConfigBytes int
	maxJSONDepth   int
	denylist       []string
}

// New builds a Guard. Non-positive ceilings fall back to defaults; a nil
// denylist falls back to DefaultDenylist.
func New(maxTextLength, maxConfigBytes, maxJSONDepth int, denylist []string) *Guard {
	if maxTextLength <= 0 {
		maxTextLength = DefaultMaxTextLength
	}
	if maxConfigBytes <= 0 {
		maxConfigBytes = 64 * 1024
	}
	if maxJSONDepth <= 0 {
		maxJSONDepth = 10
	}
	if denylist == nil {
		denylist = DefaultDenylist
	}
	lowered := make([]string, len(denylist))
	for i, p := range denylist {
		lowered[i] = strings.ToLower(p)
	}
	return &Guard{
		maxTextLength:  maxTextLength,
		maxConfigBytes: maxConfigBytes,
		maxJSONDepth:   maxJSONDepth,
		denylist:       lowered,
	}
}

// SanitizeText escapes dangerous characters and truncates to the
// configured maximum length.
func (g *Guard) SanitizeText(s string) string {
	return SanitizeText(s, g.maxTextLength)
}

// MaxConfigBytes exposes the size ceiling so the boundary can cap request
// bodies before buffering them.
func (g *Guard) MaxConfigBytes() int { return g.maxConfigBytes }

// ValidateConfigInput checks untrusted configuration JSON. Checks run
// cheapest first: size, then structure, then depth, then content patterns.
func (g *Guard) ValidateConfigInput(data []byte) Outcome {
	if len(data) == 0 {
		return reject(CodeEmpty, "configuration input is empty")
	}
	if len(data) > g.maxConfigBytes {
		return reject(CodeTooLarge, fmt.Sprintf("configuration exceeds %d bytes", g.maxConfigBytes))
	}
	depth, err := jsonDepth(data)
	if err != nil {
		return reject(CodeMalformed, "configuration is not valid JSON")
	}
	if depth > g.maxJSONDepth {
		return reject(CodeTooDeep, fmt.Sprintf("JSON nesting exceeds depth %d", g.maxJSONDepth))
	}
	lowered := strings.ToLower(string(data))
	for _, pattern := range g.denylist {
		if strings.Contains(lowered, pattern) {
			return reject(CodeUnsafe, "configuration contains disallowed content")
		}
	}
	return Outcome{Valid: true}
}

// jsonDepth walks the token stream and reports the maximum nesting depth,
// or an error for malformed input.
func jsonDepth(data []byte) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth, maxDepth := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
			case '}', ']':
				depth--
			}
		}
	}
	if depth != 0 {
		return 0, fmt.Errorf("unbalanced JSON")
	}
	return maxDepth, nil
}
