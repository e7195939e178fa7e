package guard

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxTextLength caps sanitized text when no override is configured.
const DefaultMaxTextLength = 1000

// SanitizeHTML strips all markup from the input, leaving plain text.
// Unterminated tags swallow the remainder of the string.
func SanitizeHTML(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#47;",
)

// SanitizeText HTML-escapes the dangerous characters and truncates the
// result to maxLen runes. Truncation happens after escaping, always.
func SanitizeText(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}
	escaped := textEscaper.Replace(s)
	if utf8.RuneCountInString(escaped) <= maxLen {
		return escaped
	}
	runes := []rune(escaped)
	return string(runes[:maxLen])
}

// Reserved Windows device stems. A file named CON.txt is still CON.
var reservedFileNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// IsValidFileName accepts only names built from letters, digits, '.', '-'
// and '_'. Path separators, empty names, and reserved device names (with
// or without extension) are rejected.
func IsValidFileName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		default:
			return false
		}
	}
	stem := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		stem = name[:i]
	}
	if _, reserved := reservedFileNames[strings.ToUpper(stem)]; reserved {
		return false
	}
	return true
}
