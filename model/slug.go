package model

import (
	"strings"
	"unicode"
)

// NormalizeSlug lowercases s and folds it to kebab-case using ASCII-aware
// rules. Whitespace and underscores become single dashes, any other
// character outside [a-z0-9-] is dropped, and leading or trailing dashes
// are trimmed.
func NormalizeSlug(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
			lastDash = false

		case r < unicode.MaxASCII && unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false

		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
