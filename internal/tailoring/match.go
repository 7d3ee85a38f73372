package tailoring

import (
	"strings"
	"unicode/utf8"
)

// shortTermLen is the longest term that only matches on word boundaries.
const shortTermLen = 2

// containsTerm reports whether term occurs in text. Both are expected to be
// lower-cased. Terms of at most shortTermLen bytes ("r", "ai", "c#") must not
// be surrounded by word characters.
func containsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	if len(term) > shortTermLen {
		return strings.Contains(text, term)
	}

	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(term)
		if !isWordByte(text, start-1) && !isWordByte(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

// overlaps reports whether either string contains the other.
func overlaps(a, b string) bool {
	return containsTerm(a, b) || containsTerm(b, a)
}

func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		return true
	case c >= utf8.RuneSelf:
		return true
	}
	return false
}

func containsAnyTerm(text string, terms []string) bool {
	for _, term := range terms {
		if overlaps(text, term) {
			return true
		}
	}
	return false
}
