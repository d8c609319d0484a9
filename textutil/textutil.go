// Package textutil holds Unicode-aware string helpers.
package textutil

import (
	"strings"
	"unicode"
)

// Trim removes leading and trailing whitespace as defined by Unicode, plus
// the invisible separators U+180E, U+200B and U+FEFF that commonly survive
// copy and paste.
func Trim(s string) string {
	return strings.TrimFunc(s, isTrimmable)
}

// TrimPtr is Trim for optional values. A nil pointer yields "".
func TrimPtr(s *string) string {
	if s == nil {
		return ""
	}
	return Trim(*s)
}

func isTrimmable(r rune) bool {
	switch r {
	case '\u180E', '\u200B', '\uFEFF':
		return true
	}
	return unicode.IsSpace(r)
}
