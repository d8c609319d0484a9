// Package regex runs delimited regular expressions ("/pattern/flags") and
// reports every failure as an error instead of a silent false.
//
// Patterns are compiled with Go's RE2 engine, so backreferences and
// lookaround in the pattern body are rejected as *PatternError.
//
// Supported flags:
//
//	i  case-insensitive
//	m  ^ and $ match at line boundaries
//	s  . matches newlines
//	U  swap greedy and lazy quantifiers
//	u  subject and replacement must be valid UTF-8
//
// The x (extended) flag is not supported.
package regex

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// ErrMalformedUTF8 is returned when a pattern carries the u flag and the
// subject or replacement is not valid UTF-8.
var ErrMalformedUTF8 = errors.New("malformed UTF-8 data")

// PatternError reports a pattern that could not be parsed or compiled.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

type compiled struct {
	re   *regexp.Regexp
	utf8 bool
}

var cache sync.Map // pattern string -> *compiled

var closingDelimiters = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
	'<': '>',
}

func compile(pattern string) (*compiled, error) {
	if c, ok := cache.Load(pattern); ok {
		return c.(*compiled), nil
	}

	c, err := parse(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	actual, _ := cache.LoadOrStore(pattern, c)
	return actual.(*compiled), nil
}

func parse(pattern string) (*compiled, error) {
	trimmed := strings.TrimLeft(pattern, " \t\r\n\v\f")
	if trimmed == "" {
		return nil, errors.New("empty pattern")
	}

	start := trimmed[0]
	if isAlnum(start) || start == '\\' {
		return nil, errors.New("delimiter must not be alphanumeric or backslash")
	}

	end := start
	if closing, ok := closingDelimiters[start]; ok {
		end = closing
	}

	closeAt := findClosingDelimiter(trimmed, start, end)
	if closeAt < 0 {
		return nil, fmt.Errorf("no ending delimiter %q found", end)
	}
	body := trimmed[1:closeAt]
	modifiers := trimmed[closeAt+1:]

	var flags strings.Builder
	c := &compiled{}
	for i := 0; i < len(modifiers); i++ {
		switch m := modifiers[i]; m {
		case 'i', 'm', 's', 'U':
			flags.WriteByte(m)
		case 'u':
			c.utf8 = true
		case '\n', '\r', ' ':
		case 'x':
			return nil, errors.New("extended mode (x) is not supported")
		default:
			return nil, fmt.Errorf("unknown modifier %q", m)
		}
	}

	expr := body
	if flags.Len() > 0 {
		expr = "(?" + flags.String() + ")" + body
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	c.re = re

	return c, nil
}

// findClosingDelimiter returns the index of the first unescaped end
// delimiter. Bracket-style delimiters may nest.
func findClosingDelimiter(pattern string, start, end byte) int {
	depth := 1
	for i := 1; i < len(pattern); i++ {
		switch ch := pattern[i]; {
		case ch == '\\':
			i++
		case ch == end:
			depth--
			if start == end || depth == 0 {
				return i
			}
		case ch == start:
			depth++
		}
	}
	return -1
}

func isAlnum(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func (c *compiled) checkUTF8(values ...string) error {
	if !c.utf8 {
		return nil
	}
	for _, v := range values {
		if !utf8.ValidString(v) {
			return ErrMalformedUTF8
		}
	}
	return nil
}

// Match reports whether subject matches pattern and returns the full match
// followed by the capture groups of the leftmost match.
func Match(pattern, subject string) ([]string, bool, error) {
	c, err := compile(pattern)
	if err != nil {
		return nil, false, err
	}
	if err := c.checkUTF8(subject); err != nil {
		return nil, false, err
	}

	m := c.re.FindStringSubmatch(subject)
	return m, m != nil, nil
}

// MatchAll returns every non-overlapping match with its capture groups.
func MatchAll(pattern, subject string) ([][]string, error) {
	c, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	if err := c.checkUTF8(subject); err != nil {
		return nil, err
	}

	return c.re.FindAllStringSubmatch(subject, -1), nil
}

// Replace replaces every match of pattern in subject. The replacement may
// refer to capture groups as $1, ${1} or \1; $0 and \0 insert the whole
// match.
func Replace(pattern, replacement, subject string) (string, error) {
	c, err := compile(pattern)
	if err != nil {
		return "", err
	}
	if err := c.checkUTF8(subject, replacement); err != nil {
		return "", err
	}

	return c.re.ReplaceAllString(subject, expandTemplate(replacement)), nil
}

// Split splits subject around matches of pattern.
func Split(pattern, subject string) ([]string, error) {
	c, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	if err := c.checkUTF8(subject); err != nil {
		return nil, err
	}

	return c.re.Split(subject, -1), nil
}

// expandTemplate rewrites numeric references into regexp template syntax
// and escapes every other dollar sign.
func expandTemplate(replacement string) string {
	var b strings.Builder
	b.Grow(len(replacement))

	for i := 0; i < len(replacement); i++ {
		ch := replacement[i]

		if ch == '\\' && i+1 < len(replacement) {
			if n, width := leadingDigits(replacement[i+1:]); width > 0 {
				b.WriteString("${" + n + "}")
				i += width
				continue
			}
			if replacement[i+1] == '\\' {
				b.WriteByte('\\')
				i++
				continue
			}
		}

		if ch == '$' {
			rest := replacement[i+1:]
			if n, width := leadingDigits(rest); width > 0 {
				b.WriteString("${" + n + "}")
				i += width
				continue
			}
			if strings.HasPrefix(rest, "{") {
				if closeIdx := strings.IndexByte(rest, '}'); closeIdx > 1 {
					if n, width := leadingDigits(rest[1:closeIdx]); width == closeIdx-1 {
						b.WriteString("${" + n + "}")
						i += closeIdx + 1
						continue
					}
				}
			}
			b.WriteString("$$")
			continue
		}

		b.WriteByte(ch)
	}

	return b.String()
}

// leadingDigits returns up to two leading decimal digits of s.
func leadingDigits(s string) (string, int) {
	width := 0
	for width < len(s) && width < 2 && '0' <= s[width] && s[width] <= '9' {
		width++
	}
	return s[:width], width
}
