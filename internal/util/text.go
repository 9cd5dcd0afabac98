package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiSpace = regexp.MustCompile(`\s+`)

// StripAccents removes combining marks (MONTERÍA -> MONTERIA, Ñ -> N).
func StripAccents(s string) string {
	// transformers carry state, so a fresh chain is built per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold trims, uppercases, strips accents and collapses inner whitespace.
// Two values are considered the same literal when their folds are equal.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = StripAccents(strings.ToUpper(s))
	return multiSpace.ReplaceAllString(s, " ")
}

// Ratio returns the difflib similarity of two strings over runes:
// 2*M/T, where M is the number of runes in matching blocks and T the
// total rune count. The score can depend on argument order, so each
// caller keeps a fixed order.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
