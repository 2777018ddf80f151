package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a product name for comparison.
// Runes that are not letters, numbers or '_' become spaces, the text is
// lowercased, whitespace runs collapse to a single space and the ends are trimmed.
// The result is stable under repeated application.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := norm.NFKC.String(text)
	s = strings.ToLower(s)
	s = norm.NFKC.String(s)

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			return r
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// NormalizeAll normalizes every entry of texts into a new slice
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}
