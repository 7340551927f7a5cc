// Package textsim implements the token-overlap similarity heuristic used to
// judge whether a fetched page supports the answer that cites it. It is
// deliberately lexical, not semantic.
package textsim

import (
	"strings"
	"unicode"
)

// minTokenLen drops short stopword-like tokens ("a", "of", "is") that would
// otherwise dominate the overlap.
const minTokenLen = 3

// Jaccard returns the Jaccard coefficient over the token sets of two texts,
// in [0,1]. It is symmetric, and reflexive for any text with at least one
// usable token. Either side empty scores 0.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if setB[token] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// tokenSet lowercases the text, replaces every character that is neither a
// word character nor whitespace with a space, splits on whitespace, and keeps
// tokens of at least minTokenLen runes. Duplicates collapse.
func tokenSet(text string) map[string]bool {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if isWordRune(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	set := make(map[string]bool)
	for _, token := range strings.Fields(sb.String()) {
		if len([]rune(token)) >= minTokenLen {
			set[token] = true
		}
	}
	return set
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
