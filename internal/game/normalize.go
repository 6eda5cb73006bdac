package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeGuess trims, strips diacritics and case-folds a word so that a
// Silent Impostor guess of "cafe" matches "Café".
func NormalizeGuess(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(cases.Fold().String(out)), " ")
}

// guessMatches reports whether a non-blank guess equals the word after normalization.
func guessMatches(guess, word string) bool {
	g := NormalizeGuess(guess)
	return g != "" && g == NormalizeGuess(word)
}
