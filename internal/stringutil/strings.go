// Package stringutil provides common string manipulation utilities.
package stringutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s case-folded with combining accents removed, so "Español",
// "ESPANOL" and "español" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	// Casers carry state and are not shared between goroutines
	return cases.Fold().String(stripped)
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Tokenize splits s into folded word tokens (letters and digits only).
//
// Example:
//
//	Tokenize("Préparation TestDaF, niveau B2") returns [preparation testdaf niveau b2]
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
