// Package strings provides text normalization helpers shared by validators.
package strings

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics removes combining marks so "Mérida" and "Merida" compare equal.
func StripDiacritics(s string) string {
	out, _, err := transform.String(stripper, s)
	if err != nil {
		// The transform chain cannot fail on valid UTF-8; fall back to the input.
		return s
	}
	return out
}

// NormalizeLegalName canonicalizes a registered legal name for comparison:
// uppercase, diacritics stripped, runs of whitespace collapsed to single
// spaces, leading/trailing whitespace trimmed.
func NormalizeLegalName(s string) string {
	s = strings.ToUpper(StripDiacritics(s))
	return strings.Join(strings.Fields(s), " ")
}

// EqualFold reports whether two strings are equal after case and diacritic
// folding plus whitespace collapsing.
func EqualFold(a, b string) bool {
	return NormalizeLegalName(a) == NormalizeLegalName(b)
}
