// Package textfold builds the case- and diacritic-insensitive keys used by
// history search.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips combining marks and applies Unicode case folding, so "Café"
// and "CAFE" fold to the same key.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// Contains reports whether needle occurs in haystack after folding both.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// LikeEscape is the escape character LikePattern uses.
const LikeEscape = "!"

// LikePattern returns a SQL LIKE pattern matching any key that contains the
// folded query. Use with ESCAPE '!'.
func LikePattern(query string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + r.Replace(Fold(query)) + "%"
}
