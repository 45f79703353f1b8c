// CLAUDE:SUMMARY Case folding and word-character classification used for term comparison and whole-word matching.
package dict

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// FoldCase applies Unicode full case folding ("Straße" and "STRASSE" compare equal).
// A Caser keeps state, so each call gets its own.
func FoldCase(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under full case folding.
func EqualFold(a, b string) bool {
	return FoldCase(a) == FoldCase(b)
}

// TrimTerm removes surrounding whitespace from a term or variant.
func TrimTerm(s string) string {
	return strings.TrimSpace(s)
}

// CleanVariants trims every variant and drops the empty ones.
func CleanVariants(variants []string) []string {
	return lo.FilterMap(variants, func(v string, _ int) (string, bool) {
		v = TrimTerm(v)
		return v, v != ""
	})
}

// isWordRune reports whether r counts as a word character for boundaries.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
