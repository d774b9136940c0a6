// Package header canonicalizes raw column labels and maps them onto the
// configured canonical field names.
package header

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const nbsp = "\u00a0"

// Normalize canonicalizes column labels: surrounding whitespace is trimmed,
// the label is lower-cased, non-breaking spaces become ordinary spaces and
// double spaces are collapsed in a single pass. Order is preserved and
// duplicate results are kept.
func Normalize(labels []string) []string {
	lower := cases.Lower(language.Und)
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = normalizeWith(lower, l)
	}
	return out
}

// NormalizeLabel normalizes a single label the same way Normalize does.
func NormalizeLabel(label string) string {
	return normalizeWith(cases.Lower(language.Und), label)
}

func normalizeWith(lower cases.Caser, s string) string {
	s = strings.TrimSpace(s)
	s = lower.String(s)
	s = strings.ReplaceAll(s, nbsp, " ")
	return strings.ReplaceAll(s, "  ", " ")
}
