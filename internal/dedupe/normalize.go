// Package dedupe implements duplicate detection and record merging for
// candidate sponsor companies.
package dedupe

import "strings"

// Normalize canonicalizes a company name for comparison: lower-case and trim
// whitespace only. Punctuation, diacritics, and legal suffixes ("Inc.",
// "Ltd.") are deliberately left in place; downstream matching relies on
// containment rather than equality, which is what lets "Check Point" still
// match "Check Point Software Technologies Ltd".
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NamesMatch reports whether two company names refer to the same company:
// true iff one normalized name contains the other. This is intentionally
// permissive — it catches "Palo Alto Networks" inside "Palo Alto Networks
// Inc" at the cost of false positives for short names that are substrings of
// unrelated longer names. Known tradeoff, kept on purpose.
//
// Empty names never match anything.
func NamesMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
