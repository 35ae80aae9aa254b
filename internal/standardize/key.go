package standardize

import (
	"regexp"
	"strings"
)

var separatorRun = regexp.MustCompile(`[-_\s]+`)

// foldKey lowers a raw value and folds hyphen/underscore/whitespace runs to a
// single underscore, so "MERS-CoV", "mers_cov" and "MERS COV" compare equal.
func foldKey(s string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// contains is substring containment on already-folded keys. Empty needles
// never match; a bare fold of "" would otherwise swallow everything.
func contains(haystack, needle string) bool {
	return needle != "" && haystack != "" && strings.Contains(haystack, needle)
}
