package standardize

import (
	"regexp"
	"strings"
)

// DateParts holds the decomposed components of a possibly-partial date.
// Absent components are empty strings.
type DateParts struct {
	Year  string
	Month string
	Day   string
}

var (
	yearRe  = regexp.MustCompile(`^\d{4}$`)
	monthRe = regexp.MustCompile(`^\d{1,2}$`)
)

// SplitDate decomposes "2026-01-16" into {"2026","01","16"}. Partial dates
// keep what they have: "2025-12" -> {"2025","12",""}, "2025" -> {"2025","",""}.
// Anything unparseable yields all-empty parts; partial information is never
// an error.
func SplitDate(dateStr string) DateParts {
	cleaned := strings.TrimSpace(dateStr)
	if cleaned == "" {
		return DateParts{}
	}
	parts := strings.Split(cleaned, "-")
	var out DateParts
	if !yearRe.MatchString(strings.TrimSpace(parts[0])) {
		return DateParts{}
	}
	out.Year = strings.TrimSpace(parts[0])
	if len(parts) >= 2 {
		m := strings.TrimSpace(parts[1])
		if !monthRe.MatchString(m) {
			return DateParts{Year: out.Year}
		}
		out.Month = m
	}
	if len(parts) >= 3 {
		d := strings.TrimSpace(parts[2])
		if monthRe.MatchString(d) {
			out.Day = d
		}
	}
	return out
}
