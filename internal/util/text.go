package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	reSeparators = regexp.MustCompile(`[_-]`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// IsMissing reports whether a cell is empty or holds the stringified NaN left
// behind by spreadsheet exports.
func IsMissing(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "nan")
}

// IsAbsent is IsMissing plus the "-" placeholder.
func IsAbsent(value string) bool {
	return IsMissing(value) || strings.TrimSpace(value) == "-"
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(input string) string {
	// cases.Caser keeps state between calls; one per call keeps this goroutine safe.
	return cases.Title(language.English).String(input)
}

// FormatColumnName turns "PERSONAL_ZIP" or "personal-zip" into "Personal Zip".
func FormatColumnName(name string) string {
	s := reSeparators.ReplaceAllString(name, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return TitleCase(strings.TrimSpace(s))
}

// SplitList splits operator input like "vip, promo ,," into trimmed, non-empty parts.
func SplitList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitTags splits a joined Tag cell. An empty cell yields no tags.
func SplitTags(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Dedupe keeps the first occurrence of every value.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func Contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
