package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitlePredicate reports whether a trimmed line starts a new section.
type TitlePredicate func(trimmed string) bool

// maxCapsTitleLen bounds the all-caps heuristic so shouting prose is not
// mistaken for a heading.
const maxCapsTitleLen = 50

// DefaultTitlePredicates is the ordered predicate set used by IsTitle.
var DefaultTitlePredicates = []TitlePredicate{
	Pattern(`^\d+\.\s+`),    // 1. Intro
	Pattern(`^\d+\)\s+`),    // 1) Intro
	Pattern(`^[IVX]+\.\s+`), // II. Background
	Pattern(`^\[.+\]\s*`),   // [Summary]
	Pattern(`^#+\s+`),       // ### Notes
	AllCaps(maxCapsTitleLen),
}

// Pattern builds a predicate from a regular expression.
func Pattern(expr string) TitlePredicate {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

// AllCaps matches short lines whose cased letters are all upper case.
func AllCaps(maxLen int) TitlePredicate {
	return func(trimmed string) bool {
		return utf8.RuneCountInString(trimmed) < maxLen && isUpper(trimmed)
	}
}

// isUpper is true when s has at least one cased rune and no lower or
// title case runes.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// IsTitle classifies a raw line with the default predicates.
func IsTitle(line string) bool {
	return matchAny(DefaultTitlePredicates, strings.TrimSpace(line))
}

func matchAny(preds []TitlePredicate, trimmed string) bool {
	if trimmed == "" {
		return false
	}
	for _, p := range preds {
		if p(trimmed) {
			return true
		}
	}
	return false
}
