package feedback

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens gives a rough prompt size for logging. It takes the larger
// of a word-based and a character-based guess so that scripts without
// spaces between words are not undercounted.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byWords := int(float64(len(strings.Fields(text))) * 1.33)
	byRunes := utf8.RuneCountInString(text) / 4
	tokens := max(byWords, byRunes)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
