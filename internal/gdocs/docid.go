package gdocs

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidDocumentID is returned when no identifier can be found in the input.
var ErrInvalidDocumentID = errors.New("invalid document id or url")

// Tried in order; the first match wins.
var docIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/document/d/([\w-]+)`),
	regexp.MustCompile(`/d/([\w-]+)`),
	regexp.MustCompile(`[?&]id=([\w-]+)`),
	regexp.MustCompile(`^([\w-]+)$`),
}

// ExtractDocumentID accepts a document URL or a bare identifier.
func ExtractDocumentID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrInvalidDocumentID
	}
	for _, re := range docIDPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], nil
		}
	}
	return "", ErrInvalidDocumentID
}
