package placement

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/segment"
)

// SnippetLen is the number of runes of section content used as lead snippet.
const SnippetLen = 100

// Resolver recovers the native paragraph a section starts in.
type Resolver interface {
	Resolve(sec segment.Section) (doctree.Paragraph, bool)
}

// Strategy names a Resolver implementation.
type Strategy string

const (
	StrategySnippet Strategy = "snippet"
	StrategyLines   Strategy = "lines"
)

// ParseStrategy maps a configuration value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategySnippet:
		return StrategySnippet, nil
	case StrategyLines:
		return StrategyLines, nil
	default:
		return "", fmt.Errorf("unknown placement strategy %q", s)
	}
}

// NewResolver returns the resolver for strategy over m.
func NewResolver(strategy Strategy, m *doctree.Model) Resolver {
	if strategy == StrategyLines {
		return LineResolver{Model: m}
	}
	return SnippetResolver{Paragraphs: m.Paragraphs}
}

// SnippetResolver finds the first paragraph whose text contains the
// section's lead snippet. Repeated text resolves to its first occurrence.
type SnippetResolver struct {
	Paragraphs []doctree.Paragraph
}

func (r SnippetResolver) Resolve(sec segment.Section) (doctree.Paragraph, bool) {
	snippet := LeadSnippet(sec.Content)
	if snippet == "" {
		return doctree.Paragraph{}, false
	}
	for _, p := range r.Paragraphs {
		if strings.Contains(p.Text, snippet) {
			return p, true
		}
	}
	return doctree.Paragraph{}, false
}

// LeadSnippet returns the first SnippetLen runes of content, trimmed.
func LeadSnippet(content string) string {
	n := 0
	for i := range content {
		if n == SnippetLen {
			return strings.TrimSpace(content[:i])
		}
		n++
	}
	return strings.TrimSpace(content)
}

// LineResolver maps the section's first content line to the paragraph that
// occupies it in the joined text. It does not depend on text matching.
type LineResolver struct {
	Model *doctree.Model
}

func (r LineResolver) Resolve(sec segment.Section) (doctree.Paragraph, bool) {
	if r.Model == nil {
		return doctree.Paragraph{}, false
	}
	i, ok := r.Model.ParagraphAtLine(sec.BodyLine)
	if !ok {
		return doctree.Paragraph{}, false
	}
	return r.Model.Paragraphs[i], true
}
