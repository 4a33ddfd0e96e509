package feedback

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	SummaryMaxTokens  = 2000
	CritiqueMaxTokens = 300
	Temperature       = 0.7
)

// ErrEmptyOutput is returned when a provider answers with no text.
var ErrEmptyOutput = errors.New("empty llm output")

// Generator produces the document summary and per-section critiques.
type Generator struct {
	llm Completer
}

func NewGenerator(llm Completer) *Generator {
	return &Generator{llm: llm}
}

// Summarize asks for a structured review of the whole document.
func (g *Generator) Summarize(ctx context.Context, fullText string, opts Options) (string, error) {
	out, err := g.llm.Complete(ctx, Request{
		Prompt:      BuildSummaryPrompt(fullText, opts),
		MaxTokens:   SummaryMaxTokens,
		Temperature: Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return cleanOutput(out)
}

// Critique asks for a short critique of one section.
func (g *Generator) Critique(ctx context.Context, title, content string, opts Options) (string, error) {
	out, err := g.llm.Complete(ctx, Request{
		Prompt:      BuildSectionPrompt(title, content, opts),
		MaxTokens:   CritiqueMaxTokens,
		Temperature: Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("critique %q: %w", title, err)
	}
	return cleanOutput(out)
}

var codeBlockRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func cleanOutput(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
	}
	if s == "" {
		return "", ErrEmptyOutput
	}
	return s, nil
}
