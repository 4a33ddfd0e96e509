package parser

import (
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	file, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if file.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", file.Title)
	}
	if len(file.Paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(file.Paragraphs))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if file.Paragraphs[i] != w {
			t.Errorf("paragraph[%d]: expected %q, got %q", i, w, file.Paragraphs[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	file, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", file.Title)
	}
	if len(file.Paragraphs) != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", len(file.Paragraphs))
	}
}

func TestTextParser_SingleLine(t *testing.T) {
	p := &TextParser{}
	file, err := p.Parse(strings.NewReader("Hello world"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Title != "single" {
		t.Errorf("expected title %q, got %q", "single", file.Title)
	}
	if len(file.Paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(file.Paragraphs))
	}
	if file.Paragraphs[0] != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", file.Paragraphs[0])
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	file, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(file.Paragraphs))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	file, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(file.Paragraphs))
	}
}

func TestTextParser_CRLF(t *testing.T) {
	p := &TextParser{}
	file, err := p.Parse(strings.NewReader("1. Intro\r\nBody line.\r\n\r\nNext."), "dos.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1. Intro\nBody line.", "Next."}
	if len(file.Paragraphs) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), len(file.Paragraphs))
	}
	for i, w := range want {
		if file.Paragraphs[i] != w {
			t.Errorf("paragraph[%d]: expected %q, got %q", i, w, file.Paragraphs[i])
		}
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.txt", "b.MD", "c.markdown", "d.html", "e.htm", "f.pdf", "g.docx"} {
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("%s: expected supported", name)
		}
	}
	if _, err := ForFile("h.csv", Options{}); err == nil {
		t.Error("expected error for csv")
	}
	if IsSupportedExtension("h.csv") {
		t.Error("csv should not be supported")
	}
}

func TestHeadingLine(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, "# T"},
		{3, "### T"},
		{0, "# T"},
		{9, "###### T"},
	}
	for _, tt := range tests {
		if got := headingLine(tt.level, "T"); got != tt.want {
			t.Errorf("level %d: expected %q, got %q", tt.level, tt.want, got)
		}
	}
}
