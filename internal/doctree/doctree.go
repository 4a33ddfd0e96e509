package doctree

import (
	"errors"
	"strings"
)

// NativeIndex is a character offset in the remote document's own index
// space. It is never derived from the locally reconstructed text.
type NativeIndex int64

// LineIndex is a 0-based line number into Model.FullText.
type LineIndex int

// ErrNoContent is returned when a document has no readable paragraphs.
var ErrNoContent = errors.New("document has no text content")

// Element is one structural block of a document body.
// Paragraph is nil for tables, section breaks and other non-text blocks.
type Element struct {
	Start     NativeIndex
	End       NativeIndex
	Paragraph *ParagraphElement
}

// ParagraphElement holds the ordered text runs of a paragraph.
type ParagraphElement struct {
	Runs []TextRun
}

// TextRun is a literal piece of paragraph text.
type TextRun struct {
	Text  string
	Start NativeIndex
	End   NativeIndex
}

// Anchor is a [Start, End) range in native offsets.
type Anchor struct {
	Start NativeIndex
	End   NativeIndex
}

// Paragraph is a text block with the native range of its source element.
type Paragraph struct {
	Text  string
	Start NativeIndex
	End   NativeIndex
}

// Anchor returns the paragraph's native range.
func (p Paragraph) Anchor() Anchor {
	return Anchor{Start: p.Start, End: p.End}
}

// Model is the request-scoped view of a fetched document.
type Model struct {
	Title      string
	Paragraphs []Paragraph
	FullText   string // Paragraph texts joined with "\n"

	spans []lineSpan
}

type lineSpan struct {
	first LineIndex
	last  LineIndex
}

// Build flattens a document body into paragraphs and the joined full text.
// Runs that are blank after trimming are dropped; the element's own offsets
// are kept because the body may hold content that is not reproduced locally.
func Build(title string, body []Element) (*Model, error) {
	m := &Model{Title: title}
	texts := make([]string, 0, len(body))

	for _, el := range body {
		if el.Paragraph == nil {
			continue
		}
		var sb strings.Builder
		for _, run := range el.Paragraph.Runs {
			if strings.TrimSpace(run.Text) != "" {
				sb.WriteString(run.Text)
			}
		}
		if sb.Len() == 0 {
			continue
		}
		end := el.End
		if end < el.Start {
			end = el.Start
		}
		text := sb.String()
		m.Paragraphs = append(m.Paragraphs, Paragraph{Text: text, Start: el.Start, End: end})
		texts = append(texts, text)
	}

	if len(m.Paragraphs) == 0 {
		return nil, ErrNoContent
	}

	m.FullText = strings.Join(texts, "\n")
	m.spans = computeSpans(m.Paragraphs)
	return m, nil
}

// computeSpans records which lines of FullText each paragraph occupies.
// Paragraph i starts on the line after paragraph i-1 ends because the join
// separator is a single newline.
func computeSpans(paras []Paragraph) []lineSpan {
	spans := make([]lineSpan, len(paras))
	line := LineIndex(0)
	for i, p := range paras {
		n := LineIndex(strings.Count(p.Text, "\n"))
		spans[i] = lineSpan{first: line, last: line + n}
		line += n + 1
	}
	return spans
}

// LineCount is the number of lines in FullText.
func (m *Model) LineCount() int {
	if len(m.spans) == 0 {
		return 0
	}
	return int(m.spans[len(m.spans)-1].last) + 1
}

// ParagraphAtLine returns the index of the paragraph that occupies line.
func (m *Model) ParagraphAtLine(line LineIndex) (int, bool) {
	lo, hi := 0, len(m.spans)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		s := m.spans[mid]
		switch {
		case line < s.first:
			hi = mid - 1
		case line > s.last:
			lo = mid + 1
		default:
			return mid, true
		}
	}
	return 0, false
}

// File is a local document imported by a parser: a title plus its
// paragraphs in reading order.
type File struct {
	Title      string
	Paragraphs []string
}

// Document is a fetched document before flattening.
type Document struct {
	Title string
	Body  []Element
}
