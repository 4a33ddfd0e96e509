package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docreview/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &doctree.File{
		Title:      stem(filename),
		Paragraphs: splitParagraphs(text),
	}, nil
}
