package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/placement"
)

var (
	// ErrPermissionDenied means the caller lacks edit access to the document.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound means the document does not exist or is not visible.
	ErrNotFound = errors.New("document not found")
)

// IsPermissionDenied reports whether err is an access-grant problem.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// RGB is a color with components in [0, 1].
type RGB struct {
	Red, Green, Blue float64
}

// Style is applied to exactly the inserted range of an inline annotation.
type Style struct {
	Color      RGB
	Italic     bool
	FontSizePt float64
}

// DefaultStyle is blue-grey, italic, 9pt.
func DefaultStyle() Style {
	return Style{
		Color:      RGB{Red: 0.2, Green: 0.4, Blue: 0.8},
		Italic:     true,
		FontSizePt: 9,
	}
}

// Commenter attaches an anchored comment without touching body content.
type Commenter interface {
	AddComment(ctx context.Context, docID, body, quoted string, anchor doctree.Anchor) error
}

// Inserter inserts styled text at a native offset. The insert and its style
// update succeed or fail together.
type Inserter interface {
	InsertStyledText(ctx context.Context, docID, text string, at doctree.NativeIndex, style Style) error
}

// Sink writes one planned edit.
type Sink interface {
	Mode() placement.Mode
	Write(ctx context.Context, docID string, e placement.Edit) error
}

// CommentSink writes edits as anchored comments.
type CommentSink struct {
	Commenter Commenter
}

func (s CommentSink) Mode() placement.Mode { return placement.ModeComment }

func (s CommentSink) Write(ctx context.Context, docID string, e placement.Edit) error {
	if err := s.Commenter.AddComment(ctx, docID, e.Body, e.Quoted, e.Anchor); err != nil {
		return fmt.Errorf("comment on %q: %w", e.Title, err)
	}
	return nil
}

// InlineSink writes edits as styled insertions placed just before the
// paragraph's terminating newline.
type InlineSink struct {
	Inserter Inserter
	Style    Style
}

func (s InlineSink) Mode() placement.Mode { return placement.ModeInline }

func (s InlineSink) Write(ctx context.Context, docID string, e placement.Edit) error {
	at := InsertionPoint(e.Anchor)
	if err := s.Inserter.InsertStyledText(ctx, docID, Marker(e.Body), at, s.Style); err != nil {
		return fmt.Errorf("insert feedback for %q: %w", e.Title, err)
	}
	return nil
}

// Marker wraps feedback in the visible bracketed form used inline.
func Marker(body string) string {
	return "\n[AI feedback: " + strings.TrimSpace(body) + "]"
}

// InsertionPoint is the last offset inside the paragraph, where its
// terminating newline sits.
func InsertionPoint(a doctree.Anchor) doctree.NativeIndex {
	if a.End-1 > a.Start {
		return a.End - 1
	}
	return a.Start
}

// NewSink picks the sink for mode. backend must implement the capability
// the mode needs.
func NewSink(mode placement.Mode, backend any, style Style) (Sink, error) {
	switch mode {
	case placement.ModeInline:
		ins, ok := backend.(Inserter)
		if !ok {
			return nil, fmt.Errorf("backend %T cannot insert text", backend)
		}
		return InlineSink{Inserter: ins, Style: style}, nil
	case placement.ModeComment, "":
		c, ok := backend.(Commenter)
		if !ok {
			return nil, fmt.Errorf("backend %T cannot add comments", backend)
		}
		return CommentSink{Commenter: c}, nil
	default:
		return nil, fmt.Errorf("unknown write mode %q", mode)
	}
}
