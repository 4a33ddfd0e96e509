// Package localdoc keeps uploaded documents in memory and exposes them
// through the same read, comment and insert operations as a remote backend.
package localdoc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dgallion1/docreview/internal/annotate"
	"github.com/dgallion1/docreview/internal/doctree"
)

// Comment is an anchored note recorded against the document.
type Comment struct {
	Body   string         `json:"body"`
	Quoted string         `json:"quoted,omitempty"`
	Anchor doctree.Anchor `json:"anchor"`
}

// Insertion records one styled insert in the order it was applied.
type Insertion struct {
	At    doctree.NativeIndex `json:"at"`
	Text  string              `json:"text"`
	Style annotate.Style      `json:"style"`
}

type entry struct {
	title      string
	text       []rune // Index i holds native offset i+1
	comments   []Comment
	insertions []Insertion
}

// Store is a concurrency-safe set of local documents. Native offsets start
// at 1 and count runes; every paragraph ends with "\n".
type Store struct {
	mu   sync.Mutex
	docs map[string]*entry
}

func NewStore() *Store {
	return &Store{docs: make(map[string]*entry)}
}

// Put stores f under id, replacing any previous document.
func (s *Store) Put(id string, f *doctree.File) {
	var sb strings.Builder
	for _, p := range f.Paragraphs {
		sb.WriteString(strings.TrimRight(p, "\r\n"))
		sb.WriteByte('\n')
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = &entry{title: f.Title, text: []rune(sb.String())}
}

// Delete drops a document.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

func (s *Store) get(id string) (*entry, error) {
	e, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("local document %s: %w", id, annotate.ErrNotFound)
	}
	return e, nil
}

// Fetch returns the current body, one paragraph element per line.
func (s *Store) Fetch(_ context.Context, id string) (*doctree.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}

	doc := &doctree.Document{Title: e.title}
	start := 0
	for i, r := range e.text {
		if r != '\n' {
			continue
		}
		line := string(e.text[start : i+1])
		from := doctree.NativeIndex(start + 1)
		to := doctree.NativeIndex(i + 2)
		doc.Body = append(doc.Body, doctree.Element{
			Start: from,
			End:   to,
			Paragraph: &doctree.ParagraphElement{
				Runs: []doctree.TextRun{{Text: line, Start: from, End: to}},
			},
		})
		start = i + 1
	}
	return doc, nil
}

func (e *entry) inRange(i doctree.NativeIndex) bool {
	return i >= 1 && int(i) <= len(e.text)+1
}

// AddComment records a comment. The body is not modified.
func (s *Store) AddComment(_ context.Context, id, body, quoted string, anchor doctree.Anchor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return err
	}
	if !e.inRange(anchor.Start) || !e.inRange(anchor.End) || anchor.End < anchor.Start {
		return fmt.Errorf("comment anchor [%d, %d) outside document %s", anchor.Start, anchor.End, id)
	}
	e.comments = append(e.comments, Comment{Body: body, Quoted: quoted, Anchor: anchor})
	return nil
}

// InsertStyledText splices text in before native offset at.
func (s *Store) InsertStyledText(_ context.Context, id, text string, at doctree.NativeIndex, style annotate.Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return err
	}
	if !e.inRange(at) {
		return fmt.Errorf("insert offset %d outside document %s", at, id)
	}
	pos := int(at) - 1
	ins := []rune(text)
	out := make([]rune, 0, len(e.text)+len(ins))
	out = append(out, e.text[:pos]...)
	out = append(out, ins...)
	out = append(out, e.text[pos:]...)
	e.text = out
	e.insertions = append(e.insertions, Insertion{At: at, Text: text, Style: style})
	return nil
}

// Comments returns a copy of the recorded comments.
func (s *Store) Comments(id string) ([]Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return append([]Comment(nil), e.comments...), nil
}

// Insertions returns a copy of the applied insertions.
func (s *Store) Insertions(id string) ([]Insertion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return append([]Insertion(nil), e.insertions...), nil
}

// Render returns the annotated text with comments listed at the end.
func (s *Store) Render(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.get(id)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if e.title != "" {
		sb.WriteString(e.title)
		sb.WriteString("\n\n")
	}
	sb.WriteString(string(e.text))
	if len(e.comments) > 0 {
		sb.WriteString("\n---\nComments:\n")
		for i, c := range e.comments {
			fmt.Fprintf(&sb, "%d. ", i+1)
			if q := quoteSnippet(c.Quoted); q != "" {
				fmt.Fprintf(&sb, "On %q: ", q)
			}
			sb.WriteString(strings.TrimSpace(c.Body))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func quoteSnippet(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > 60 {
		return string(r[:60]) + "..."
	}
	return s
}
