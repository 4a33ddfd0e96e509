package pipeline

import (
	"context"
	"errors"

	"github.com/dgallion1/docreview/internal/annotate"
	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/pathstore"
	"github.com/dgallion1/docreview/internal/segment"
)

var (
	// ErrInvalidInput covers a bad document reference or request option.
	// Nothing is fetched or generated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRead means the document could not be fetched or has no text.
	ErrRead = errors.New("document read failed")
	// ErrSummary means the whole-document review failed; no section is processed.
	ErrSummary = errors.New("summary generation failed")
)

const (
	// MaxSections caps how many sections receive feedback.
	MaxSections = 7
	// MeaningfulChars is the trimmed length a section must exceed to be critiqued.
	MeaningfulChars = 200

	NoWritesMessage         = "no feedback was written; check that the service account has edit access"
	PermissionDeniedMessage = "permission denied: share the document with the service account as an editor"
	DuplicateSkippedMessage = "document unchanged since the last review; set force to review again"
)

// Backend reads a document and can write both kinds of feedback.
type Backend interface {
	Fetch(ctx context.Context, docID string) (*doctree.Document, error)
	annotate.Commenter
	annotate.Inserter
}

// History stores past review runs per document.
type History interface {
	Latest(ctx context.Context, docID string) (*pathstore.Run, error)
	Record(ctx context.Context, run pathstore.Run) error
	List(ctx context.Context, docID string, limit int) ([]pathstore.Run, error)
	Forget(ctx context.Context, docID string) error
}

// Request describes one feedback run.
type Request struct {
	Document     string `json:"document"` // URL or bare document id
	DocType      string `json:"doc_type,omitempty"`
	Focus        string `json:"focus,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Language     string `json:"language,omitempty"`
	Mode         string `json:"mode,omitempty"` // "comment" (default) or "inline"
	Force        bool   `json:"force,omitempty"`
}

// Report is the end-of-run summary. Per-section and per-write problems are
// collected here rather than failing the run.
type Report struct {
	RunID            string   `json:"run_id" yaml:"run_id"`
	DocumentID       string   `json:"document_id" yaml:"document_id"`
	Title            string   `json:"title" yaml:"title"`
	Mode             string   `json:"mode" yaml:"mode"`
	Summary          string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Sections         int      `json:"sections" yaml:"sections"`
	Selected         int      `json:"selected" yaml:"selected"`
	Critiqued        int      `json:"critiqued" yaml:"critiqued"`
	SectionWarnings  []string `json:"section_warnings,omitempty" yaml:"section_warnings,omitempty"`
	Misses           []string `json:"misses,omitempty" yaml:"misses,omitempty"`
	WritesAttempted  int      `json:"writes_attempted" yaml:"writes_attempted"`
	WritesSucceeded  int      `json:"writes_succeeded" yaml:"writes_succeeded"`
	PermissionDenied int      `json:"permission_denied" yaml:"permission_denied"`
	WriteErrors      []string `json:"write_errors,omitempty" yaml:"write_errors,omitempty"`
	Duplicate        bool     `json:"duplicate,omitempty" yaml:"duplicate,omitempty"`
	Message          string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Clean reports whether every selected section was critiqued and written.
func (r *Report) Clean() bool {
	return len(r.SectionWarnings) == 0 && len(r.Misses) == 0 &&
		r.WritesSucceeded == r.WritesAttempted && r.WritesSucceeded > 0
}

// Preview is the segmentation of a document without any LLM work.
type Preview struct {
	DocumentID string            `json:"document_id" yaml:"document_id"`
	Title      string            `json:"title" yaml:"title"`
	Lines      int               `json:"lines" yaml:"lines"`
	Sections   []segment.Section `json:"sections" yaml:"sections"`
	Selected   []string          `json:"selected" yaml:"selected"`
}
