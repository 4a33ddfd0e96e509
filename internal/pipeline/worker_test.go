package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dgallion1/docreview/internal/annotate"
	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/feedback"
	"github.com/dgallion1/docreview/internal/localdoc"
	"github.com/dgallion1/docreview/internal/pathstore"
	"github.com/dgallion1/docreview/internal/placement"
	"github.com/dgallion1/docreview/internal/segment"
)

// scriptedLLM answers the summary prompt and section prompts. Sections whose
// title appears in fail get an error.
type scriptedLLM struct {
	mu         sync.Mutex
	summaryErr error
	fail       map[string]bool
	prompts    []string
}

func (s *scriptedLLM) Complete(_ context.Context, req feedback.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	if req.MaxTokens == feedback.SummaryMaxTokens {
		if s.summaryErr != nil {
			return "", s.summaryErr
		}
		return "Overall the document is clear.", nil
	}
	for title := range s.fail {
		if strings.Contains(req.Prompt, fmt.Sprintf("%q", title)) {
			return "", errors.New("model unavailable")
		}
	}
	return "Tighten the argument here.", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// numberedDoc builds n numbered sections, each with a body longer than the
// critique threshold.
func numberedDoc(n int) *doctree.File {
	f := &doctree.File{Title: "Quarterly Report"}
	for i := 1; i <= n; i++ {
		f.Paragraphs = append(f.Paragraphs,
			fmt.Sprintf("%d. Part %d", i, i),
			strings.Repeat(fmt.Sprintf("Part %d makes a detailed point about the topic. ", i), 6),
		)
	}
	return f
}

type deniedBackend struct {
	*localdoc.Store
	denyAfter int
	calls     int
}

func (d *deniedBackend) AddComment(ctx context.Context, id, body, quoted string, a doctree.Anchor) error {
	d.calls++
	if d.calls > d.denyAfter {
		return fmt.Errorf("drive: %w", annotate.ErrPermissionDenied)
	}
	return d.Store.AddComment(ctx, id, body, quoted, a)
}

func newTestWorker(backend Backend, llm feedback.Completer, history History) *Worker {
	return NewWorker(WorkerConfig{
		Backend:   backend,
		Generator: feedback.NewGenerator(llm),
		History:   history,
		Log:       discardLogger(),
		Segment:   segment.DefaultConfig(),
		Language:  "English",
	})
}

func TestRunCommentsOnSelectedSections(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("DOC1", numberedDoc(8))
	llm := &scriptedLLM{fail: map[string]bool{"2. Part 2": true, "5. Part 5": true}}
	w := newTestWorker(store, llm, nil)

	var phases []JobStatus
	report, err := w.Run(context.Background(), Request{Document: "DOC1"}, func(s JobStatus) {
		phases = append(phases, s)
	})
	require.NoError(t, err)

	assert.Equal(t, 8, report.Sections)
	assert.Equal(t, MaxSections, report.Selected)
	assert.Equal(t, 5, report.Critiqued)
	assert.Len(t, report.SectionWarnings, 2)
	assert.Equal(t, 5, report.WritesAttempted)
	assert.Equal(t, 5, report.WritesSucceeded)
	assert.Empty(t, report.Message)
	assert.Equal(t, "Overall the document is clear.", report.Summary)
	assert.Equal(t, "Quarterly Report", report.Title)
	assert.False(t, report.Clean())

	comments, err := store.Comments("DOC1")
	require.NoError(t, err)
	require.Len(t, comments, 5)
	assert.Contains(t, comments[0].Quoted, "Part 1 makes")
	assert.Contains(t, comments[1].Quoted, "Part 3 makes")

	assert.Equal(t, []JobStatus{StatusReading, StatusSegmenting, StatusSummarizing, StatusCritiquing, StatusWriting}, phases)
	// One summary plus seven section prompts.
	assert.Len(t, llm.prompts, 8)
}

func TestRunInlineInsertsAfterEachSection(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("DOC1", numberedDoc(3))
	w := newTestWorker(store, &scriptedLLM{}, nil)

	report, err := w.Run(context.Background(), Request{Document: "DOC1", Mode: "inline"}, nil)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 3, report.WritesSucceeded)

	out, err := store.Render("DOC1")
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		body := strings.TrimRight(strings.Repeat(fmt.Sprintf("Part %d makes a detailed point about the topic. ", i), 6), " ")
		assert.Contains(t, out, body+" \n[AI feedback: Tighten the argument here.]\n")
	}
}

func TestRunNoWritesMessage(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("DOC1", numberedDoc(2))
	llm := &scriptedLLM{fail: map[string]bool{"1. Part 1": true, "2. Part 2": true}}
	w := newTestWorker(store, llm, nil)

	report, err := w.Run(context.Background(), Request{Document: "DOC1"}, nil)
	require.NoError(t, err)
	assert.Zero(t, report.WritesAttempted)
	assert.Equal(t, NoWritesMessage, report.Message)
}

func TestRunPermissionDenied(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("DOC1", numberedDoc(3))
	backend := &deniedBackend{Store: store, denyAfter: 1}
	w := newTestWorker(backend, &scriptedLLM{}, nil)

	report, err := w.Run(context.Background(), Request{Document: "DOC1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.WritesAttempted)
	assert.Equal(t, 1, report.WritesSucceeded)
	assert.Equal(t, 2, report.PermissionDenied)
	assert.Empty(t, report.WriteErrors)
	assert.Equal(t, PermissionDeniedMessage, report.Message)
}

func TestRunInvalidInput(t *testing.T) {
	w := newTestWorker(localdoc.NewStore(), &scriptedLLM{}, nil)
	ctx := context.Background()

	cases := []Request{
		{Document: ""},
		{Document: "https://example.com/no id here"},
		{Document: "DOC1", Mode: "margin"},
		{Document: "DOC1", DocType: "poem"},
		{Document: "DOC1", Focus: "speed"},
	}
	for _, req := range cases {
		_, err := w.Run(ctx, req, nil)
		assert.ErrorIs(t, err, ErrInvalidInput, "request %+v", req)
		assert.True(t, IsInputError(err))
	}
}

func TestRunReadFailures(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("EMPTY", &doctree.File{Title: "Blank"})
	w := newTestWorker(store, &scriptedLLM{}, nil)

	_, err := w.Run(context.Background(), Request{Document: "MISSING"}, nil)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, annotate.ErrNotFound)

	_, err = w.Run(context.Background(), Request{Document: "EMPTY"}, nil)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, doctree.ErrNoContent)
}

func TestRunSummaryFailureAborts(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("DOC1", numberedDoc(3))
	llm := &scriptedLLM{summaryErr: errors.New("boom")}
	w := newTestWorker(store, llm, nil)

	_, err := w.Run(context.Background(), Request{Document: "DOC1"}, nil)
	assert.ErrorIs(t, err, ErrSummary)
	assert.Len(t, llm.prompts, 1)

	comments, err := store.Comments("DOC1")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestRunReportsMisses(t *testing.T) {
	// The section body starts with a one-line paragraph, so its lead
	// snippet spans two paragraphs and text matching cannot place it.
	doc := &doctree.File{Title: "Notes", Paragraphs: []string{
		"1. Findings",
		"Short.",
		strings.Repeat("The findings are described at length here. ", 6),
	}}
	store := localdoc.NewStore()
	store.Put("DOC1", doc)
	w := newTestWorker(store, &scriptedLLM{}, nil)

	report, err := w.Run(context.Background(), Request{Document: "DOC1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Critiqued)
	assert.Equal(t, []string{"1. Findings"}, report.Misses)
	assert.Zero(t, report.WritesAttempted)
	assert.Equal(t, NoWritesMessage, report.Message)

	w.cfg.Strategy = placement.StrategyLines
	report, err = w.Run(context.Background(), Request{Document: "DOC1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Misses)
	assert.Equal(t, 1, report.WritesSucceeded)

	comments, err := store.Comments("DOC1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Short.\n", comments[0].Quoted)
}

func TestRunSkipsDuplicateUnlessForced(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("DOC1", numberedDoc(2))
	history := pathstore.NewMemoryHistory()
	llm := &scriptedLLM{}
	w := newTestWorker(store, llm, history)
	ctx := context.Background()

	first, err := w.Run(ctx, Request{Document: "DOC1"}, nil)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := w.Run(ctx, Request{Document: "DOC1"}, nil)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, DuplicateSkippedMessage, second.Message)
	assert.Equal(t, first.Summary, second.Summary)

	comments, err := store.Comments("DOC1")
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	forced, err := w.Run(ctx, Request{Document: "DOC1", Force: true}, nil)
	require.NoError(t, err)
	assert.False(t, forced.Duplicate)

	// A different mode is not a duplicate either.
	inline, err := w.Run(ctx, Request{Document: "DOC1", Mode: "inline"}, nil)
	require.NoError(t, err)
	assert.False(t, inline.Duplicate)

	runs, err := history.List(ctx, "DOC1", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestPreviewSkipsLLM(t *testing.T) {
	store := localdoc.NewStore()
	store.Put("DOC1", numberedDoc(9))
	llm := &scriptedLLM{}
	w := newTestWorker(store, llm, nil)

	p, err := w.Preview(context.Background(), "DOC1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report", p.Title)
	assert.Len(t, p.Sections, 9)
	assert.Len(t, p.Selected, MaxSections)
	assert.Equal(t, "1. Part 1", p.Selected[0])
	assert.Empty(t, llm.prompts)
}

func TestPacer(t *testing.T) {
	assert.Equal(t, rate.Inf, pacer(0).Limit())

	l := pacer(time.Hour)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
