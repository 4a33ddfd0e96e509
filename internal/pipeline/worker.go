package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgallion1/docreview/internal/annotate"
	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/feedback"
	"github.com/dgallion1/docreview/internal/gdocs"
	"github.com/dgallion1/docreview/internal/pathstore"
	"github.com/dgallion1/docreview/internal/placement"
	"github.com/dgallion1/docreview/internal/segment"
)

// WorkerConfig wires a Worker.
type WorkerConfig struct {
	Backend   Backend
	Generator *feedback.Generator
	History   History // Optional
	Log       *slog.Logger

	Segment  segment.Config
	Strategy placement.Strategy
	Style    annotate.Style
	Language string // Default feedback language

	CritiqueDelay time.Duration // Minimum spacing between section critiques
	WriteDelay    time.Duration // Minimum spacing between document writes
}

// Worker runs feedback requests against one backend. A single run is
// strictly sequential; a Worker may serve several runs concurrently.
type Worker struct {
	cfg WorkerConfig
	log *slog.Logger
}

func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Strategy == "" {
		cfg.Strategy = placement.StrategySnippet
	}
	if cfg.Style == (annotate.Style{}) {
		cfg.Style = annotate.DefaultStyle()
	}
	return &Worker{cfg: cfg, log: cfg.Log}
}

// pacer returns a limiter that lets the first call through immediately and
// spaces the following ones by every.
func pacer(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

type runParams struct {
	docID string
	mode  placement.Mode
	opts  feedback.Options
}

// ValidateRequest rejects a request whose document, mode, doc type or focus
// cannot be used. Uploads are checked without a document since the id is
// only assigned once the file is parsed.
func ValidateRequest(req Request, local bool) error {
	if !local {
		if _, err := gdocs.ExtractDocumentID(req.Document); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	_, _, err := parseOptions(req)
	return err
}

func parseOptions(req Request) (placement.Mode, feedback.Options, error) {
	var opts feedback.Options
	mode, err := placement.ParseMode(req.Mode)
	if err != nil {
		return mode, opts, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if opts.DocType, err = feedback.ParseDocType(req.DocType); err != nil {
		return mode, opts, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if opts.Focus, err = feedback.ParseFocus(req.Focus); err != nil {
		return mode, opts, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	opts.Instructions = req.Instructions
	opts.Language = req.Language
	return mode, opts, nil
}

func (w *Worker) parseRequest(req Request) (runParams, error) {
	var p runParams
	var err error
	if p.docID, err = gdocs.ExtractDocumentID(req.Document); err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if p.mode, p.opts, err = parseOptions(req); err != nil {
		return p, err
	}
	if p.opts.Language == "" {
		p.opts.Language = w.cfg.Language
	}
	return p, nil
}

func (w *Worker) load(ctx context.Context, docID string) (*doctree.Model, error) {
	doc, err := w.cfg.Backend.Fetch(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	m, err := doctree.Build(doc.Title, doc.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return m, nil
}

// Preview fetches and segments a document without calling the LLM.
func (w *Worker) Preview(ctx context.Context, document string) (*Preview, error) {
	docID, err := gdocs.ExtractDocumentID(document)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	m, err := w.load(ctx, docID)
	if err != nil {
		return nil, err
	}
	sections := segment.Segment(m.FullText, w.cfg.Segment)
	p := &Preview{
		DocumentID: docID,
		Title:      m.Title,
		Lines:      m.LineCount(),
		Sections:   sections,
		Selected:   []string{},
	}
	for _, s := range segment.Select(sections, MeaningfulChars, MaxSections) {
		p.Selected = append(p.Selected, s.Title)
	}
	return p, nil
}

// Run executes one request: fetch, segment, summarize, critique each
// selected section, plan placements, then write. onPhase, if set, is called
// as each phase starts.
func (w *Worker) Run(ctx context.Context, req Request, onPhase func(JobStatus)) (*Report, error) {
	phase := func(s JobStatus) {
		if onPhase != nil {
			onPhase(s)
		}
	}

	params, err := w.parseRequest(req)
	if err != nil {
		return nil, err
	}
	log := w.log.With("document_id", params.docID, "mode", params.mode)
	report := &Report{RunID: NewID(), DocumentID: params.docID, Mode: string(params.mode)}

	phase(StatusReading)
	model, err := w.load(ctx, params.docID)
	if err != nil {
		return nil, err
	}
	report.Title = model.Title
	hash := ContentHashHex([]byte(model.FullText))

	if dup, prev := w.isDuplicate(ctx, log, params, hash, req.Force); dup {
		log.Info("document unchanged since last review, skipping", "previous_run", prev.RunID)
		report.Duplicate = true
		report.Summary = prev.Summary
		report.Message = DuplicateSkippedMessage
		return report, nil
	}

	phase(StatusSegmenting)
	sections := segment.Segment(model.FullText, w.cfg.Segment)
	selected := segment.Select(sections, MeaningfulChars, MaxSections)
	report.Sections = len(sections)
	report.Selected = len(selected)
	log.Info("segmented document", "sections", len(sections), "selected", len(selected))

	phase(StatusSummarizing)
	report.Summary, err = w.cfg.Generator.Summarize(ctx, model.FullText, params.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSummary, err)
	}

	phase(StatusCritiquing)
	items := w.critique(ctx, log, selected, params.opts, report)

	phase(StatusWriting)
	plan := placement.NewPlan(params.mode, items, placement.NewResolver(w.cfg.Strategy, model))
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("placement plan: %w", err)
	}
	report.Misses = plan.Misses
	for _, title := range plan.Misses {
		log.Info("no paragraph matched section, skipping write", "section", title)
	}

	sink, err := annotate.NewSink(params.mode, w.cfg.Backend, w.cfg.Style)
	if err != nil {
		return nil, err
	}
	w.write(ctx, log, sink, params.docID, plan, report)

	if report.WritesSucceeded == 0 {
		report.Message = NoWritesMessage
	} else if report.PermissionDenied > 0 {
		report.Message = PermissionDeniedMessage
	}

	w.record(ctx, log, report, hash)
	log.Info("review finished",
		"critiqued", report.Critiqued,
		"writes_succeeded", report.WritesSucceeded,
		"writes_attempted", report.WritesAttempted)
	return report, nil
}

func (w *Worker) critique(ctx context.Context, log *slog.Logger, selected []segment.Section, opts feedback.Options, report *Report) []placement.Feedback {
	limiter := pacer(w.cfg.CritiqueDelay)
	var items []placement.Feedback
	for i, sec := range selected {
		if err := limiter.Wait(ctx); err != nil {
			report.SectionWarnings = append(report.SectionWarnings, fmt.Sprintf("%s: %s", sec.Title, err))
			continue
		}
		body, err := w.cfg.Generator.Critique(ctx, sec.Title, sec.Content, opts)
		if err != nil {
			log.Warn("section critique failed", "section", sec.Title, "kind", feedback.KindOf(err), "error", err)
			report.SectionWarnings = append(report.SectionWarnings, fmt.Sprintf("%s: %s", sec.Title, err))
			continue
		}
		report.Critiqued++
		items = append(items, placement.Feedback{Section: sec, Order: i, Body: body})
	}
	return items
}

func (w *Worker) write(ctx context.Context, log *slog.Logger, sink annotate.Sink, docID string, plan *placement.Plan, report *Report) {
	limiter := pacer(w.cfg.WriteDelay)
	for _, edit := range plan.Edits {
		if err := limiter.Wait(ctx); err != nil {
			report.WriteErrors = append(report.WriteErrors, fmt.Sprintf("%s: %s", edit.Title, err))
			continue
		}
		report.WritesAttempted++
		err := sink.Write(ctx, docID, edit)
		switch {
		case err == nil:
			report.WritesSucceeded++
		case annotate.IsPermissionDenied(err):
			log.Warn("write denied", "section", edit.Title, "error", err)
			report.PermissionDenied++
		default:
			log.Error("write failed", "section", edit.Title, "error", err)
			report.WriteErrors = append(report.WriteErrors, fmt.Sprintf("%s: %s", edit.Title, err))
		}
	}
}

func (w *Worker) isDuplicate(ctx context.Context, log *slog.Logger, p runParams, hash string, force bool) (bool, *pathstore.Run) {
	if w.cfg.History == nil || force {
		return false, nil
	}
	prev, err := w.cfg.History.Latest(ctx, p.docID)
	if err != nil {
		log.Warn("history lookup failed, proceeding", "error", err)
		return false, nil
	}
	if prev == nil || prev.ContentHash != hash || prev.Mode != string(p.mode) {
		return false, nil
	}
	return true, prev
}

func (w *Worker) record(ctx context.Context, log *slog.Logger, report *Report, hash string) {
	if w.cfg.History == nil {
		return
	}
	status := StatusCompleted
	if !report.Clean() {
		status = StatusPartial
	}
	err := w.cfg.History.Record(ctx, pathstore.Run{
		RunID:           report.RunID,
		DocumentID:      report.DocumentID,
		Title:           report.Title,
		ContentHash:     hash,
		Mode:            report.Mode,
		Status:          string(status),
		Summary:         report.Summary,
		Sections:        report.Sections,
		Critiqued:       report.Critiqued,
		WritesAttempted: report.WritesAttempted,
		WritesSucceeded: report.WritesSucceeded,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		log.Warn("history write failed", "error", err)
	}
}

// IsInputError reports whether err was caused by the request itself.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
