package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docreview/internal/localdoc"
	"github.com/dgallion1/docreview/internal/parser"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = errors.New("job queue is full")

// OrchestratorConfig sizes the job queue and worker pool.
type OrchestratorConfig struct {
	Workers   int
	QueueSize int
	JobTTL    time.Duration
	Parser    parser.Options
}

// Orchestrator queues feedback jobs and runs them on a fixed pool of
// goroutines. Remote jobs go to the remote worker; uploads are parsed into
// the local store and reviewed there.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	remote *Worker // nil when no remote backend is configured
	local  *Worker
	store  *localdoc.Store
	log    *slog.Logger
	cfg    OrchestratorConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(cfg OrchestratorConfig, remote, local *Worker, store *localdoc.Store, log *slog.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.QueueSize),
		remote: remote,
		local:  local,
		store:  store,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.Workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					// A started job runs to completion even during shutdown.
					o.Process(context.WithoutCancel(workerCtx), job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cleanup()
			}
		}
	}()
}

func (o *Orchestrator) cleanup() {
	for _, job := range o.jobs.Cleanup() {
		if job.Local && o.store != nil {
			o.store.Delete(job.ID)
		}
	}
}

// Stop stops taking new jobs and waits for in-flight ones.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
// Requests that fail ValidateRequest are rejected without being stored.
func (o *Orchestrator) Submit(job *Job) error {
	if err := ValidateRequest(job.Request, job.Local); err != nil {
		return err
	}
	if !job.Local && o.remote == nil {
		return fmt.Errorf("%w: no remote document backend is configured", ErrInvalidInput)
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.QueueSize)
	}
}

// Process runs one job and records its outcome on the job.
func (o *Orchestrator) Process(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID, "local", job.Local)

	w := o.remote
	if job.Local {
		w = o.local
		if err := o.loadUpload(job); err != nil {
			log.Error("upload parse failed", "error", err)
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "parsing")
			return
		}
	}

	report, err := w.Run(ctx, job.Request, func(s JobStatus) {
		job.SetStatus(s, string(s))
	})
	if err != nil {
		log.Error("review failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		return
	}

	for _, msg := range report.SectionWarnings {
		job.AddError(msg)
	}
	for _, msg := range report.WriteErrors {
		job.AddError(msg)
	}

	switch {
	case report.Duplicate:
		job.Finish(StatusDupSkipped, report)
	case report.Clean():
		job.Finish(StatusCompleted, report)
	default:
		job.Finish(StatusPartial, report)
	}
	log.Info("job finished", "status", job.Snapshot().Status)
}

// loadUpload parses the uploaded bytes into the local store under the job id.
func (o *Orchestrator) loadUpload(job *Job) error {
	if o.store == nil || o.local == nil {
		return errors.New("local review is not configured")
	}
	p, err := parser.ForFile(job.Filename, o.cfg.Parser)
	if err != nil {
		return err
	}
	file, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	o.store.Put(job.ID, file)
	job.SetFileData(nil)
	job.Request.Document = job.ID
	return nil
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the local document store.
func (o *Orchestrator) Store() *localdoc.Store {
	return o.store
}

// Preview segments a document with the worker matching local.
func (o *Orchestrator) Preview(ctx context.Context, document string, local bool) (*Preview, error) {
	w := o.remote
	if local {
		w = o.local
	}
	if w == nil {
		return nil, fmt.Errorf("%w: backend is not configured", ErrInvalidInput)
	}
	return w.Preview(ctx, document)
}
