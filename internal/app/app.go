// Package app wires configuration into the LLM client, review history and
// pipeline workers shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docreview/internal/annotate"
	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/feedback"
	"github.com/dgallion1/docreview/internal/gdocs"
	"github.com/dgallion1/docreview/internal/localdoc"
	"github.com/dgallion1/docreview/internal/pathstore"
	"github.com/dgallion1/docreview/internal/pipeline"
	"github.com/dgallion1/docreview/internal/placement"
	"github.com/dgallion1/docreview/internal/segment"
)

// App holds the wired components.
type App struct {
	LLM     *feedback.Client
	History pipeline.History
	Store   *localdoc.Store
	Remote  *pipeline.Worker // nil when Google Docs is unavailable
	Local   *pipeline.Worker

	// RemoteErr explains why Remote is nil.
	RemoteErr error

	kv *pathstore.Client
}

// New builds the components described by cfg. Google Docs access is
// optional: when credentials cannot be loaded only local review works.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	strategy, err := placement.ParseStrategy(cfg.PlacementStrategy)
	if err != nil {
		return nil, err
	}

	completer, err := feedback.NewCompleter(ctx, feedback.ProviderOptions{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	a := &App{
		LLM:   feedback.NewClient(completer, cfg.LLMModel, log.With("component", "llm")),
		Store: localdoc.NewStore(),
	}

	if cfg.PathstoreURL != "" {
		a.kv = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		a.History = pathstore.NewRemoteHistory(a.kv, cfg.HistoryTTL)
	} else {
		a.History = pathstore.NewMemoryHistory()
	}

	segCfg := segment.DefaultConfig()
	segCfg.IntroTitle = cfg.IntroTitle

	worker := func(backend pipeline.Backend, name string) *pipeline.Worker {
		return pipeline.NewWorker(pipeline.WorkerConfig{
			Backend:       backend,
			Generator:     feedback.NewGenerator(a.LLM),
			History:       a.History,
			Log:           log.With("backend", name),
			Segment:       segCfg,
			Strategy:      strategy,
			Style:         annotate.DefaultStyle(),
			Language:      cfg.Language,
			CritiqueDelay: cfg.CritiqueDelay,
			WriteDelay:    cfg.WriteDelay,
		})
	}
	a.Local = worker(a.Store, "local")

	if cfg.DisableGoogle {
		a.RemoteErr = errors.New("google docs disabled by configuration")
		return a, nil
	}
	gd, err := gdocs.NewFromCredentials(ctx, cfg.GoogleCredentialsFile)
	if err != nil {
		a.RemoteErr = fmt.Errorf("google docs: %w", err)
		return a, nil
	}
	a.Remote = worker(gd, "gdocs")
	return a, nil
}

// Close releases network resources.
func (a *App) Close() {
	if a.kv != nil {
		a.kv.Close()
	}
}
