package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docreview/internal/app"
	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/parser"
	"github.com/dgallion1/docreview/internal/pipeline"
)

// localDocID is the store key used for a file reviewed from disk.
const localDocID = "local"

var (
	rootCmd = &cobra.Command{
		Use:           "docreview",
		Short:         "Write AI feedback into Google Docs or local documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configPath   string
	verbose      bool
	outputFormat string
	localFile    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("DOCREVIEW_CONFIG"), "Optional YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format: yaml or json")
	rootCmd.PersistentFlags().StringVarP(&localFile, "file", "f", "", "Review a local file (txt, md, html, docx, pdf) instead of a Google Doc")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(sectionsCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads configuration and wires the application.
func setup(ctx context.Context) (config.Config, *app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return cfg, nil, err
	}
	if localFile != "" {
		cfg.DisableGoogle = true
	}
	a, err := app.New(ctx, cfg, newLogger())
	if err != nil {
		return cfg, nil, err
	}
	return cfg, a, nil
}

// target picks the worker and document reference for the command's input.
// A local file is parsed into the in-memory store first.
func target(cfg config.Config, a *app.App, args []string) (*pipeline.Worker, string, error) {
	if localFile != "" {
		if err := loadLocal(a, cfg, localFile); err != nil {
			return nil, "", err
		}
		return a.Local, localDocID, nil
	}
	if len(args) != 1 {
		return nil, "", fmt.Errorf("expected one Google Doc URL or id, or --file")
	}
	if a.Remote == nil {
		return nil, "", a.RemoteErr
	}
	return a.Remote, args[0], nil
}

func loadLocal(a *app.App, cfg config.Config, path string) error {
	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	file, err := p.Parse(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	a.Store.Put(localDocID, file)
	return nil
}
