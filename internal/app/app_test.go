package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/pathstore"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.LLMAPIKey = "test"
	cfg.DisableGoogle = true
	return cfg
}

func TestNewLocalOnly(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), testConfig(), log)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Remote)
	assert.Error(t, a.RemoteErr)
	assert.NotNil(t, a.Local)
	assert.Equal(t, "claude-sonnet-4-5-20250929", a.LLM.Model())
	assert.IsType(t, &pathstore.MemoryHistory{}, a.History)
}

func TestNewRemoteHistory(t *testing.T) {
	cfg := testConfig()
	cfg.PathstoreURL = "http://localhost:1"
	cfg.PathstoreAPIKey = "ps"
	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &pathstore.RemoteHistory{}, a.History)
}

func TestNewRejectsBadSettings(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig()
	cfg.PlacementStrategy = "nearest"
	_, err := New(context.Background(), cfg, log)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.LLMProvider = "mystery"
	_, err = New(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "llm provider")
}
