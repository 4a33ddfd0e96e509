package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setServerEnv(t *testing.T, apiKey string) {
	t.Helper()
	for _, k := range []string{"PORT", "LLM_PROVIDER", "LLM_BASE_URL", "PATHSTORE_URL", "PATHSTORE_API_KEY", "DOCREVIEW_CONFIG"} {
		t.Setenv(k, "")
	}
	t.Setenv("LLM_API_KEY", "k")
	t.Setenv("LLM_MODEL", "m")
	t.Setenv("DOCREVIEW_API_KEY", apiKey)
}

func TestLoadConfigPortFlag(t *testing.T) {
	setServerEnv(t, "secret")

	cfg, err := loadConfig("", "9191")
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Port)

	cfg, err = loadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
}

func TestServerRefusesToStartWithoutAPIKey(t *testing.T) {
	setServerEnv(t, "")

	cmd := newRootCmd(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cmd.SetArgs([]string{"--port", "0"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCREVIEW_API_KEY")
}

func TestServerRejectsArgs(t *testing.T) {
	cmd := newRootCmd(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
