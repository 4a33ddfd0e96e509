package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docreview/internal/pipeline"
)

const sample = `Opening remarks that set the scene for the memo.

1. Scope

The scope of the change covers the billing service and the two reporting jobs that read from it. Nothing in the customer-facing API moves, and the nightly export keeps its current schedule for the rest of the year.
`

func TestWriteOutputYAML(t *testing.T) {
	var buf bytes.Buffer
	report := &pipeline.Report{RunID: "r1", DocumentID: "DOC1", WritesAttempted: 2, WritesSucceeded: 1}
	require.NoError(t, writeOutput(&buf, "yaml", report))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "DOC1", got["document_id"])
	assert.Equal(t, 1, got["writes_succeeded"])
	assert.NotContains(t, got, "summary")
}

func TestWriteOutputRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, writeOutput(&bytes.Buffer{}, "xml", struct{}{}))
}

func TestSectionsCommandLocalFile(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("PATHSTORE_URL", "")
	path := filepath.Join(t.TempDir(), "memo.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sections", "--file", path, "--output", "json"})
	t.Cleanup(func() { localFile = ""; outputFormat = "yaml" })
	require.NoError(t, rootCmd.Execute())

	var preview pipeline.Preview
	require.NoError(t, json.Unmarshal(out.Bytes(), &preview))
	assert.Equal(t, "memo", preview.Title)
	require.Len(t, preview.Sections, 2)
	assert.Equal(t, "Introduction", preview.Sections[0].Title)
	assert.Equal(t, "1. Scope", preview.Sections[1].Title)
	assert.Equal(t, []string{"1. Scope"}, preview.Selected)
}
