package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"ingest": false, "extract": false, "summarize": false, "merge": false,
		"clean": false, "ask": false, "run": false, "stats": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "missing command %s", name)
	}
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	t.Setenv("FINSENSE_CONFIG", "")
	raw := filepath.Join(root, "data", "raw")
	require.NoError(t, os.MkdirAll(raw, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(raw, "NVDA_2024Q2_Transcript.txt"),
		[]byte("CFO: Revenue grew 18% year-over-year.\nOperator: Questions.\n"), 0o644))

	sums := filepath.Join(root, "data", "summaries")
	require.NoError(t, os.MkdirAll(sums, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sums, "NVDA_2024_Q2_summary.json"),
		[]byte(`{"summary": "Headline: strong.", "highlights": ["+18%"]}`), 0o644))

	out, err := execute(t, "--root", root, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "into 2 rows")
	assert.Contains(t, out, "Wrote 1 insight packs")
	assert.Contains(t, out, "1 updated, 0 skipped")

	b, err := os.ReadFile(filepath.Join(root, "data", "insights", "NVDA_2024_Q2_seg0.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ai_quarter_summary": "Headline: strong."`)

	out, err = execute(t, "--root", root, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_rows": 2`)
}

func TestIngest_NothingToDo(t *testing.T) {
	t.Setenv("FINSENSE_CONFIG", "")
	out, err := execute(t, "--root", t.TempDir(), "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to ingest.")
}

func TestSummarize_BadArgs(t *testing.T) {
	t.Setenv("FINSENSE_CONFIG", "")
	_, err := execute(t, "--root", t.TempDir(), "summarize", "NVDA", "2024")
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key, err := parseKey([]string{"nvda", "2024", "2"})
	require.NoError(t, err)
	assert.Equal(t, "NVDA_2024_Q2", key.String())

	_, err = parseKey([]string{"nvda", "twenty", "Q2"})
	assert.Error(t, err)
}
