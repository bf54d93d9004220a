package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("FINSENSE_CONFIG", "")
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "US/Eastern", cfg.Parse.AssumeTimezone)
	assert.True(t, cfg.Parse.DetectQAMarkers)
	assert.Equal(t, DefaultSpeakerLineRegex, cfg.Parse.SpeakerLineRegex)
	assert.Equal(t, "manual_drop", cfg.DefaultSource)
	assert.Equal(t, filepath.Join(root, "data", "raw"), cfg.RawDir())
	assert.Equal(t, filepath.Join(root, "data", "processed", "transcripts.csv"), cfg.TranscriptsPath())
}

func TestLoad_OverridesFromTOML(t *testing.T) {
	t.Setenv("FINSENSE_CONFIG", "")
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "configs"), 0o755))
	content := `
default_source = "ir_site"

[parse]
assume_timezone = "UTC"
detect_qa_markers = false
speaker_line_regex = '^([A-Z]+):'

[paths]
transcripts = "out/table.xlsx"

[llm]
provider = "anthropic"
max_retries = 2
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "configs", "finsense.toml"), []byte(content), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "ir_site", cfg.DefaultSource)
	assert.Equal(t, "UTC", cfg.Parse.AssumeTimezone)
	assert.False(t, cfg.Parse.DetectQAMarkers)
	assert.Equal(t, `^([A-Z]+):`, cfg.Parse.SpeakerLineRegex)
	assert.Equal(t, filepath.Join(root, "out", "table.xlsx"), cfg.TranscriptsPath())
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	// untouched sections keep defaults
	assert.Equal(t, filepath.Join(root, "data", "insights"), cfg.InsightsDir())
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	t.Setenv("FINSENSE_CONFIG", "")
	_, err := Load(t.TempDir(), "nope.toml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := Default()
	bad.Parse.SpeakerLineRegex = "(unclosed"
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.LLM.Provider = "palm"
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.LLM.MaxRetries = -1
	assert.Error(t, bad.Validate())
}
