// Package config loads the FinSense settings from configs/finsense.toml.
// Every field has a default, so a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultSpeakerLineRegex = `^(Operator|Q&A|Question-and-Answer Session|[A-Z][A-Z .,&()/-]{2,}):\s*`
	DefaultConfigPath       = "configs/finsense.toml"
)

type Config struct {
	ProjectName   string        `toml:"project_name"`
	DefaultSource string        `toml:"default_source"`
	Parse         ParseConfig   `toml:"parse"`
	Paths         PathsConfig   `toml:"paths"`
	Extract       ExtractConfig `toml:"extract"`
	LLM           LLMConfig     `toml:"llm"`

	// Root is the project root every relative path resolves against.
	Root string `toml:"-"`
}

type ParseConfig struct {
	AssumeTimezone   string `toml:"assume_timezone"`
	DetectQAMarkers  bool   `toml:"detect_qa_markers"`
	SpeakerLineRegex string `toml:"speaker_line_regex"`
}

type PathsConfig struct {
	Raw         string `toml:"raw"`
	Transcripts string `toml:"transcripts"`
	Insights    string `toml:"insights"`
	Summaries   string `toml:"summaries"`
	Archive     string `toml:"archive"`
}

type ExtractConfig struct {
	// AllSegments writes a pack for every segment instead of only CFO prepared remarks.
	AllSegments bool `toml:"all_segments"`
}

type LLMConfig struct {
	Provider          string  `toml:"provider"`
	Model             string  `toml:"model"`
	SummaryModel      string  `toml:"summary_model"`
	MaxRetries        int     `toml:"max_retries"`
	Temperature       float64 `toml:"temperature"`
	MaxTokens         int     `toml:"max_tokens"`
	RequestsPerMinute float64 `toml:"requests_per_minute"`
}

func Default() Config {
	return Config{
		ProjectName:   "FinSense",
		DefaultSource: "manual_drop",
		Parse: ParseConfig{
			AssumeTimezone:   "US/Eastern",
			DetectQAMarkers:  true,
			SpeakerLineRegex: DefaultSpeakerLineRegex,
		},
		Paths: PathsConfig{
			Raw:         filepath.FromSlash("data/raw"),
			Transcripts: filepath.FromSlash("data/processed/transcripts.csv"),
			Insights:    filepath.FromSlash("data/insights"),
			Summaries:   filepath.FromSlash("data/summaries"),
			Archive:     filepath.FromSlash("data/insights/archive"),
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			SummaryModel:      "gpt-4.1-mini",
			MaxRetries:        5,
			Temperature:       0.2,
			MaxTokens:         1024,
			RequestsPerMinute: 20,
		},
	}
}

// Load reads the config at path (or $FINSENSE_CONFIG, or <root>/configs/finsense.toml)
// on top of the defaults. root defaults to $FINSENSE_PROJECT_ROOT, then the working directory.
func Load(root, path string) (Config, error) {
	cfg := Default()

	if root == "" {
		root = os.Getenv("FINSENSE_PROJECT_ROOT")
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve project root: %w", err)
		}
		root = wd
	}
	cfg.Root = filepath.Clean(root)

	if path == "" {
		path = os.Getenv("FINSENSE_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	path = cfg.Resolve(path)

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Parse.SpeakerLineRegex) == "" {
		return errors.New("parse.speaker_line_regex must not be empty")
	}
	if _, err := regexp.Compile(c.Parse.SpeakerLineRegex); err != nil {
		return fmt.Errorf("parse.speaker_line_regex: %w", err)
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm.max_retries must be >= 0")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must be >= 0")
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider %q: want openai or anthropic", c.LLM.Provider)
	}
	return nil
}

// Resolve makes p absolute against the project root.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

func (c Config) RawDir() string          { return c.Resolve(c.Paths.Raw) }
func (c Config) TranscriptsPath() string { return c.Resolve(c.Paths.Transcripts) }
func (c Config) InsightsDir() string     { return c.Resolve(c.Paths.Insights) }
func (c Config) SummariesDir() string    { return c.Resolve(c.Paths.Summaries) }
func (c Config) ArchiveDir() string      { return c.Resolve(c.Paths.Archive) }
