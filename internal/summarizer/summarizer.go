// Package summarizer writes one narrative summary per (ticker, year, quarter) using an LLM.
// Its output files are what the merger later embeds into insight packs.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"golang.org/x/time/rate"

	"finsense-go/internal/aggregator"
	"finsense-go/internal/config"
	"finsense-go/internal/fileutil"
	"finsense-go/internal/llm"
	"finsense-go/internal/logger"
	"finsense-go/internal/types"
)

// ErrNoTextInGroup means a quarter had rows but no usable text; the quarter is skipped.
var ErrNoTextInGroup = errors.New("no text in quarter group")

const (
	maxTextChars    = 5000
	truncatedMarker = "\n\n[Truncated for length…]"
	fallbackRows    = 3
)

const systemPrompt = `You are FinSense, a buy-side style earnings-call analyst.

You receive:
- basic metadata about an earnings set (ticker, company, quarter),
- the CFO's prepared remarks text (or full text if needed).

You must return a concise but useful summary for a portfolio manager.

Formatting rules for "summary":
- Use short paragraphs.
- Lead with 'Headline' (1-2 sentences on the quarter).
- Then cover: growth & revenue drivers; margins / profitability; guidance & outlook; risks / watchpoints.
- Be specific and quantitative when numbers are present.
- If information is missing (e.g., no guidance), say so explicitly.

"highlights" holds 3-6 short bullet strings.

Return ONLY a JSON object matching this schema:
%s`

// Output is the JSON the model is asked to return.
type Output struct {
	Summary    string   `json:"summary" jsonschema:"required,description=Analyst summary of the quarter"`
	Highlights []string `json:"highlights" jsonschema:"required,description=Short bullet highlights"`
}

func outputSchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	b, err := json.MarshalIndent(reflector.Reflect(&Output{}), "", "  ")
	if err != nil {
		// reflection of a fixed struct cannot fail
		panic(err)
	}
	return string(b)
}

// Selection is the text chosen for one quarter plus the metadata sent alongside it.
type Selection struct {
	Text string
	Meta map[string]any
}

// SelectText prefers CFO prepared remarks, then any prepared remarks, then the first few
// segments. Texts are joined with blank lines and truncated.
func SelectText(g aggregator.QuarterGroup) (Selection, error) {
	chosen, speaker := pick(g.Records)

	var parts []string
	docs := map[string]struct{}{}
	for _, r := range chosen {
		if t := strings.TrimSpace(r.Text); t != "" {
			parts = append(parts, t)
			docs[r.DocPath] = struct{}{}
		}
	}
	if len(parts) == 0 {
		return Selection{}, fmt.Errorf("%s: %w", g.Key, ErrNoTextInGroup)
	}

	text := strings.Join(parts, "\n\n")
	if r := []rune(text); len(r) > maxTextChars {
		text = string(r[:maxTextChars]) + truncatedMarker
	}

	sourceDocs := make([]string, 0, len(docs))
	for d := range docs {
		sourceDocs = append(sourceDocs, d)
	}
	sort.Strings(sourceDocs)

	companyHint := g.Key.Ticker
	if len(chosen) > 0 && chosen[0].CompanyHint != "" {
		companyHint = chosen[0].CompanyHint
	}

	return Selection{
		Text: text,
		Meta: map[string]any{
			"ticker":         g.Key.Ticker,
			"company_hint":   companyHint,
			"fiscal_year":    g.Key.FiscalYear,
			"fiscal_quarter": g.Key.FiscalQuarter,
			"speaker":        speaker,
			"segment_count":  len(parts),
			"source_docs":    sourceDocs,
		},
	}, nil
}

func pick(records []types.TranscriptRecord) ([]types.TranscriptRecord, string) {
	var cfo, prepared []types.TranscriptRecord
	for _, r := range records {
		if r.Section != types.SectionPreparedRemarks {
			continue
		}
		prepared = append(prepared, r)
		if strings.Contains(strings.ToLower(r.Speaker), "cfo") {
			cfo = append(cfo, r)
		}
	}
	switch {
	case len(cfo) > 0:
		return cfo, "CFO prepared remarks"
	case len(prepared) > 0:
		return prepared, "prepared remarks"
	}
	if len(records) > fallbackRows {
		records = records[:fallbackRows]
	}
	return records, "first segments"
}

type Summarizer struct {
	llm         llm.Client
	limiter     *rate.Limiter
	model       string
	temperature float64
	maxTokens   int
	outDir      string
	schema      string
	log         *logger.Logger
}

// New paces calls at cfg.LLM.RequestsPerMinute; zero disables pacing.
func New(client llm.Client, cfg config.Config, log *logger.Logger) *Summarizer {
	limit := rate.Inf
	if cfg.LLM.RequestsPerMinute > 0 {
		limit = rate.Every(time.Duration(float64(time.Minute) / cfg.LLM.RequestsPerMinute))
	}
	model := cfg.LLM.SummaryModel
	if model == "" {
		model = cfg.LLM.Model
	}
	return &Summarizer{
		llm:         client,
		limiter:     rate.NewLimiter(limit, 1),
		model:       model,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
		outDir:      cfg.SummariesDir(),
		schema:      outputSchema(),
		log:         log.Component("summarizer"),
	}
}

// Summarize asks the model about one quarter. A reply that is not JSON is kept verbatim
// as the summary text.
func (s *Summarizer) Summarize(ctx context.Context, g aggregator.QuarterGroup) (types.QuarterSummary, error) {
	sel, err := SelectText(g)
	if err != nil {
		return types.QuarterSummary{}, err
	}
	metaJSON, err := json.MarshalIndent(sel.Meta, "", "  ")
	if err != nil {
		return types.QuarterSummary{}, fmt.Errorf("marshal meta: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return types.QuarterSummary{}, err
	}

	prompt := "Here is the earnings context and CFO remarks. Summarize this quarter following the format rules.\n\n" +
		"METADATA:\n" + string(metaJSON) + "\n\n" +
		"CFO / FULL TEXT (truncated):\n" + sel.Text

	reply, err := s.llm.Complete(ctx, llm.Request{
		System:      fmt.Sprintf(systemPrompt, s.schema),
		Prompt:      prompt,
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return types.QuarterSummary{}, fmt.Errorf("summarize %s: %w", g.Key, err)
	}

	var out Output
	if err := fileutil.DecodeModelJSON(reply, &out); err != nil || strings.TrimSpace(out.Summary) == "" {
		s.log.WithField("quarter", g.Key.String()).Warn("model reply was not the expected JSON; storing raw text")
		out = Output{Summary: strings.TrimSpace(reply)}
	}

	return types.QuarterSummary{
		Ticker:        g.Key.Ticker,
		FiscalYear:    g.Key.FiscalYear,
		FiscalQuarter: g.Key.FiscalQuarter,
		Summary:       out.Summary,
		Highlights:    out.Highlights,
		Meta:          sel.Meta,
	}, nil
}

// FileName is {TICKER}_{year}_{quarter}_summary.json.
func FileName(key types.QuarterKey) string {
	return fileutil.SafeFilename(key.String() + "_summary.json")
}

func (s *Summarizer) Write(sum types.QuarterSummary) (string, error) {
	path := filepath.Join(s.outDir, FileName(sum.Key()))
	if err := fileutil.WriteJSONFileAtomic(path, sum); err != nil {
		return "", fmt.Errorf("write summary %s: %w", path, err)
	}
	return path, nil
}

type Result struct {
	Written int
	Skipped int
	Failed  int
}

// Run summarises every group. Empty groups are skipped and single failures are logged;
// only auth errors and cancellation stop the batch.
func (s *Summarizer) Run(ctx context.Context, groups []aggregator.QuarterGroup) (Result, error) {
	var res Result
	for _, g := range groups {
		entry := s.log.WithField("quarter", g.Key.String())

		sum, err := s.Summarize(ctx, g)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoTextInGroup):
			entry.Warn("no text for quarter; skipping")
			res.Skipped++
			continue
		case errors.Is(err, llm.ErrAuth), ctx.Err() != nil:
			return res, err
		default:
			entry.WithField("error", err.Error()).Error("summarization failed")
			res.Failed++
			continue
		}

		path, err := s.Write(sum)
		if err != nil {
			entry.WithField("error", err.Error()).Error("write failed")
			res.Failed++
			continue
		}
		entry.WithField("path", path).Info("wrote quarter summary")
		res.Written++
	}
	return res, nil
}
