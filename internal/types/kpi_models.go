// internal/types/kpi_models.go
package types

import "fmt"

// --------------------------------------------
// Heuristic KPI block (nil = not found)
// --------------------------------------------
type KPIs struct {
	RevenueGrowthYoYPct *int    `json:"revenue_growth_yoy_pct"`
	EPSGrowthYoYPct     *int    `json:"eps_growth_yoy_pct"`
	GuidanceComment     *string `json:"guidance_comment"`
	MarginComment       *string `json:"margin_comment"`
}

// --------------------------------------------
// Lexical sentiment: polarity in [-1,1], subjectivity in [0,1]
// --------------------------------------------
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// --------------------------------------------
// Insight pack written once per segment
// --------------------------------------------
type InsightPack struct {
	Ticker        string  `json:"ticker"`
	CompanyHint   string  `json:"company_hint"`
	DocPath       string  `json:"doc_path"`
	FiscalYear    *int    `json:"fiscal_year"`
	FiscalQuarter *string `json:"fiscal_quarter"`
	SegmentIndex  int     `json:"segment_index"`
	Speaker       string  `json:"speaker"`
	Section       Section `json:"section"`
	Text          string  `json:"text"`
	Source        string  `json:"source"`
	IngestDate    string  `json:"ingest_date"`

	KPIs      KPIs      `json:"kpis"`
	Sentiment Sentiment `json:"sentiment"`

	// flat copies kept for older consumers of the pack files
	RevenueGrowthYoYPct   *int    `json:"revenue_growth_yoy_pct"`
	EPSGrowthYoYPct       *int    `json:"eps_growth_yoy_pct"`
	GuidanceComment       *string `json:"guidance_comment"`
	MarginComment         *string `json:"margin_comment"`
	SentimentPolarity     float64 `json:"sentiment_polarity"`
	SentimentSubjectivity float64 `json:"sentiment_subjectivity"`

	AIQuarterSummary    string   `json:"ai_quarter_summary,omitempty"`
	AIQuarterHighlights []string `json:"ai_quarter_highlights,omitempty"`
}

// --------------------------------------------
// Join key for quarter summaries
// --------------------------------------------
type QuarterKey struct {
	Ticker        string `json:"ticker"`
	FiscalYear    int    `json:"fiscal_year"`
	FiscalQuarter string `json:"fiscal_quarter"`
}

func (k QuarterKey) String() string {
	return fmt.Sprintf("%s_%d_%s", k.Ticker, k.FiscalYear, k.FiscalQuarter)
}

// --------------------------------------------
// Quarter summary as written by the summarizer
// --------------------------------------------
type QuarterSummary struct {
	Ticker        string         `json:"ticker"`
	FiscalYear    int            `json:"fiscal_year"`
	FiscalQuarter string         `json:"fiscal_quarter"`
	Summary       string         `json:"summary"`
	Highlights    []string       `json:"highlights,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
}

func (s QuarterSummary) Key() QuarterKey {
	return QuarterKey{Ticker: s.Ticker, FiscalYear: s.FiscalYear, FiscalQuarter: s.FiscalQuarter}
}
