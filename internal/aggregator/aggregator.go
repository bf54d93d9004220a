package aggregator

import (
	"sort"

	"finsense-go/internal/types"
)

// QuarterGroup holds the rows of one (ticker, year, quarter), in table order.
type QuarterGroup struct {
	Key     types.QuarterKey
	Records []types.TranscriptRecord
}

// GroupByQuarter buckets rows by quarter key. Rows without year or quarter are dropped.
// Within a group, rows keep their document order (doc_path, then segment_index).
func GroupByQuarter(records []types.TranscriptRecord) []QuarterGroup {
	byKey := map[types.QuarterKey]*QuarterGroup{}
	for _, r := range records {
		if !r.Metadata().HasQuarter() {
			continue
		}
		key := types.QuarterKey{
			Ticker:        types.TickerFromHint(r.CompanyHint),
			FiscalYear:    *r.FiscalYear,
			FiscalQuarter: *r.FiscalQuarter,
		}
		if key.Ticker == "" {
			key.Ticker = "UNKNOWN"
		}
		g, ok := byKey[key]
		if !ok {
			g = &QuarterGroup{Key: key}
			byKey[key] = g
		}
		g.Records = append(g.Records, r)
	}

	out := make([]QuarterGroup, 0, len(byKey))
	for _, g := range byKey {
		sort.SliceStable(g.Records, func(i, j int) bool {
			a, b := g.Records[i], g.Records[j]
			if a.DocPath != b.DocPath {
				return a.DocPath < b.DocPath
			}
			return a.SegmentIndex < b.SegmentIndex
		})
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Key, out[j].Key) })
	return out
}

// Find returns the group for key, if any.
func Find(groups []QuarterGroup, key types.QuarterKey) (QuarterGroup, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return QuarterGroup{}, false
}

// QuarterRollup summarises the insight packs of one quarter.
type QuarterRollup struct {
	Key                 types.QuarterKey `json:"key"`
	Packs               int              `json:"packs"`
	AvgPolarity         float64          `json:"avg_polarity"`
	AvgSubjectivity     float64          `json:"avg_subjectivity"`
	RevenueGrowthYoYPct *int             `json:"revenue_growth_yoy_pct"`
	EPSGrowthYoYPct     *int             `json:"eps_growth_yoy_pct"`
	MentionsGuidance    bool             `json:"mentions_guidance"`
	MentionsMargin      bool             `json:"mentions_margin"`
	HasAIQuarterSummary bool             `json:"has_ai_quarter_summary"`
}

// Rollup aggregates packs per quarter. The first pack (by segment order) reporting a growth
// figure supplies it.
func Rollup(packs []types.InsightPack) []QuarterRollup {
	sorted := append([]types.InsightPack(nil), packs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SegmentIndex < sorted[j].SegmentIndex })

	byKey := map[types.QuarterKey]*QuarterRollup{}
	for _, p := range sorted {
		if p.FiscalYear == nil || p.FiscalQuarter == nil {
			continue
		}
		ticker := p.Ticker
		if ticker == "" {
			ticker = types.TickerFromHint(p.CompanyHint)
		}
		key := types.QuarterKey{Ticker: ticker, FiscalYear: *p.FiscalYear, FiscalQuarter: *p.FiscalQuarter}
		r, ok := byKey[key]
		if !ok {
			r = &QuarterRollup{Key: key}
			byKey[key] = r
		}
		r.Packs++
		r.AvgPolarity += p.Sentiment.Polarity
		r.AvgSubjectivity += p.Sentiment.Subjectivity
		if r.RevenueGrowthYoYPct == nil {
			r.RevenueGrowthYoYPct = p.KPIs.RevenueGrowthYoYPct
		}
		if r.EPSGrowthYoYPct == nil {
			r.EPSGrowthYoYPct = p.KPIs.EPSGrowthYoYPct
		}
		r.MentionsGuidance = r.MentionsGuidance || p.KPIs.GuidanceComment != nil
		r.MentionsMargin = r.MentionsMargin || p.KPIs.MarginComment != nil
		r.HasAIQuarterSummary = r.HasAIQuarterSummary || p.AIQuarterSummary != ""
	}

	out := make([]QuarterRollup, 0, len(byKey))
	for _, r := range byKey {
		r.AvgPolarity /= float64(r.Packs)
		r.AvgSubjectivity /= float64(r.Packs)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Key, out[j].Key) })
	return out
}

func lessKey(a, b types.QuarterKey) bool {
	if a.Ticker != b.Ticker {
		return a.Ticker < b.Ticker
	}
	if a.FiscalYear != b.FiscalYear {
		return a.FiscalYear < b.FiscalYear
	}
	return a.FiscalQuarter < b.FiscalQuarter
}
