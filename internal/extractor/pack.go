package extractor

import (
	"finsense-go/internal/types"
)

// BuildPack turns one table row into an insight pack. Only eligible rows get KPIs and
// sentiment; others carry null KPIs and zero sentiment.
func BuildPack(rec types.TranscriptRecord) types.InsightPack {
	var (
		kpis types.KPIs
		sent types.Sentiment
	)
	if Eligible(rec) {
		kpis = ExtractKPIs(rec.Text)
		sent = Score(rec.Text)
	}

	return types.InsightPack{
		Ticker:        types.TickerFromHint(rec.CompanyHint),
		CompanyHint:   rec.CompanyHint,
		DocPath:       rec.DocPath,
		FiscalYear:    rec.FiscalYear,
		FiscalQuarter: rec.FiscalQuarter,
		SegmentIndex:  rec.SegmentIndex,
		Speaker:       rec.Speaker,
		Section:       rec.Section,
		Text:          rec.Text,
		Source:        rec.Source,
		IngestDate:    rec.IngestDate,

		KPIs:      kpis,
		Sentiment: sent,

		RevenueGrowthYoYPct:   kpis.RevenueGrowthYoYPct,
		EPSGrowthYoYPct:       kpis.EPSGrowthYoYPct,
		GuidanceComment:       kpis.GuidanceComment,
		MarginComment:         kpis.MarginComment,
		SentimentPolarity:     sent.Polarity,
		SentimentSubjectivity: sent.Subjectivity,
	}
}
