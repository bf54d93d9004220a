package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense-go/internal/types"
)

func TestExtractKPIs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		text         string
		wantRevenue  *int
		wantEPS      *int
		wantGuidance bool
		wantMargin   bool
	}{
		{
			name:        "revenue hyphenated",
			text:        "Revenue grew 12% year-over-year.",
			wantRevenue: types.IntPtr(12),
		},
		{
			name:        "revenue spaced and upper case",
			text:        "Sales were UP 7% YEAR OVER YEAR",
			wantRevenue: types.IntPtr(7),
		},
		{
			name:        "revenue joined words",
			text:        "grew 30% yearoveryear",
			wantRevenue: types.IntPtr(30),
		},
		{
			name:        "first match wins",
			text:        "Data center rose 40% year-over-year and gaming 5% year-over-year.",
			wantRevenue: types.IntPtr(40),
		},
		{
			name:    "eps growth",
			text:    "EPS grew 9% and EPS increased 11% later",
			wantEPS: types.IntPtr(9),
		},
		{
			name:    "eps up",
			text:    "eps up 3%",
			wantEPS: types.IntPtr(3),
		},
		{
			name:         "guidance flag via outlook",
			text:         "Our outlook for Q3 is unchanged.",
			wantGuidance: true,
		},
		{
			name:       "margin flag",
			text:       "Gross margins expanded.",
			wantMargin: true,
		},
		{
			name: "percent without year-over-year is ignored",
			text: "Revenue grew 18% sequentially.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k := ExtractKPIs(tc.text)
			assert.Equal(t, tc.wantRevenue, k.RevenueGrowthYoYPct)
			assert.Equal(t, tc.wantEPS, k.EPSGrowthYoYPct)
			if tc.wantGuidance {
				require.NotNil(t, k.GuidanceComment)
				assert.Equal(t, PresenceMarker, *k.GuidanceComment)
			} else {
				assert.Nil(t, k.GuidanceComment)
			}
			if tc.wantMargin {
				require.NotNil(t, k.MarginComment)
				assert.Equal(t, PresenceMarker, *k.MarginComment)
			} else {
				assert.Nil(t, k.MarginComment)
			}
		})
	}
}

func TestExtractKPIs_BlankText(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   \n\t"} {
		assert.Equal(t, types.KPIs{}, ExtractKPIs(text))
		assert.Equal(t, types.Sentiment{}, Score(text))
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	pos := Score("We delivered an excellent, record quarter and we are very happy with the great results.")
	neg := Score("This was a terrible quarter with awful losses and a painful decline.")

	assert.Greater(t, pos.Polarity, 0.0)
	assert.Less(t, neg.Polarity, 0.0)
	for _, s := range []types.Sentiment{pos, neg} {
		assert.GreaterOrEqual(t, s.Polarity, -1.0)
		assert.LessOrEqual(t, s.Polarity, 1.0)
		assert.GreaterOrEqual(t, s.Subjectivity, 0.0)
		assert.LessOrEqual(t, s.Subjectivity, 1.0)
	}
}

func TestEligible(t *testing.T) {
	t.Parallel()

	assert.True(t, Eligible(types.TranscriptRecord{Speaker: "COLETTE KRESS, CFO", Section: types.SectionPreparedRemarks}))
	assert.True(t, Eligible(types.TranscriptRecord{Speaker: "cfo", Section: types.SectionPreparedRemarks}))
	assert.False(t, Eligible(types.TranscriptRecord{Speaker: "CFO", Section: types.SectionQA}))
	assert.False(t, Eligible(types.TranscriptRecord{Speaker: "CEO", Section: types.SectionPreparedRemarks}))
}

func TestBuildPack(t *testing.T) {
	t.Parallel()

	rec := types.TranscriptRecord{
		DocPath:       "data/raw/NVDA_2024Q2_Transcript.txt",
		CompanyHint:   "NVDA",
		FiscalYear:    types.IntPtr(2024),
		FiscalQuarter: types.StringPtr("Q2"),
		IngestDate:    "2024-08-29",
		SegmentIndex:  0,
		Speaker:       "CFO",
		Section:       types.SectionPreparedRemarks,
		Text:          "Revenue grew 18% year-over-year.",
		Source:        "manual_drop",
	}

	pack := BuildPack(rec)
	assert.Equal(t, "NVDA", pack.Ticker)
	require.NotNil(t, pack.KPIs.RevenueGrowthYoYPct)
	assert.Equal(t, 18, *pack.KPIs.RevenueGrowthYoYPct)
	assert.Equal(t, pack.KPIs.RevenueGrowthYoYPct, pack.RevenueGrowthYoYPct)
	assert.Equal(t, pack.Sentiment.Polarity, pack.SentimentPolarity)
	assert.Empty(t, pack.AIQuarterSummary)

	rec.Speaker = "Operator"
	other := BuildPack(rec)
	assert.Equal(t, types.KPIs{}, other.KPIs)
	assert.Equal(t, types.Sentiment{}, other.Sentiment)
	assert.Equal(t, rec.Text, other.Text)
}
