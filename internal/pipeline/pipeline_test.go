package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense-go/internal/config"
	"finsense-go/internal/dataset"
	"finsense-go/internal/insights"
	"finsense-go/internal/logger"
	"finsense-go/internal/types"
)

const nvdaCall = "CFO: Revenue grew 18% year-over-year. EPS grew 12% and our outlook is strong.\n" +
	"Operator: We will now begin the question session.\n" +
	"Q&A: How are gross margins trending?\n"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	return cfg
}

func writeRaw(t *testing.T, cfg config.Config, rel, content string) {
	t.Helper()
	path := filepath.Join(cfg.RawDir(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildRecords(t *testing.T) {
	t.Parallel()

	meta := types.DocumentMetadata{CompanyHint: "NVDA", FiscalYear: types.IntPtr(2024), FiscalQuarter: types.StringPtr("Q2")}
	segs := []types.Segment{
		{Speaker: types.SpeakerPreface, Section: types.SectionPreface, Content: "cover", Index: 0},
		{Speaker: "CFO", Section: types.SectionPreparedRemarks, Content: "numbers", Index: 1},
	}
	recs := BuildRecords("data/raw/x.txt", meta, segs, "2024-08-28", "manual_drop")
	require.Len(t, recs, 2)
	for i, r := range recs {
		assert.Equal(t, i, r.SegmentIndex)
		assert.Equal(t, meta, r.Metadata())
		assert.Equal(t, "2024-08-28", r.IngestDate)
		assert.Equal(t, "manual_drop", r.Source)
		assert.Equal(t, "data/raw/x.txt", r.DocPath)
	}
	assert.Equal(t, "numbers", recs[1].Text)

	assert.Empty(t, BuildRecords("x", meta, nil, "d", "s"))
}

func TestIngestDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 8, 29, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-08-28", IngestDate(now, "America/New_York", logger.Discard()))
	assert.Equal(t, "2024-08-29", IngestDate(now, "Not/AZone", logger.Discard()))
	assert.Equal(t, "2024-08-29", IngestDate(now, "", logger.Discard()))
}

func TestDocPath(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/srv/finsense")
	assert.Equal(t, "data/raw/a.txt", docPath(root, filepath.Join(root, "data", "raw", "a.txt")))
	assert.Equal(t, "/elsewhere/a.txt", docPath(root, filepath.FromSlash("/elsewhere/a.txt")))
}

func TestIngest_MissingRawDir(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	res, err := Ingest(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, IngestResult{}, res)
	assert.NoFileExists(t, cfg.TranscriptsPath())
}

func TestIngest_SkipsBadDocuments(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	writeRaw(t, cfg, "NVDA_2024Q2_Transcript.txt", nvdaCall)
	writeRaw(t, cfg, "nested/AAPL Q4 2023.txt", "Cover page\n\nCEO: Hello.\n")
	writeRaw(t, cfg, "broken.pdf", "not a pdf at all")
	writeRaw(t, cfg, "empty.txt", "  \n\n")
	writeRaw(t, cfg, "notes.md", "CFO: ignored")

	res, err := Ingest(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 5, res.Records)

	recs, err := dataset.Read(cfg.TranscriptsPath())
	require.NoError(t, err)
	require.Len(t, recs, 5)

	// sorted discovery: NVDA_... sorts before nested/
	assert.Equal(t, "data/raw/NVDA_2024Q2_Transcript.txt", recs[0].DocPath)
	assert.Equal(t, "NVDA", recs[0].CompanyHint)
	assert.Equal(t, "CFO", recs[0].Speaker)
	assert.Equal(t, types.SectionQA, recs[2].Section)

	aapl := recs[3:]
	assert.Equal(t, "data/raw/nested/AAPL Q4 2023.txt", aapl[0].DocPath)
	assert.Equal(t, types.SectionPreface, aapl[0].Section)
	assert.Equal(t, 1, aapl[1].SegmentIndex)
	require.NotNil(t, aapl[1].FiscalYear)
	assert.Equal(t, 2023, *aapl[1].FiscalYear)
}

func TestIngest_InvalidRegex(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Parse.SpeakerLineRegex = "(unclosed"
	_, err := Ingest(context.Background(), cfg, logger.Discard())
	assert.Error(t, err)
}

func TestIngest_Cancelled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	writeRaw(t, cfg, "NVDA_2024Q2_Transcript.txt", nvdaCall)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Ingest(ctx, cfg, logger.Discard())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.TranscriptsPath())
}

func TestIngestThenExtract(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	writeRaw(t, cfg, "NVDA_2024Q2_Transcript.txt", nvdaCall)

	_, err := Ingest(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	res, err := Extract(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, ExtractResult{Rows: 3, Packs: 1}, res)

	names, err := insights.List(cfg.InsightsDir())
	require.NoError(t, err)
	require.Equal(t, []string{"NVDA_2024_Q2_seg0.json"}, names)

	p, err := insights.Read(filepath.Join(cfg.InsightsDir(), names[0]))
	require.NoError(t, err)
	assert.Equal(t, "NVDA", p.Ticker)
	require.NotNil(t, p.KPIs.RevenueGrowthYoYPct)
	assert.Equal(t, 18, *p.KPIs.RevenueGrowthYoYPct)
	require.NotNil(t, p.KPIs.EPSGrowthYoYPct)
	assert.Equal(t, 12, *p.KPIs.EPSGrowthYoYPct)
	assert.NotNil(t, p.KPIs.GuidanceComment)
	assert.Greater(t, p.Sentiment.Polarity, 0.0)
}

func TestExtract_AllSegments(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Extract.AllSegments = true
	writeRaw(t, cfg, "NVDA_2024Q2_Transcript.txt", nvdaCall)
	_, err := Ingest(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	res, err := Extract(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Packs)

	p, err := insights.Read(filepath.Join(cfg.InsightsDir(), "NVDA_2024_Q2_seg2.json"))
	require.NoError(t, err)
	assert.Nil(t, p.KPIs.MarginComment, "non-CFO rows carry no KPIs")
	assert.Zero(t, p.Sentiment.Polarity)
}

func TestExtract_NoTable(t *testing.T) {
	t.Parallel()

	res, err := Extract(context.Background(), testConfig(t), logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, ExtractResult{}, res)
}
