// Package merger embeds quarter summaries into insight packs.
//
// Packs and summaries are handled as generic JSON objects so unknown fields survive a
// merge untouched. Output is key-sorted, so merging twice gives byte-identical files.
package merger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"finsense-go/internal/fileutil"
	"finsense-go/internal/insights"
	"finsense-go/internal/logger"
	"finsense-go/internal/types"
)

const (
	summarySuffix      = "_summary.json"
	placeholderSummary = "No AI summary text stored for this quarter."

	keySummary    = "ai_quarter_summary"
	keyHighlights = "ai_quarter_highlights"
)

// Summaries maps a quarter key to the raw summary object.
type Summaries map[types.QuarterKey]map[string]any

// LoadSummaries reads every *_summary.json in dir. The key comes from the filename
// ({TICKER}_{year}_{quarter}_summary.json); unreadable or oddly named files are logged and skipped.
// A missing dir yields an empty set.
func LoadSummaries(dir string, log *logger.Logger) (Summaries, error) {
	log = log.Component("merger.summaries")
	out := Summaries{}

	ok, err := fileutil.DirExists(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.WithField("dir", dir).Warn("summaries dir does not exist")
		return out, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"+summarySuffix))
	if err != nil {
		return nil, err
	}
	for _, path := range matches {
		name := filepath.Base(path)
		entry := log.WithField("summary", name)

		key, ok := keyFromSummaryName(name)
		if !ok {
			entry.Warn("unexpected summary filename format")
			continue
		}
		obj, err := readObject(path)
		if err != nil {
			entry.WithField("error", err.Error()).Warn("could not read summary")
			continue
		}
		out[key] = obj
	}

	log.WithField("count", len(out)).Info("loaded quarter summaries")
	return out, nil
}

func keyFromSummaryName(name string) (types.QuarterKey, bool) {
	stem := strings.TrimSuffix(name, summarySuffix)
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return types.QuarterKey{}, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return types.QuarterKey{}, false
	}
	ticker := strings.ToUpper(parts[0])
	if ticker == "" {
		return types.QuarterKey{}, false
	}
	return types.QuarterKey{Ticker: ticker, FiscalYear: year, FiscalQuarter: parts[2]}, true
}

type Result struct {
	Updated int
	Skipped int
	Failed  int
}

// Merge embeds matching summaries into every pack in insightsDir. Packs without a
// matching summary, or without year/quarter, are left untouched and counted as skipped.
// A pack that cannot be read is logged, counted as failed, and the batch continues.
func Merge(insightsDir string, summaries Summaries, log *logger.Logger) (Result, error) {
	log = log.Component("merger")
	var res Result

	names, err := insights.List(insightsDir)
	if err != nil {
		return res, err
	}
	if len(summaries) == 0 {
		log.Warn("no quarter summaries found; nothing to merge")
		res.Skipped = len(names)
		return res, nil
	}

	for _, name := range names {
		path := filepath.Join(insightsDir, name)
		entry := log.WithField("pack", name)

		original, err := os.ReadFile(path)
		if err != nil {
			entry.WithField("error", err.Error()).Warn("could not read insight pack")
			res.Failed++
			continue
		}
		pack, err := decodeObject(original)
		if err != nil {
			entry.WithField("error", err.Error()).Warn("could not decode insight pack")
			res.Failed++
			continue
		}

		key, ok := PackKey(name, pack)
		if !ok {
			res.Skipped++
			continue
		}
		summary, ok := summaries[key]
		if !ok {
			res.Skipped++
			continue
		}

		Apply(pack, key.Ticker, summary)

		merged, err := fileutil.MarshalJSONStable(pack)
		if err != nil {
			entry.WithField("error", err.Error()).Error("encode failed")
			res.Failed++
			continue
		}
		if !bytes.Equal(merged, original) {
			if err := fileutil.WriteFileAtomic(path, merged, 0o644); err != nil {
				entry.WithField("error", err.Error()).Error("write failed")
				res.Failed++
				continue
			}
		}
		res.Updated++
	}

	log.WithFields(map[string]interface{}{
		"updated": res.Updated,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	}).Info("merge complete")
	return res, nil
}

// PackKey resolves the join key of a pack. Ticker priority: explicit "ticker" field,
// filename prefix before the first '_', first token of company_hint, then UNKNOWN.
func PackKey(fileName string, pack map[string]any) (types.QuarterKey, bool) {
	year, ok := intValue(pack["fiscal_year"])
	if !ok {
		return types.QuarterKey{}, false
	}
	quarter, ok := pack["fiscal_quarter"].(string)
	if !ok || strings.TrimSpace(quarter) == "" {
		return types.QuarterKey{}, false
	}
	return types.QuarterKey{Ticker: inferTicker(fileName, pack), FiscalYear: year, FiscalQuarter: quarter}, true
}

func inferTicker(fileName string, pack map[string]any) string {
	if t, ok := pack["ticker"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.ToUpper(strings.TrimSpace(t))
	}
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if i := strings.Index(stem, "_"); i > 0 {
		return strings.ToUpper(stem[:i])
	}
	if hint, ok := pack["company_hint"].(string); ok {
		if t := types.TickerFromHint(hint); t != "" {
			return t
		}
	}
	return "UNKNOWN"
}

// Apply writes the summary fields into pack. Summary text prefers "ai_quarter_summary",
// then "summary", then a placeholder; highlights prefer "highlights", then "bullets".
func Apply(pack map[string]any, ticker string, summary map[string]any) {
	pack["ticker"] = ticker

	text, ok := summary[keySummary]
	if !ok {
		text, ok = summary["summary"]
	}
	if !ok || text == nil {
		text = placeholderSummary
	}
	pack[keySummary] = text

	highlights, ok := summary["highlights"]
	if !ok {
		highlights, ok = summary["bullets"]
	}
	if !ok || highlights == nil {
		highlights = []any{}
	}
	pack[keyHighlights] = highlights
}

func readObject(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeObject(b)
}

// decodeObject keeps numbers as json.Number so integers are re-encoded exactly.
func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	return obj, nil
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(t), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i, true
		}
	}
	return 0, false
}
