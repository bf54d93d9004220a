package dataset

import (
	"fmt"
	"sort"
	"strings"

	"finsense-go/internal/logger"
	"finsense-go/internal/types"
)

type TableSummary struct {
	TotalRows       int            `json:"total_rows"`
	Documents       int            `json:"documents"`
	BySection       map[string]int `json:"by_section"`
	ByQuarter       map[string]int `json:"by_quarter"`
	CFOSegments     int            `json:"cfo_segments"`
	WithoutQuarter  int            `json:"rows_without_quarter"`
	TopSpeakers     []string       `json:"top_speakers"`
	ExampleSegments []string       `json:"example_segments"`
}

// LoadAndSummarize reads the table and produces a compact overview for the CLI and the API.
func LoadAndSummarize(path string, log *logger.Logger) (TableSummary, error) {
	log = log.Component("dataset.summary")
	log.WithField("path", path).Info("opening transcript table for summarization")

	records, err := Read(path)
	if err != nil {
		log.WithError(err).Error("read failed")
		return TableSummary{}, err
	}
	if len(records) == 0 {
		log.Error("no data rows")
		return TableSummary{}, fmt.Errorf("no data rows in %s", path)
	}

	ts := Summarize(records)
	log.WithFields(map[string]interface{}{
		"total_rows":   ts.TotalRows,
		"documents":    ts.Documents,
		"quarters":     len(ts.ByQuarter),
		"cfo_segments": ts.CFOSegments,
	}).Info("transcript table summarization complete")
	for i, ex := range ts.ExampleSegments {
		log.WithField("example_index", i).Debug("example segment: ", ex)
	}
	return ts, nil
}

func Summarize(records []types.TranscriptRecord) TableSummary {
	ts := TableSummary{
		TotalRows:       len(records),
		BySection:       map[string]int{},
		ByQuarter:       map[string]int{},
		TopSpeakers:     []string{},
		ExampleSegments: []string{},
	}

	docs := map[string]struct{}{}
	speakers := map[string]int{}
	for _, r := range records {
		docs[r.DocPath] = struct{}{}
		ts.BySection[string(r.Section)]++

		meta := r.Metadata()
		if meta.HasQuarter() {
			key := types.QuarterKey{
				Ticker:        types.TickerFromHint(r.CompanyHint),
				FiscalYear:    *r.FiscalYear,
				FiscalQuarter: *r.FiscalQuarter,
			}
			ts.ByQuarter[key.String()]++
		} else {
			ts.WithoutQuarter++
		}

		if strings.Contains(strings.ToLower(r.Speaker), "cfo") && r.Section == types.SectionPreparedRemarks {
			ts.CFOSegments++
		}
		switch r.Speaker {
		case types.SpeakerFullText, types.SpeakerPreface, types.SpeakerUnknown:
		default:
			speakers[r.Speaker]++
		}
		if len(ts.ExampleSegments) < 3 && strings.TrimSpace(r.Text) != "" {
			ts.ExampleSegments = append(ts.ExampleSegments, truncateRunes(r.Text, 200))
		}
	}
	ts.Documents = len(docs)

	type sc struct {
		s string
		c int
	}
	var arr []sc
	for k, v := range speakers {
		arr = append(arr, sc{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].c != arr[j].c {
			return arr[i].c > arr[j].c
		}
		return arr[i].s < arr[j].s
	})
	for i := 0; i < len(arr) && i < 5; i++ {
		ts.TopSpeakers = append(ts.TopSpeakers, arr[i].s)
	}
	return ts
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
