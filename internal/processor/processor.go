// Package processor runs one ask request end to end: resolve the pack, ask the model,
// attach quarter evidence and timing. The CLI and the HTTP API share it.
package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"finsense-go/internal/aggregator"
	"finsense-go/internal/chat"
	"finsense-go/internal/insights"
	"finsense-go/internal/types"
)

// Asker is satisfied by *chat.Engine.
type Asker interface {
	Ask(ctx context.Context, question string, pack types.InsightPack) (string, error)
}

// AskResult is returned by POST /ask and printed by `finsense ask`.
type AskResult struct {
	Pack       string                    `json:"pack"`
	Label      string                    `json:"label"`
	Question   string                    `json:"question"`
	Answer     string                    `json:"answer"`
	Evidence   *aggregator.QuarterRollup `json:"evidence,omitempty"`
	DurationMs int64                     `json:"duration_ms"`
	Error      string                    `json:"error,omitempty"`
}

type Processor struct {
	asker       Asker
	insightsDir string
}

func New(asker Asker, insightsDir string) *Processor {
	return &Processor{asker: asker, insightsDir: insightsDir}
}

// Ask answers question against the named pack in the insights dir. The result is filled
// as far as the flow got, so callers can report partial results alongside the error.
func (p *Processor) Ask(ctx context.Context, packName, question string) (AskResult, error) {
	start := time.Now()
	res := AskResult{Pack: packName, Question: question}
	done := func(err error) (AskResult, error) {
		res.DurationMs = time.Since(start).Milliseconds()
		if err != nil {
			res.Error = err.Error()
		}
		return res, err
	}

	path, err := insights.Resolve(p.insightsDir, packName)
	if err != nil {
		return done(err)
	}
	res.Pack = filepath.Base(path)

	pack, err := insights.Read(path)
	if err != nil {
		return done(err)
	}
	res.Label = chat.Label(pack)

	ev, err := p.Evidence(pack)
	if err != nil {
		return done(fmt.Errorf("evidence: %w", err))
	}
	res.Evidence = ev

	answer, err := p.asker.Ask(ctx, question, pack)
	if err != nil {
		return done(err)
	}
	res.Answer = answer
	return done(nil)
}

// Evidence rolls up every pack of the same quarter as pack. Packs without a quarter get nil.
func (p *Processor) Evidence(pack types.InsightPack) (*aggregator.QuarterRollup, error) {
	if pack.FiscalYear == nil || pack.FiscalQuarter == nil {
		return nil, nil
	}
	all, err := p.Packs()
	if err != nil {
		return nil, err
	}
	var same []types.InsightPack
	for _, other := range all {
		if other.Ticker == pack.Ticker &&
			other.FiscalYear != nil && *other.FiscalYear == *pack.FiscalYear &&
			other.FiscalQuarter != nil && *other.FiscalQuarter == *pack.FiscalQuarter {
			same = append(same, other)
		}
	}
	rollups := aggregator.Rollup(same)
	if len(rollups) == 0 {
		return nil, nil
	}
	return &rollups[0], nil
}

// Packs reads every pack in the insights dir. Unreadable files are skipped.
func (p *Processor) Packs() ([]types.InsightPack, error) {
	names, err := insights.List(p.insightsDir)
	if err != nil {
		return nil, err
	}
	out := make([]types.InsightPack, 0, len(names))
	for _, name := range names {
		pack, err := insights.Read(filepath.Join(p.insightsDir, name))
		if err != nil {
			continue
		}
		out = append(out, pack)
	}
	return out, nil
}
