// Package actionable turns a quarter rollup into a one-line watchpoint for a portfolio manager.
package actionable

import (
	"fmt"

	"finsense-go/internal/aggregator"
)

type ActionCard struct {
	Quarter string `json:"quarter"`
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const (
	negativeTone = -0.05
	positiveTone = 0.5
)

// Generate picks the strongest signal of the rollup. Checks run in order: missing
// summary, negative tone, silent guidance, reported growth, then a neutral default.
func Generate(r aggregator.QuarterRollup) ActionCard {
	card := ActionCard{Quarter: r.Key.String()}

	switch {
	case r.Packs == 0:
		card.Insight = "No CFO insight packs for this quarter"
		card.Action = "Re-run ingest and extract for the quarter's transcript"
		card.Impact = "No evidence to answer questions"
	case r.AvgPolarity <= negativeTone:
		card.Insight = fmt.Sprintf("Cautious CFO tone (polarity %.2f)", r.AvgPolarity)
		card.Action = "Review risks and watchpoints before the next position review"
		card.Impact = "Possible downside to estimates"
	case !r.MentionsGuidance:
		card.Insight = "CFO remarks do not mention guidance or outlook"
		card.Action = "Check the Q&A for guidance commentary"
		card.Impact = "Forward visibility unclear"
	case r.RevenueGrowthYoYPct != nil:
		card.Insight = fmt.Sprintf("Revenue growth of %d%% year-over-year reported", *r.RevenueGrowthYoYPct)
		if r.AvgPolarity >= positiveTone {
			card.Insight += " with confident tone"
		}
		card.Action = "Compare against consensus and prior quarter"
		card.Impact = "Growth trajectory input for the model"
	default:
		card.Insight = "No strong signal in CFO remarks"
		card.Action = "Monitor and read the full transcript"
		card.Impact = "Low immediate intervention"
	}

	if !r.HasAIQuarterSummary {
		card.Action += "; run summarize and merge for a quarter summary"
	}
	return card
}
