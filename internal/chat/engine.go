// Package chat answers analyst questions about a single insight pack.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finsense-go/internal/config"
	"finsense-go/internal/llm"
	"finsense-go/internal/logger"
	"finsense-go/internal/types"
)

// NotEnoughInformation is the reply the model is told to give when the pack cannot answer.
const NotEnoughInformation = "Not enough information in this earnings set to answer with confidence."

const systemPrompt = `You are FinSense, an earnings-call analyst.
You read CFO/CEO remarks and structured KPI data, then answer with:
- crisp, evidence-based analysis
- clarity suitable for product managers, investors, and finance teams
- no hallucinations; only infer from provided data.

If the question cannot be answered from the provided insight data, reply:
"` + NotEnoughInformation + `"`

var ErrEmptyQuestion = errors.New("chat: empty question")

type Engine struct {
	llm         llm.Client
	model       string
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

func New(client llm.Client, cfg config.LLMConfig, log *logger.Logger) *Engine {
	return &Engine{
		llm:         client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         log.Component("chat"),
	}
}

// Ask sends the pack digest and the question to the model and returns its answer.
// Errors from the client (llm.ErrRateLimited, llm.ErrAuth) are returned wrapped.
func (e *Engine) Ask(ctx context.Context, question string, pack types.InsightPack) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	entry := e.log.WithField("pack", Label(pack))
	entry.WithField("question_chars", len(question)).Debug("asking")

	answer, err := e.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      "Insight data:\n" + Digest(pack) + "\nQuestion: " + question,
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		entry.WithField("error", err.Error()).Warn("ask failed")
		return "", fmt.Errorf("ask: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Label is the short "TICKER | company | year quarter" form used in logs and listings.
func Label(p types.InsightPack) string {
	ticker := p.Ticker
	if ticker == "" {
		ticker = "?"
	}
	company := p.CompanyHint
	if company == "" {
		company = "Unknown"
	}
	return fmt.Sprintf("%s | %s | %s %s", ticker, company, intOr(p.FiscalYear, "NA"), strOr(p.FiscalQuarter, "NA"))
}

// Digest renders the fields of a pack the model is allowed to reason over.
func Digest(p types.InsightPack) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", p.CompanyHint)
	if p.Ticker != "" {
		fmt.Fprintf(&b, "Ticker: %s\n", p.Ticker)
	}
	fmt.Fprintf(&b, "Quarter: %s, %s\n", strOr(p.FiscalQuarter, "unknown"), intOr(p.FiscalYear, "unknown"))
	fmt.Fprintf(&b, "KPIs: revenue_growth_yoy_pct=%s, eps_growth_yoy_pct=%s, guidance_mentioned=%t, margin_mentioned=%t\n",
		intOr(p.KPIs.RevenueGrowthYoYPct, "n/a"),
		intOr(p.KPIs.EPSGrowthYoYPct, "n/a"),
		p.KPIs.GuidanceComment != nil,
		p.KPIs.MarginComment != nil,
	)
	fmt.Fprintf(&b, "Sentiment: polarity=%.3f, subjectivity=%.3f\n", p.Sentiment.Polarity, p.Sentiment.Subjectivity)
	fmt.Fprintf(&b, "Speaker: %s\n", p.Speaker)
	fmt.Fprintf(&b, "Section: %s\n", p.Section)

	if s := strings.TrimSpace(p.AIQuarterSummary); s != "" {
		fmt.Fprintf(&b, "Quarter summary:\n%s\n", s)
	}
	if len(p.AIQuarterHighlights) > 0 {
		b.WriteString("Highlights:\n")
		for _, h := range p.AIQuarterHighlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	return b.String()
}

func intOr(v *int, def string) string {
	if v == nil {
		return def
	}
	return fmt.Sprint(*v)
}

func strOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
