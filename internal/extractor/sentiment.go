package extractor

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"

	"finsense-go/internal/types"
)

var (
	analyzerOnce sync.Once
	analyzer     *govader.SentimentIntensityAnalyzer
)

func vader() *govader.SentimentIntensityAnalyzer {
	analyzerOnce.Do(func() {
		analyzer = govader.NewSentimentIntensityAnalyzer()
	})
	return analyzer
}

// Score runs VADER over text. Polarity is the compound score; subjectivity is the share of
// non-neutral tokens. Blank text scores zero on both.
func Score(text string) types.Sentiment {
	if strings.TrimSpace(text) == "" {
		return types.Sentiment{}
	}
	s := vader().PolarityScores(text)
	return types.Sentiment{
		Polarity:     clamp(s.Compound, -1, 1),
		Subjectivity: clamp(s.Positive+s.Negative, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
