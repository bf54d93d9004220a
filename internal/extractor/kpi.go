// Package extractor pulls heuristic KPIs and a lexical sentiment score out of CFO prepared
// remarks. The KPIs are regex matches and make no accuracy claim.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"finsense-go/internal/types"
)

// PresenceMarker is stored in guidance_comment / margin_comment when the topic is mentioned.
// It is a flag, not an extracted sentence.
const PresenceMarker = "..."

var (
	revenueYoYRe = regexp.MustCompile(`(\d+)%\s+year[- ]?over[- ]?year`)
	epsGrowthRe  = regexp.MustCompile(`eps\s+(?:grew|increased|up)\s+(\d+)%`)

	guidanceWords = []string{"guidance", "outlook", "forecast"}
)

// Eligible reports whether a record is a CFO prepared-remarks segment.
func Eligible(rec types.TranscriptRecord) bool {
	return rec.Section == types.SectionPreparedRemarks &&
		strings.Contains(strings.ToLower(rec.Speaker), "cfo")
}

// ExtractKPIs scans text for growth figures and topic flags. Blank text yields all-nil KPIs.
func ExtractKPIs(text string) types.KPIs {
	var k types.KPIs
	if strings.TrimSpace(text) == "" {
		return k
	}
	lower := strings.ToLower(text)

	if n, ok := firstInt(revenueYoYRe, lower); ok {
		k.RevenueGrowthYoYPct = &n
	}
	if n, ok := firstInt(epsGrowthRe, lower); ok {
		k.EPSGrowthYoYPct = &n
	}
	for _, w := range guidanceWords {
		if strings.Contains(lower, w) {
			k.GuidanceComment = types.StringPtr(PresenceMarker)
			break
		}
	}
	if strings.Contains(lower, "margin") {
		k.MarginComment = types.StringPtr(PresenceMarker)
	}
	return k
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// digit runs too long for int
		return 0, false
	}
	return n, true
}
