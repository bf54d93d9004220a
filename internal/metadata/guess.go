// Package metadata infers company, fiscal year and fiscal quarter from a transcript filename.
package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"finsense-go/internal/types"
)

const maxCompanyHintRunes = 80

// pattern is one filename shape. Group "tok" marks where the quarter token starts, so the
// text before it is the company part.
type pattern struct {
	re           *regexp.Regexp
	yearGroup    int
	quarterGroup int
	// quarter group holds only the digit ("2024Q2" captures "2")
	digitOnly bool
}

// Order matters: the first pattern that matches wins.
var patterns = []pattern{
	// Q2 FY2024, Q2_2024, q3-fiscal year 2023
	{
		re:           regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?P<tok>(Q[1-4])[\s._-]*(?:FY|Fiscal[\s._-]*Year)?[\s._-]*(\d{4}))`),
		quarterGroup: 2,
		yearGroup:    3,
	},
	// FY2024 Q2, Fiscal Year 2024-Q2
	{
		re:           regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?P<tok>(?:FY|Fiscal[\s._-]*Year)[\s._-]*(\d{4})[\s._-]*(Q[1-4]))`),
		yearGroup:    2,
		quarterGroup: 3,
	},
	// 2024Q2, 2024 Q2
	{
		re:           regexp.MustCompile(`(?i)(?P<tok>(\d{4})[\s._-]*Q([1-4]))`),
		yearGroup:    2,
		quarterGroup: 3,
		digitOnly:    true,
	},
}

var separators = regexp.MustCompile(`[._-]+`)

// Guess never fails: when nothing matches, year and quarter are nil and the company hint is
// the whole stem. name may be a bare filename or a path.
func Guess(name string) types.DocumentMetadata {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	meta := types.DocumentMetadata{CompanyHint: companyFrom(stem)}

	for _, p := range patterns {
		m := p.re.FindStringSubmatchIndex(stem)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(stem[m[2*p.yearGroup]:m[2*p.yearGroup+1]])
		if err != nil {
			continue
		}
		q := strings.ToUpper(stem[m[2*p.quarterGroup]:m[2*p.quarterGroup+1]])
		if p.digitOnly {
			q = "Q" + q
		}
		meta.FiscalYear = types.IntPtr(year)
		meta.FiscalQuarter = types.StringPtr(q)

		tokStart := m[2*p.re.SubexpIndex("tok")]
		if prefix := companyFrom(stem[:tokStart]); prefix != "" {
			meta.CompanyHint = prefix
		}
		break
	}

	return meta
}

func companyFrom(s string) string {
	s = strings.TrimSpace(separators.ReplaceAllString(s, " "))
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxCompanyHintRunes {
		s = string([]rune(s)[:maxCompanyHintRunes])
		s = strings.TrimSpace(s)
	}
	return s
}
