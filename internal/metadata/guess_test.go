package metadata

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		file        string
		wantCompany string
		wantYear    int
		wantQuarter string
	}{
		{
			name:        "year then quarter digit",
			file:        "NVDA_2024Q2_Transcript.txt",
			wantCompany: "NVDA",
			wantYear:    2024,
			wantQuarter: "Q2",
		},
		{
			name:        "quarter then fiscal year",
			file:        "Apple-Inc Q1 FY2025 call.pdf",
			wantCompany: "Apple Inc",
			wantYear:    2025,
			wantQuarter: "Q1",
		},
		{
			name:        "quarter then year with underscores",
			file:        "msft_q3_2023.txt",
			wantCompany: "msft",
			wantYear:    2023,
			wantQuarter: "Q3",
		},
		{
			name:        "fiscal year then quarter",
			file:        "ADBE FY2024 Q4 earnings.txt",
			wantCompany: "ADBE",
			wantYear:    2024,
			wantQuarter: "Q4",
		},
		{
			name:        "fiscal year spelled out",
			file:        "ORCL_Fiscal Year 2022-Q2.txt",
			wantCompany: "ORCL",
			wantYear:    2022,
			wantQuarter: "Q2",
		},
		{
			name:        "quarter token at start keeps whole stem as company",
			file:        "Q2_2024_call.txt",
			wantCompany: "Q2 2024 call",
			wantYear:    2024,
			wantQuarter: "Q2",
		},
		{
			name:        "path is reduced to base name",
			file:        "data/raw/2023/AMZN_2023Q4.txt",
			wantCompany: "AMZN",
			wantYear:    2023,
			wantQuarter: "Q4",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := Guess(tc.file)
			assert.Equal(t, tc.wantCompany, meta.CompanyHint)
			require.NotNil(t, meta.FiscalYear)
			require.NotNil(t, meta.FiscalQuarter)
			assert.Equal(t, tc.wantYear, *meta.FiscalYear)
			assert.Equal(t, tc.wantQuarter, *meta.FiscalQuarter)
			assert.True(t, meta.HasQuarter())
		})
	}
}

func TestGuess_FirstPatternWins(t *testing.T) {
	t.Parallel()

	// "Q1 2023" satisfies the first pattern; "2024Q3" would satisfy the third.
	meta := Guess("XYZ_Q1_2023_vs_2024Q3.txt")
	require.NotNil(t, meta.FiscalYear)
	assert.Equal(t, 2023, *meta.FiscalYear)
	assert.Equal(t, "Q1", *meta.FiscalQuarter)
}

func TestGuess_NoMatch(t *testing.T) {
	t.Parallel()

	meta := Guess("tesla-investor.day_notes.txt")
	assert.Nil(t, meta.FiscalYear)
	assert.Nil(t, meta.FiscalQuarter)
	assert.False(t, meta.HasQuarter())
	assert.Equal(t, "tesla investor day notes", meta.CompanyHint)
}

func TestGuess_Total(t *testing.T) {
	t.Parallel()

	inputs := []string{"", ".", "/", ".txt", "Q5_2024", "____", "2024", "ümlaut_Q2_2024.txt"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Guess(in) }, in)
		assert.Equal(t, Guess(in), Guess(in), "deterministic for %q", in)
	}
	assert.Equal(t, "", Guess("").CompanyHint)
}

func TestGuess_TruncatesCompanyHint(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Ä", 120) + ".txt"
	meta := Guess(long)
	assert.Equal(t, 80, utf8.RuneCountInString(meta.CompanyHint))
}
