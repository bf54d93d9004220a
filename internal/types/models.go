package types

import "strings"

// Section tags where a segment sits in the call.
type Section string

const (
	SectionPreface         Section = "preface"
	SectionPreparedRemarks Section = "prepared_remarks"
	SectionQA              Section = "qa"
	SectionTail            Section = "tail"
)

// Synthetic speaker labels emitted by the segmenter.
const (
	SpeakerFullText = "FULL_TEXT"
	SpeakerPreface  = "PREFACE"
	SpeakerUnknown  = "UNKNOWN"
)

// RawDocument is the undecoded file as read from disk.
type RawDocument struct {
	Path     string
	Content  []byte
	Encoding string
}

type DocumentMetadata struct {
	CompanyHint   string  `json:"company_hint"`
	FiscalYear    *int    `json:"fiscal_year"`
	FiscalQuarter *string `json:"fiscal_quarter"`
}

// HasQuarter reports whether both year and quarter were recovered.
func (m DocumentMetadata) HasQuarter() bool {
	return m.FiscalYear != nil && m.FiscalQuarter != nil
}

type Segment struct {
	Speaker string  `json:"speaker"`
	Section Section `json:"section"`
	Content string  `json:"content"`
	Index   int     `json:"index"`
}

// TranscriptRecord is one row of the transcript table. Field order is column order.
type TranscriptRecord struct {
	DocPath       string  `json:"doc_path"`
	CompanyHint   string  `json:"company_hint"`
	FiscalYear    *int    `json:"fiscal_year"`
	FiscalQuarter *string `json:"fiscal_quarter"`
	IngestDate    string  `json:"ingest_date"`
	SegmentIndex  int     `json:"segment_index"`
	Speaker       string  `json:"speaker"`
	Section       Section `json:"section"`
	Text          string  `json:"text"`
	Source        string  `json:"source"`
}

// TableColumns is the header of the persisted transcript table.
var TableColumns = []string{
	"doc_path",
	"company_hint",
	"fiscal_year",
	"fiscal_quarter",
	"ingest_date",
	"segment_index",
	"speaker",
	"section",
	"text",
	"source",
}

func (r TranscriptRecord) Metadata() DocumentMetadata {
	return DocumentMetadata{
		CompanyHint:   r.CompanyHint,
		FiscalYear:    r.FiscalYear,
		FiscalQuarter: r.FiscalQuarter,
	}
}

// TickerFromHint upper-cases the first token of a company hint ("nvda 2024" -> "NVDA").
func TickerFromHint(hint string) string {
	fields := strings.Fields(hint)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func IntPtr(v int) *int          { return &v }
func StringPtr(v string) *string { return &v }
