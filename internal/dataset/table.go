// Package dataset persists the transcript fact table: one row per segment, in CSV, XLSX or
// SQLite form depending on the file extension. Writes always replace the whole file atomically.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"finsense-go/internal/fileutil"
	"finsense-go/internal/types"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// FormatFor picks the table format from the path extension; unknown extensions are CSV.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// Write replaces the table at path with records.
func Write(path string, records []types.TranscriptRecord) error {
	format := FormatFor(path)
	err := fileutil.ReplaceFile(path, func(tmpPath string) error {
		switch format {
		case FormatXLSX:
			return writeXLSX(tmpPath, records)
		case FormatSQLite:
			return writeSQLite(tmpPath, records)
		default:
			return writeCSV(tmpPath, records)
		}
	})
	if err != nil {
		return fmt.Errorf("write %s table %s: %w", format, path, err)
	}
	return nil
}

// Read loads every record from the table at path, in stored order.
func Read(path string) ([]types.TranscriptRecord, error) {
	if _, err := os.Stat(path); err != nil {
		// the sqlite driver would otherwise create an empty database
		return nil, fmt.Errorf("read table: %w", err)
	}

	var (
		records []types.TranscriptRecord
		err     error
	)
	switch FormatFor(path) {
	case FormatXLSX:
		records, err = readXLSX(path)
	case FormatSQLite:
		records, err = readSQLite(path)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return records, nil
}

func toRow(r types.TranscriptRecord) []string {
	year := ""
	if r.FiscalYear != nil {
		year = strconv.Itoa(*r.FiscalYear)
	}
	quarter := ""
	if r.FiscalQuarter != nil {
		quarter = *r.FiscalQuarter
	}
	return []string{
		r.DocPath,
		r.CompanyHint,
		year,
		quarter,
		r.IngestDate,
		strconv.Itoa(r.SegmentIndex),
		r.Speaker,
		string(r.Section),
		r.Text,
		r.Source,
	}
}

// columnIndex maps each table column to its position in a header row.
type columnIndex map[string]int

func headerIndexes(header []string) (columnIndex, error) {
	idx := columnIndex{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range types.TableColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func (idx columnIndex) value(row []string, col string) string {
	i := idx[col]
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func fromRow(idx columnIndex, row []string) (types.TranscriptRecord, error) {
	rec := types.TranscriptRecord{
		DocPath:     idx.value(row, "doc_path"),
		CompanyHint: idx.value(row, "company_hint"),
		IngestDate:  idx.value(row, "ingest_date"),
		Speaker:     idx.value(row, "speaker"),
		Section:     types.Section(idx.value(row, "section")),
		Text:        idx.value(row, "text"),
		Source:      idx.value(row, "source"),
	}

	if raw := strings.TrimSpace(idx.value(row, "fiscal_year")); raw != "" {
		// tables round-tripped through spreadsheets may carry "2024.0"
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, fmt.Errorf("parse fiscal_year %q: %w", raw, err)
		}
		rec.FiscalYear = types.IntPtr(int(f))
	}
	if q := strings.TrimSpace(idx.value(row, "fiscal_quarter")); q != "" {
		rec.FiscalQuarter = types.StringPtr(q)
	}

	raw := strings.TrimSpace(idx.value(row, "segment_index"))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return rec, fmt.Errorf("parse segment_index %q: %w", raw, err)
	}
	rec.SegmentIndex = n
	return rec, nil
}
