package dataset

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"finsense-go/internal/types"
)

const createTranscriptsTableSQL = `
CREATE TABLE IF NOT EXISTS transcripts (
	doc_path TEXT NOT NULL,
	company_hint TEXT NOT NULL,
	fiscal_year INTEGER,
	fiscal_quarter TEXT,
	ingest_date TEXT NOT NULL,
	segment_index INTEGER NOT NULL,
	speaker TEXT NOT NULL,
	section TEXT NOT NULL,
	text TEXT NOT NULL,
	source TEXT NOT NULL,
	PRIMARY KEY (doc_path, segment_index)
)`

const insertTranscriptSQL = `
INSERT INTO transcripts (
	doc_path,
	company_hint,
	fiscal_year,
	fiscal_quarter,
	ingest_date,
	segment_index,
	speaker,
	section,
	text,
	source
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectTranscriptsSQL = `
SELECT doc_path, company_hint, fiscal_year, fiscal_quarter, ingest_date,
	segment_index, speaker, section, text, source
FROM transcripts
ORDER BY rowid`

func openSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

func writeSQLite(path string, records []types.TranscriptRecord) (err error) {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if _, err := db.Exec(createTranscriptsTableSQL); err != nil {
		return fmt.Errorf("create transcripts table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertTranscriptSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		var year sql.NullInt64
		if r.FiscalYear != nil {
			year = sql.NullInt64{Int64: int64(*r.FiscalYear), Valid: true}
		}
		var quarter sql.NullString
		if r.FiscalQuarter != nil {
			quarter = sql.NullString{String: *r.FiscalQuarter, Valid: true}
		}
		if _, err := stmt.Exec(
			r.DocPath, r.CompanyHint, year, quarter, r.IngestDate,
			r.SegmentIndex, r.Speaker, string(r.Section), r.Text, r.Source,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s seg %d: %w", r.DocPath, r.SegmentIndex, err)
		}
	}
	return tx.Commit()
}

func readSQLite(path string) ([]types.TranscriptRecord, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(selectTranscriptsSQL)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var out []types.TranscriptRecord
	for rows.Next() {
		var (
			rec     types.TranscriptRecord
			year    sql.NullInt64
			quarter sql.NullString
			section string
		)
		if err := rows.Scan(
			&rec.DocPath, &rec.CompanyHint, &year, &quarter, &rec.IngestDate,
			&rec.SegmentIndex, &rec.Speaker, &section, &rec.Text, &rec.Source,
		); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		if year.Valid {
			rec.FiscalYear = types.IntPtr(int(year.Int64))
		}
		if quarter.Valid {
			rec.FiscalQuarter = types.StringPtr(quarter.String)
		}
		rec.Section = types.Section(section)
		out = append(out, rec)
	}
	return out, rows.Err()
}
