package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"finsense-go/internal/types"
)

const sheetName = "transcripts"

func writeXLSX(path string, records []types.TranscriptRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &types.TableColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := toRow(r)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.SaveAs(path)
}

// readXLSX reads the first sheet; columns are located by header name, not position.
func readXLSX(path string) ([]types.TranscriptRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	idx, err := headerIndexes(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]types.TranscriptRecord, 0, len(rows)-1)
	for i, r := range rows[1:] {
		// GetRows drops trailing empty rows but not blank ones in the middle
		if len(r) == 0 {
			continue
		}
		rec, err := fromRow(idx, r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
