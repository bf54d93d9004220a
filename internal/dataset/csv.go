package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"finsense-go/internal/types"
)

func writeCSV(path string, records []types.TranscriptRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(types.TableColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(toRow(r)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func readCSV(path string) ([]types.TranscriptRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, fmt.Errorf("header: %w", err)
	}
	idx, err := headerIndexes(header)
	if err != nil {
		return nil, err
	}

	var out []types.TranscriptRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rec, err := fromRow(idx, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
