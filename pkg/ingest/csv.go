// Package ingest reads raw lap tables (fastf1-style CSV exports) into
// loosely-typed records. All cleaning and coercion happens downstream
// in the normalizer; ingest only deals with the container format.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// RawLap is one raw record: column name -> cell value as exported.
// Missing and empty cells look the same to downstream consumers.
type RawLap map[string]string

var ErrNoHeader = errors.New("lap table has no header row")

// ReadLapTable parses a CSV lap table. Short rows keep the columns
// they have; extra cells are dropped. Only a structurally unreadable
// input (no header, malformed CSV) is an error.
func ReadLapTable(r io.Reader) ([]RawLap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading lap table header: %w", err)
	}

	rows := make([]RawLap, 0)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading lap table row %d: %w", len(rows)+2, err)
		}
		row := make(RawLap, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadLapFile reads a lap table from disk.
func LoadLapFile(path string) ([]RawLap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLapTable(f)
}
