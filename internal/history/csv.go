package history

import (
	"encoding/csv"
	"fmt"
	"io"
)

const timeHeader = "time"

// WriteCSV writes the table as a header row ("time", columns...) followed by
// one record per row in insertion order. Missing values become empty cells.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{timeHeader}, t.columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range t.rows {
		record[0] = row.Timestamp
		for i, col := range t.columns {
			record[i+1] = row.Values[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.Timestamp, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Values are kept as strings.
func ReadCSV(r io.Reader, date string) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 || header[0] != timeHeader {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	t := NewTable(date, header[1:])
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Len()+1, err)
		}

		row := Row{Timestamp: record[0], Values: make(map[string]string)}
		for i, col := range t.columns {
			if v := record[i+1]; v != "" {
				row.Values[col] = v
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}
