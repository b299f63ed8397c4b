package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvTable is a headed CSV file read fully into memory
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

func readCSV(r io.Reader) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv rows: %w", err)
	}

	return &csvTable{columns: columns, rows: rows}, nil
}

// floats extracts the named columns of every row as numbers
func (t *csvTable) floats(names []string) ([][]float64, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		col, ok := t.columns[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		idx[i] = col
	}

	out := make([][]float64, len(t.rows))
	for r, row := range t.rows {
		values := make([]float64, len(names))
		for i, col := range idx {
			if col >= len(row) {
				return nil, fmt.Errorf("row %d: missing value for %s", r+2, names[i])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s: %w", r+2, names[i], err)
			}
			values[i] = v
		}
		out[r] = values
	}
	return out, nil
}
