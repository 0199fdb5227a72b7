// Copyright 2025 The Tablemap Authors
// SPDX-License-Identifier: Apache-2.0

// Package tabular implements the table-to-GeoJSON conversion pipeline:
// fetching delimited data from local files or published spreadsheet
// exports, filtering and validating rows, and assembling point features.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyTable reports input without a header row.
var ErrEmptyTable = errors.New("tabular: input has no header row")

// Row is a single record keyed by column name. Cells absent from a short
// record read back as the empty string.
type Row map[string]string

// Table is an in-memory tabular dataset. Columns preserves the source
// column order, which drives passthrough property order and schema
// resolution precedence.
type Table struct {
	Columns []string
	Rows    []Row
}

// ReadTable parses delimited text into a Table. The first record is the
// header; header names are trimmed and duplicates keep the first
// occurrence. Records may have fewer or more fields than the header:
// missing cells become "", extra cells are dropped.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyTable
	} else if err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}

	seen := make(map[string]bool, len(header))
	columns := make([]string, 0, len(header))
	// Index in the raw record for each retained column.
	indexes := make([]int, 0, len(header))

	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}

		seen[name] = true
		columns = append(columns, name)
		indexes = append(indexes, i)
	}

	if len(columns) == 0 {
		return nil, ErrEmptyTable
	}

	table := &Table{Columns: columns}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", len(table.Rows)+2, err)
		}

		row := make(Row, len(columns))

		for j, name := range columns {
			if idx := indexes[j]; idx < len(record) {
				row[name] = record[idx]
			} else {
				row[name] = ""
			}
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
