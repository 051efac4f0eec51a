// Package table reads and writes the spreadsheet files operators use to edit
// configuration: CSV exports and XLSX workbooks with a single header row.
package table

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a spreadsheet file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx" in any case, with or without a dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported file format %q", s)
}

// FormatFromFilename picks the format by extension, defaulting to CSV.
func FormatFromFilename(name string) Format {
	f, err := ParseFormat(filepath.Ext(name))
	if err != nil {
		return FormatCSV
	}
	return f
}

// Table is a header row plus data rows. Rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Records returns one map per row keyed by header. Missing trailing cells are
// empty strings; fully blank rows are skipped.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if isBlank(row) {
			continue
		}
		rec := make(map[string]string, len(t.Header))
		for i, col := range t.Header {
			if i < len(row) {
				rec[col] = strings.TrimSpace(row[i])
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// FromRecords builds a table with the given column order.
func FromRecords(header []string, records []map[string]string) *Table {
	t := &Table{Header: header, Rows: make([][]string, 0, len(records))}
	for _, rec := range records {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = rec[col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Read decodes data in the given format.
func Read(data []byte, format Format) (*Table, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(data, "")
	default:
		return ReadCSV(data)
	}
}

// Write encodes t in the given format.
func Write(t *Table, format Format, sheet string) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return WriteXLSX(t, sheet)
	default:
		return WriteCSV(t)
	}
}

// ContentType returns the MIME type served for a format.
func ContentType(format Format) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
