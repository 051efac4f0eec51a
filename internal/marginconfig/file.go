package marginconfig

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vutto/pricing-service/internal/parsers/table"
	"github.com/vutto/pricing-service/internal/pricing"
)

// KnownColumns is the export order of the fixed document columns.
var KnownColumns = []string{
	pricing.ColVehicleType,
	pricing.ColFuel,
	pricing.ColPace,
	pricing.ColRangeLow,
	pricing.ColRangeHigh,
	pricing.ColAbsoluteMin,
	pricing.ColAbsoluteMax,
	pricing.ColMinPercent,
	pricing.ColAbsoluteMinMarkup,
	pricing.ColMarkupPercent,
	pricing.ColMSPDiscountNew,
	pricing.ColMSPDiscountRevised,
}

// Columns returns the header used to export rows: known columns first, then
// revision columns by day (markup before margin), then any other keys sorted.
func Columns(rows []Row) []string {
	known := make(map[string]bool, len(KnownColumns))
	for _, c := range KnownColumns {
		known[c] = true
	}

	var revisions, others []string
	seen := map[string]bool{}
	for _, row := range rows {
		for key := range row {
			if known[key] || seen[key] {
				continue
			}
			seen[key] = true
			if _, _, ok := pricing.ParseRevisionColumn(key); ok {
				revisions = append(revisions, key)
			} else {
				others = append(others, key)
			}
		}
	}

	sort.Slice(revisions, func(i, j int) bool {
		di, ki, _ := pricing.ParseRevisionColumn(revisions[i])
		dj, kj, _ := pricing.ParseRevisionColumn(revisions[j])
		if di != dj {
			return di < dj
		}
		return ki > kj
	})
	sort.Strings(others)

	header := append([]string{}, KnownColumns...)
	header = append(header, revisions...)
	return append(header, others...)
}

// ToTable lays rows out as a sheet.
func ToTable(rows []Row) *table.Table {
	header := Columns(rows)
	t := &table.Table{Header: header, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		cells := make([]string, len(header))
		for i, col := range header {
			cells[i] = formatCell(row[col])
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// RowsFromTable converts an edited sheet back into document rows. Blank
// cells are left out; plain numbers are stored as numbers.
func RowsFromTable(t *table.Table) []Row {
	records := t.Records()
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{}
		for _, col := range t.Header {
			col = strings.TrimSpace(col)
			if col == "" {
				continue
			}
			v := rec[col]
			if v == "" {
				continue
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				row[col] = f
			} else {
				row[col] = v
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Export encodes rows as a CSV or XLSX file.
func Export(rows []Row, format table.Format) ([]byte, error) {
	data, err := table.Write(ToTable(rows), format, "Margins")
	if err != nil {
		return nil, fmt.Errorf("failed to export margins: %w", err)
	}
	return data, nil
}

// Import decodes a CSV or XLSX file into validated rows.
func Import(data []byte, format table.Format) ([]Row, error) {
	t, err := table.Read(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read margin file: %w", err)
	}
	rows := RowsFromTable(t)
	if err := Validate(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
