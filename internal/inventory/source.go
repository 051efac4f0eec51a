// Package inventory reads the live inventory sheet through a time-bounded
// cache and turns cluster stock levels into procurement warnings.
package inventory

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/vutto/pricing-service/internal/parsers/table"
)

// Source returns the raw live inventory rows: cluster name, max supply,
// current level, then the before 2018, 2019-2021 and after 2022 counts.
type Source interface {
	Rows(ctx context.Context) ([][]string, error)
}

// SheetsSource reads a range of a Google spreadsheet.
type SheetsSource struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	readRange     string
}

// NewSheetsSource creates a read-only Sheets client. Application default
// credentials are used when credentialsFile is empty.
func NewSheetsSource(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*SheetsSource, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("inventory spreadsheet id is required")
	}
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsSource{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}, nil
}

// Rows implements Source.
func (s *SheetsSource) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.readRange, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FileSource reads a CSV or XLSX export of the inventory sheet. The header
// row is returned like any other row.
type FileSource struct {
	Path string
}

// Rows implements Source.
func (s FileSource) Rows(ctx context.Context) ([][]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	t, err := table.Read(data, table.FormatFromFilename(s.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory file: %w", err)
	}
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, t.Header)
	return append(rows, t.Rows...), nil
}

// StaticSource serves fixed rows.
type StaticSource [][]string

// Rows implements Source.
func (s StaticSource) Rows(context.Context) ([][]string, error) {
	return s, nil
}
