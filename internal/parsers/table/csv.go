package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/vutto/pricing-service/internal/parsers/charset"
)

var delimiters = []rune{',', ';', '\t'}

// DetectDelimiter picks the delimiter whose count is most consistent across
// the first non-empty lines.
func DetectDelimiter(content string) rune {
	var sample []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			sample = append(sample, trimmed)
			if len(sample) == 5 {
				break
			}
		}
	}
	if len(sample) == 0 {
		return ','
	}

	best, bestScore := ',', 0.0
	for _, delim := range delimiters {
		counts := make([]float64, len(sample))
		var sum float64
		for i, line := range sample {
			counts[i] = float64(strings.Count(line, string(delim)))
			sum += counts[i]
		}
		avg := sum / float64(len(counts))
		if avg == 0 {
			continue
		}
		var variance float64
		for _, c := range counts {
			variance += (c - avg) * (c - avg)
		}
		variance /= float64(len(counts))

		if score := avg / (1 + variance); score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

// ReadCSV decodes a CSV export in any supported charset. The first record is
// the header.
func ReadCSV(data []byte) (*Table, error) {
	content, err := charset.ToUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode csv: %w", err)
	}

	r := csv.NewReader(strings.NewReader(content))
	r.Comma = DetectDelimiter(content)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return &Table{Header: header, Rows: records[1:]}, nil
}

// WriteCSV encodes t as comma separated UTF-8.
func WriteCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
