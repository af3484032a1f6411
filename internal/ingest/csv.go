package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// CSVNormalizer parses comma-separated payloads. The first row is the
// header; every later row becomes one field-mapping keyed by header name.
type CSVNormalizer struct{}

func NewCSVNormalizer() *CSVNormalizer {
	return &CSVNormalizer{}
}

func (n *CSVNormalizer) Format() Format {
	return FormatCSV
}

func (n *CSVNormalizer) Normalize(data []byte) ([]map[string]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &NormalizationError{Format: FormatCSV, Err: err}
	}
	if len(rows) == 0 {
		return nil, &NormalizationError{Format: FormatCSV, Err: errors.New("missing header row")}
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &NormalizationError{Format: FormatCSV, Err: fmt.Errorf("empty header name in column %d", i+1)}
		}
		header[i] = name
	}

	// A header-only payload is a successful parse of zero records.
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, cell := range row {
			record[header[i]] = strings.TrimSpace(cell)
		}
		records = append(records, record)
	}
	return records, nil
}
