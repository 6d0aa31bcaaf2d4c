package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVRenderer emits the document as flat delimited rows: per entity a title
// row, a subtitle row, the header, one row per period, then a blank row
// before the next entity. No styling.
type CSVRenderer struct{}

// NewCSVRenderer constructs a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render produces CSV encoded bytes for the document.
func (r *CSVRenderer) Render(doc Document) ([]byte, error) {
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("csv requires at least one table")
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	for i, table := range doc.Tables {
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if err := writer.Write([]string{table.Title}); err != nil {
			return nil, fmt.Errorf("write csv title: %w", err)
		}
		subtitle := table.Subtitle
		if subtitle != "" {
			if err := writer.Write([]string{subtitle}); err != nil {
				return nil, fmt.Errorf("write csv subtitle: %w", err)
			}
		}
		if err := writer.Write([]string{"Generated " + doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")}); err != nil {
			return nil, fmt.Errorf("write csv timestamp: %w", err)
		}
		if table.Empty {
			if err := writer.Write([]string{NoDataPlaceholder}); err != nil {
				return nil, fmt.Errorf("write csv placeholder: %w", err)
			}
			continue
		}
		if err := writer.Write(table.Header); err != nil {
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		for _, row := range table.Rows {
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
