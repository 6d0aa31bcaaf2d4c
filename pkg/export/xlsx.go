package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	sheetNameLimit = 31
	timeColWidth   = 10
	dayColWidth    = 25
)

// XLSXRenderer materializes a timetable document as a workbook with one
// sheet per entity. Data cells are deliberately unstyled; only the header
// row carries formatting.
type XLSXRenderer struct{}

// NewXLSXRenderer constructs a workbook renderer.
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

// Render produces the XLSX bytes for the document.
func (r *XLSXRenderer) Render(doc Document) ([]byte, error) {
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one table")
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"37474F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx wrap style: %w", err)
	}

	used := make(map[string]int)
	for i, table := range doc.Tables {
		sheet := sheetName(table.Title, i, used)
		if i == 0 {
			// Reuse the default sheet for the first entity.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("xlsx rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("xlsx new sheet: %w", err)
		}
		if err := r.renderSheet(f, sheet, doc, table, headerStyle, wrapStyle); err != nil {
			return nil, err
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *XLSXRenderer) renderSheet(f *excelize.File, sheet string, doc Document, table Table, headerStyle, wrapStyle int) error {
	lastCol, _ := excelize.ColumnNumberToName(len(table.Header))
	if lastCol == "" {
		lastCol = "G"
	}

	if err := f.SetColWidth(sheet, "A", "A", timeColWidth); err != nil {
		return fmt.Errorf("xlsx column width: %w", err)
	}
	if len(table.Header) > 1 {
		secondCol, _ := excelize.ColumnNumberToName(2)
		if err := f.SetColWidth(sheet, secondCol, lastCol, dayColWidth); err != nil {
			return fmt.Errorf("xlsx column width: %w", err)
		}
	}

	// Title block.
	f.SetCellValue(sheet, "A1", table.Title)
	f.MergeCell(sheet, "A1", lastCol+"1")
	subtitle := table.Subtitle
	if subtitle != "" {
		subtitle += " - "
	}
	subtitle += "Generated " + doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")
	f.SetCellValue(sheet, "A2", subtitle)
	f.MergeCell(sheet, "A2", lastCol+"2")

	if table.Empty {
		f.SetCellValue(sheet, "A3", NoDataPlaceholder)
		f.MergeCell(sheet, "A3", lastCol+"3")
		return nil
	}

	// Header row.
	headerRow := 3
	for i, label := range table.Header {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return fmt.Errorf("xlsx header cell: %w", err)
		}
		f.SetCellValue(sheet, cell, label)
	}
	if err := f.SetCellStyle(sheet, "A3", lastCol+"3", headerStyle); err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	// Data rows.
	for rowIdx, row := range table.Rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, headerRow+1+rowIdx)
			if err != nil {
				return fmt.Errorf("xlsx data cell: %w", err)
			}
			f.SetCellValue(sheet, cell, value)
		}
	}
	if len(table.Rows) > 0 {
		first := fmt.Sprintf("A%d", headerRow+1)
		last := fmt.Sprintf("%s%d", lastCol, headerRow+len(table.Rows))
		if err := f.SetCellStyle(sheet, first, last, wrapStyle); err != nil {
			return fmt.Errorf("xlsx data style: %w", err)
		}
	}
	return nil
}

// sheetName derives a unique sheet name from the entity title, respecting
// the workbook's 31 character limit and excel's forbidden characters.
func sheetName(title string, index int, used map[string]int) string {
	replacer := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")
	name := strings.TrimSpace(replacer.Replace(title))
	if name == "" {
		name = fmt.Sprintf("Sheet %d", index+1)
	}
	if len(name) > sheetNameLimit {
		name = strings.TrimSpace(name[:sheetNameLimit])
	}
	key := strings.ToLower(name)
	used[key]++
	if used[key] > 1 {
		suffix := fmt.Sprintf(" (%d)", used[key])
		if len(name)+len(suffix) > sheetNameLimit {
			name = strings.TrimSpace(name[:sheetNameLimit-len(suffix)])
		}
		name += suffix
	}
	return name
}
