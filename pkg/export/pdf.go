package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/acadsync/timetable-api/pkg/palette"
)

const (
	pdfLineHeight  = 4.2
	pdfCellPadding = 1.4
	pdfHeaderH     = 8.0
	pdfTimeColW    = 28.0
)

// PDFRenderer paginates a timetable document, one page per entity, with
// color-coded cells. This is the only renderer that applies the palette to
// data cells.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render produces the PDF bytes for the document. Each table starts on its
// own page and every page carries a global "Page x of y" footer.
func (r *PDFRenderer) Render(doc Document) ([]byte, error) {
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("pdf requires at least one table")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	for _, table := range doc.Tables {
		pdf.AddPage()
		r.renderTitle(pdf, doc, table)
		if table.Empty {
			pdf.SetFont("Arial", "I", 10)
			pdf.CellFormat(0, 10, NoDataPlaceholder, "1", 1, "C", false, 0, "")
			continue
		}
		r.renderTable(pdf, table)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) renderTitle(pdf *gofpdf.Fpdf, doc Document, table Table) {
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, strings.ToUpper(table.Title), "", 1, "C", false, 0, "")
	if table.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, table.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, "Generated "+doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func (r *PDFRenderer) renderTable(pdf *gofpdf.Fpdf, table Table) {
	pageW, pageH := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	usableW := pageW - left - right
	dayColW := (usableW - pdfTimeColW) / float64(len(table.Header)-1)

	r.renderHeader(pdf, table.Header, dayColW)

	for _, row := range table.Rows {
		rowH := r.rowHeight(row)
		if pdf.GetY()+rowH > pageH-bottom-15 {
			pdf.AddPage()
			pdf.SetY(top)
			r.renderHeader(pdf, table.Header, dayColW)
		}
		r.renderRow(pdf, row, dayColW, rowH)
	}
}

func (r *PDFRenderer) renderHeader(pdf *gofpdf.Fpdf, header []string, dayColW float64) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(0x37, 0x47, 0x4F)
	pdf.SetTextColor(0xFF, 0xFF, 0xFF)
	for i, label := range header {
		width := dayColW
		if i == 0 {
			width = pdfTimeColW
		}
		pdf.CellFormat(width, pdfHeaderH, label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func (r *PDFRenderer) renderRow(pdf *gofpdf.Fpdf, row []string, dayColW, rowH float64) {
	x := pdf.GetX()
	y := pdf.GetY()
	pdf.SetFont("Arial", "", 7.5)

	for i, text := range row {
		width := dayColW
		if i == 0 {
			width = pdfTimeColW
		}

		lines := strings.Split(text, "\n")
		fill, ink := cellColors(i, text)
		pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		pdf.SetTextColor(int(ink.R), int(ink.G), int(ink.B))
		pdf.Rect(x, y, width, rowH, "DF")

		textTop := y + (rowH-float64(len(lines))*pdfLineHeight)/2
		for j, line := range lines {
			pdf.SetXY(x, textTop+float64(j)*pdfLineHeight)
			pdf.CellFormat(width, pdfLineHeight, line, "", 0, "C", false, 0, "")
		}
		x += width
	}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(y + rowH)
}

// cellColors picks the fill and text color for one data cell. The fill
// keys off the first line of the cell text (the subject), the ink off the
// fill's contrast. The first column keeps the neutral time-label styling
// regardless of its text.
func cellColors(column int, text string) (fill, ink palette.RGB) {
	if column == 0 {
		fill = palette.FreeColor
		return fill, palette.ContrastFor(fill)
	}
	fill = palette.ColorFor(strings.SplitN(text, "\n", 2)[0])
	return fill, palette.ContrastFor(fill)
}

func (r *PDFRenderer) rowHeight(row []string) float64 {
	maxLines := 1
	for _, cell := range row {
		if n := strings.Count(cell, "\n") + 1; n > maxLines {
			maxLines = n
		}
	}
	return float64(maxLines)*pdfLineHeight + 2*pdfCellPadding
}
