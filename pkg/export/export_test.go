package export

import (
	"bytes"
	"compress/zlib"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/acadsync/timetable-api/pkg/palette"
)

func sampleDocument() Document {
	header := StandardHeader([]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"})
	return Document{
		Name:        "CS-3A-Timetable",
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Tables: []Table{
			{
				Title:    "CS-3A",
				Subtitle: "Computer Science",
				Header:   header,
				Rows: [][]string{
					{"09:00-09:50", "COMPUTER NETWORKS\nDr. Rao\nA-201\nLecture", "FREE", "FREE", "FREE", "FREE", "FREE"},
					{"09:50-10:40", "FREE", "FREE", "FREE", "FREE", "FREE", "FREE"},
				},
			},
			{
				Title:    "CS-3B",
				Subtitle: "Computer Science",
				Header:   header,
				Rows: [][]string{
					{"09:00-09:50", "FREE", "MATHEMATICS III\nProf. Iyer\nB-104\nLecture", "FREE", "FREE", "FREE", "FREE"},
				},
			},
			{
				Title:  "ME-1A",
				Header: header,
				Empty:  true,
			},
		},
	}
}

func TestStandardHeader(t *testing.T) {
	header := StandardHeader([]string{"Monday", "Tuesday"})
	assert.Equal(t, []string{"Time", "Monday", "Tuesday"}, header)
}

func TestCSVRendererLayout(t *testing.T) {
	payload, err := NewCSVRenderer().Render(sampleDocument())
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	// First entity: title, subtitle, timestamp, header, two data rows.
	assert.Equal(t, "CS-3A", records[0][0])
	assert.Equal(t, "Computer Science", records[1][0])
	assert.Contains(t, records[2][0], "Generated 2026-03-14")
	assert.Equal(t, "Time", records[3][0])
	assert.Equal(t, "09:00-09:50", records[4][0])
	assert.Equal(t, "09:50-10:40", records[5][0])

	// Entities are separated by one blank row. csv.Reader drops blank
	// lines, so the separator is checked against the raw text and the
	// next record is already the second entity's title.
	assert.Equal(t, "CS-3B", records[6][0])
	lines := strings.Split(string(payload), "\n")
	separatorSeen := false
	for i, line := range lines {
		if line == "CS-3B" && i > 0 && lines[i-1] == "" {
			separatorSeen = true
		}
	}
	assert.True(t, separatorSeen, "no blank separator line before second entity")

	// Empty entity collapses to the placeholder.
	var placeholderSeen bool
	for _, record := range records {
		if record[0] == NoDataPlaceholder {
			placeholderSeen = true
		}
	}
	assert.True(t, placeholderSeen)
}

func TestCSVRendererRowOrderMatchesInput(t *testing.T) {
	doc := sampleDocument()
	payload, err := NewCSVRenderer().Render(doc)
	require.NoError(t, err)

	text := string(payload)
	assert.Less(t, strings.Index(text, "CS-3A"), strings.Index(text, "CS-3B"))
	assert.Less(t, strings.Index(text, "CS-3B"), strings.Index(text, "ME-1A"))
	assert.Less(t, strings.Index(text, "09:00-09:50"), strings.Index(text, "09:50-10:40"))
}

func TestCSVRendererEmptyDocument(t *testing.T) {
	_, err := NewCSVRenderer().Render(Document{})
	assert.Error(t, err)
}

func TestXLSXRendererSheetPerEntity(t *testing.T) {
	payload, err := NewXLSXRenderer().Render(sampleDocument())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	assert.Equal(t, []string{"CS-3A", "CS-3B", "ME-1A"}, f.GetSheetList())

	title, err := f.GetCellValue("CS-3A", "A1")
	require.NoError(t, err)
	assert.Equal(t, "CS-3A", title)

	timeHeader, err := f.GetCellValue("CS-3A", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Time", timeHeader)

	monday, err := f.GetCellValue("CS-3A", "B4")
	require.NoError(t, err)
	assert.Contains(t, monday, "COMPUTER NETWORKS")
	assert.Contains(t, monday, "A-201")

	placeholder, err := f.GetCellValue("ME-1A", "A3")
	require.NoError(t, err)
	assert.Equal(t, NoDataPlaceholder, placeholder)

	widthA, err := f.GetColWidth("CS-3A", "A")
	require.NoError(t, err)
	assert.InDelta(t, timeColWidth, widthA, 0.1)
	widthB, err := f.GetColWidth("CS-3A", "B")
	require.NoError(t, err)
	assert.InDelta(t, dayColWidth, widthB, 0.1)
}

func TestXLSXRendererDuplicateTitles(t *testing.T) {
	doc := sampleDocument()
	doc.Tables[1].Title = "CS-3A"
	payload, err := NewXLSXRenderer().Render(doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	assert.Len(t, sheets, 3)
	assert.Equal(t, "CS-3A", sheets[0])
	assert.Equal(t, "CS-3A (2)", sheets[1])
}

func TestXLSXRendererEmptyDocument(t *testing.T) {
	_, err := NewXLSXRenderer().Render(Document{})
	assert.Error(t, err)
}

func TestPDFRendererProducesDocument(t *testing.T) {
	payload, err := NewPDFRenderer().Render(sampleDocument())
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")), "missing pdf magic header")
}

func TestPDFCellColors(t *testing.T) {
	// The fill keys off the first line only, so a subject with a keyword
	// match colors the whole cell and the ink follows its contrast.
	fill, ink := cellColors(1, "COMPUTER NETWORKS\nCS-3A\nA-201\nLecture")
	assert.Equal(t, palette.ColorFor("COMPUTER NETWORKS"), fill)
	assert.NotEqual(t, palette.DefaultColor, fill)
	assert.Equal(t, palette.ContrastFor(fill), ink)

	fill, ink = cellColors(3, "FREE")
	assert.Equal(t, palette.FreeColor, fill)
	assert.Equal(t, palette.ContrastFor(palette.FreeColor), ink)

	// The time column keeps the neutral styling regardless of its text.
	fill, _ = cellColors(0, "COMPUTER NETWORKS")
	assert.Equal(t, palette.FreeColor, fill)
}

// inflatePDFStreams concatenates the decompressed FlateDecode streams of a
// rendered PDF so tests can assert on the drawn text.
func inflatePDFStreams(t *testing.T, payload []byte) string {
	t.Helper()
	var out bytes.Buffer
	rest := payload
	for {
		i := bytes.Index(rest, []byte("stream\n"))
		if i < 0 {
			break
		}
		rest = rest[i+len("stream\n"):]
		j := bytes.Index(rest, []byte("endstream"))
		if j < 0 {
			break
		}
		data := bytes.TrimSuffix(rest[:j], []byte("\n"))
		rest = rest[j+len("endstream"):]
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			continue
		}
		if chunk, err := io.ReadAll(zr); err == nil {
			out.Write(chunk)
		}
		zr.Close()
	}
	return out.String()
}

func TestPDFRendererFooterPageNumbers(t *testing.T) {
	payload, err := NewPDFRenderer().Render(sampleDocument())
	require.NoError(t, err)

	content := inflatePDFStreams(t, payload)
	require.NotEmpty(t, content)

	// Three entities, one page each, every footer carrying the substituted
	// global page count.
	for page := 1; page <= 3; page++ {
		marker := fmt.Sprintf("Page %d of 3", page)
		assert.Equal(t, 1, strings.Count(content, marker), marker)
	}
	assert.NotContains(t, content, "{nb}")
}

func TestPDFRendererEmptyEntityStillRenders(t *testing.T) {
	doc := Document{
		Name:        "empty",
		GeneratedAt: time.Now(),
		Tables: []Table{{
			Title:  "ME-1A",
			Header: StandardHeader([]string{"Monday"}),
			Empty:  true,
		}},
	}
	payload, err := NewPDFRenderer().Render(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}

func TestPDFRendererEmptyDocument(t *testing.T) {
	_, err := NewPDFRenderer().Render(Document{})
	assert.Error(t, err)
}

func TestSheetNameSanitization(t *testing.T) {
	used := map[string]int{}
	assert.Equal(t, "CS 3A (Morning)", sheetName("CS:3A [Morning]", 0, used))

	long := sheetName(strings.Repeat("Electrical Engineering ", 4), 1, used)
	assert.LessOrEqual(t, len(long), sheetNameLimit)

	blank := sheetName("   ", 2, used)
	assert.Equal(t, "Sheet 3", blank)
}
