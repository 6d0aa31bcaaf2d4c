// Package export renders timetable documents into downloadable artifacts.
// All renderers consume the same Document and walk it in declared order, so
// a PDF page, a workbook sheet and a CSV block always present the same rows
// in the same sequence.
package export

import "time"

// NoDataPlaceholder is rendered for entities without timetable content.
const NoDataPlaceholder = "No timetable data available"

// Table is one entity's timetable: a title block plus a header row and one
// row per period. The first column of every row is the period's time label.
type Table struct {
	Title    string
	Subtitle string
	Header   []string
	Rows     [][]string
	// Empty marks a placeholder table for an entity without data. Renderers
	// emit a single NoDataPlaceholder row instead of the grid.
	Empty bool
}

// Document is an ordered set of entity tables plus naming metadata. Tables
// appear in the output exactly in slice order.
type Document struct {
	// Name is the artifact base name without extension.
	Name        string
	GeneratedAt time.Time
	Tables      []Table
}

// StandardHeader is the fixed column header shared by every renderer.
func StandardHeader(days []string) []string {
	header := make([]string, 0, len(days)+1)
	header = append(header, "Time")
	header = append(header, days...)
	return header
}
