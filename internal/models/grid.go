package models

import (
	"sort"
	"strings"
)

// Day identifies a weekday column in a timetable grid.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
)

// Days is the canonical weekday order. Every renderer and export walks
// columns in this order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Label returns the human-readable day name.
func (d Day) Label() string {
	s := string(d)
	if s == "" {
		return s
	}
	return s[:1] + strings.ToLower(s[1:])
}

// PeriodKey orders the teaching periods of a day.
type PeriodKey int

// Slot sentinels. A slot whose subject equals one of these carries no
// assignment fields.
const (
	SlotFree  = "FREE"
	SlotBreak = "BREAK"
)

// Slot is the content of one (day, period) cell: either a sentinel
// (FREE/BREAK) or a concrete assignment.
type Slot struct {
	Subject      string `json:"subject"`
	Counterpart  string `json:"counterpart,omitempty"`
	Room         string `json:"room,omitempty"`
	SessionType  string `json:"sessionType,omitempty"`
	MaterialLink string `json:"materialLink,omitempty"`
}

// FreeSlot returns the FREE sentinel slot.
func FreeSlot() Slot {
	return Slot{Subject: SlotFree}
}

// IsFree reports whether the slot is the FREE sentinel.
func (s Slot) IsFree() bool {
	return strings.EqualFold(strings.TrimSpace(s.Subject), SlotFree)
}

// IsBreak reports whether the slot is the break sentinel.
func (s Slot) IsBreak() bool {
	return strings.EqualFold(strings.TrimSpace(s.Subject), SlotBreak)
}

// IsSentinel reports whether the slot carries no assignment.
func (s Slot) IsSentinel() bool {
	return s.Subject == "" || s.IsFree() || s.IsBreak()
}

// Grid is one entity's weekly timetable: period labels plus a day x period
// map of slots. Absent cells are treated as FREE.
type Grid struct {
	Periods   map[PeriodKey]string      `json:"periods"`
	Timetable map[Day]map[PeriodKey]Slot `json:"timetable"`
}

// Slot returns the cell at (day, period), or the FREE sentinel when the
// day or period is absent.
func (g *Grid) Slot(day Day, period PeriodKey) Slot {
	if g == nil || g.Timetable == nil {
		return FreeSlot()
	}
	row, ok := g.Timetable[day]
	if !ok {
		return FreeSlot()
	}
	slot, ok := row[period]
	if !ok || slot.Subject == "" {
		return FreeSlot()
	}
	return slot
}

// SetSlot writes the cell at (day, period), initializing the day map when
// absent.
func (g *Grid) SetSlot(day Day, period PeriodKey, slot Slot) {
	if g.Timetable == nil {
		g.Timetable = make(map[Day]map[PeriodKey]Slot)
	}
	if g.Timetable[day] == nil {
		g.Timetable[day] = make(map[PeriodKey]Slot)
	}
	g.Timetable[day][period] = slot
}

// SortedPeriodKeys returns the grid's period keys in ascending numeric
// order. Callers never rely on map iteration order.
func (g *Grid) SortedPeriodKeys() []PeriodKey {
	if g == nil || len(g.Periods) == 0 {
		return nil
	}
	keys := make([]PeriodKey, 0, len(g.Periods))
	for key := range g.Periods {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Empty reports whether the grid has no periods or no timetable entries.
func (g *Grid) Empty() bool {
	return g == nil || len(g.Periods) == 0 || len(g.Timetable) == 0
}

// EntityKind distinguishes the two owners of a grid.
type EntityKind string

const (
	EntityKindSection EntityKind = "section"
	EntityKindFaculty EntityKind = "faculty"
)

// ScheduleEntity is a faculty member or a class section together with its
// weekly grid.
type ScheduleEntity struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Grid       Grid   `json:"grid"`
}
