package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedPeriodKeysAscending(t *testing.T) {
	grid := &Grid{
		Periods: map[PeriodKey]string{
			10: "15:00-15:50",
			2:  "09:50-10:40",
			1:  "09:00-09:50",
			7:  "13:00-13:50",
		},
	}
	assert.Equal(t, []PeriodKey{1, 2, 7, 10}, grid.SortedPeriodKeys())
}

func TestSortedPeriodKeysIgnoresInsertionOrder(t *testing.T) {
	a := &Grid{Periods: map[PeriodKey]string{}}
	b := &Grid{Periods: map[PeriodKey]string{}}
	for _, k := range []PeriodKey{3, 1, 2} {
		a.Periods[k] = "x"
	}
	for _, k := range []PeriodKey{2, 3, 1} {
		b.Periods[k] = "x"
	}
	assert.Equal(t, a.SortedPeriodKeys(), b.SortedPeriodKeys())
}

func TestSlotDefaultsToFree(t *testing.T) {
	grid := &Grid{}
	slot := grid.Slot(Monday, 1)
	assert.True(t, slot.IsFree())

	grid.SetSlot(Monday, 1, Slot{Subject: "PHYSICS"})
	assert.False(t, grid.Slot(Monday, 1).IsFree())
	assert.True(t, grid.Slot(Monday, 2).IsFree())
	assert.True(t, grid.Slot(Tuesday, 1).IsFree())
}

func TestSetSlotInitializesDayMap(t *testing.T) {
	grid := &Grid{}
	grid.SetSlot(Friday, 3, Slot{Subject: "CHEMISTRY", Room: "C-12"})
	require.NotNil(t, grid.Timetable[Friday])
	assert.Equal(t, "C-12", grid.Timetable[Friday][3].Room)
}

func TestSlotRoundTrip(t *testing.T) {
	grid := &Grid{Periods: map[PeriodKey]string{1: "09:00-09:50"}}

	assignment := Slot{
		Subject:     "COMPUTER NETWORKS",
		Counterpart: "CS-3A",
		Room:        "A-201",
		SessionType: "Lecture",
	}
	grid.SetSlot(Monday, 1, assignment)
	assert.Equal(t, assignment, grid.Slot(Monday, 1))

	grid.SetSlot(Monday, 1, FreeSlot())
	assert.True(t, grid.Slot(Monday, 1).IsFree())
}

func TestSlotSentinels(t *testing.T) {
	assert.True(t, FreeSlot().IsSentinel())
	assert.True(t, Slot{Subject: "free"}.IsFree())
	assert.True(t, Slot{Subject: "Break"}.IsBreak())
	assert.False(t, Slot{Subject: "MATHEMATICS"}.IsSentinel())
}

func TestGridEmpty(t *testing.T) {
	var nilGrid *Grid
	assert.True(t, nilGrid.Empty())
	assert.True(t, (&Grid{}).Empty())

	grid := &Grid{Periods: map[PeriodKey]string{1: "09:00"}}
	assert.True(t, grid.Empty(), "grid without timetable entries is empty")

	grid.SetSlot(Monday, 1, FreeSlot())
	assert.False(t, grid.Empty())
}

func TestDayLabel(t *testing.T) {
	assert.Equal(t, "Monday", Monday.Label())
	assert.Equal(t, "Saturday", Saturday.Label())
}

func TestDaysOrder(t *testing.T) {
	require.Len(t, Days, 6)
	assert.Equal(t, Monday, Days[0])
	assert.Equal(t, Saturday, Days[5])
}
