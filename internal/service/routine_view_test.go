package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/routine-planner-api/internal/models"
)

func TestSectionStatusRows(t *testing.T) {
	open := section(1, "CSE110", meeting(models.Sunday, "08:00", "09:20"))
	open.Faculty = "ABC"
	open.ConsumedSeat = 12
	open.RawSchedule = " Sunday(08:00 AM-09:20 AM-09A-06C) "
	full := section(2, "MAT110")
	full.ConsumedSeat = 31

	rows := SectionStatusRows(models.Routine{&open, &full})
	require.Len(t, rows, 2)
	assert.Equal(t, "CSE110-01", rows[0].CourseSection)
	assert.Equal(t, "18/30", rows[0].Seats)
	assert.False(t, rows[0].Full)
	assert.Equal(t, "Sunday(08:00 AM-09:20 AM-09A-06C)", rows[0].Schedule)

	assert.Equal(t, "Full", rows[1].Seats)
	assert.True(t, rows[1].Full)
	assert.Equal(t, "N/A", rows[1].Schedule)
}

func TestBuildGridPlacesMeetings(t *testing.T) {
	lab := section(1, "CSE110", meeting(models.Wednesday, "14:00", "16:50"))
	lab.Times[0].Room = "12F-31L"
	theory := section(2, "MAT110", meeting(models.Saturday, "08:00", "09:20"))

	grid := BuildGrid(models.Routine{&lab, &theory})
	require.Len(t, grid, 7)
	assert.Equal(t, "08:00 AM-09:20 AM", grid[0].Slot)
	require.Len(t, grid[0].Cells, 7)
	assert.Equal(t, "Sunday", grid[0].Cells[0].Day)

	assert.Len(t, grid[0].Cells[6].Entries, 1)
	assert.Equal(t, "MAT110", grid[0].Cells[6].Entries[0].CourseCode)

	for _, row := range []int{4, 5} {
		cell := grid[row].Cells[3]
		require.Len(t, cell.Entries, 1, "row %d", row)
		assert.Equal(t, "12F-31L", cell.Entries[0].Room)
		assert.False(t, cell.Conflict)
	}
	assert.Empty(t, grid[3].Cells[3].Entries)
}

func TestBuildGridFlagsConflicts(t *testing.T) {
	a := section(1, "A", meeting(models.Monday, "09:30", "10:50"))
	b := section(2, "B", meeting(models.Monday, "10:00", "10:30"))

	grid := BuildGrid(models.Routine{&a, &b})
	cell := grid[1].Cells[1]
	assert.Len(t, cell.Entries, 2)
	assert.True(t, cell.Conflict)
}

func TestBuildRoutineView(t *testing.T) {
	a := section(1, "A", meeting(models.Monday, "09:30", "10:50"))
	view := BuildRoutineView(4, models.Routine{&a})
	assert.Equal(t, 4, view.Index)
	assert.Len(t, view.Sections, 1)
	assert.Len(t, view.Grid, 7)
}
