package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/models"
	"github.com/noah-isme/routine-planner-api/pkg/timetable"
)

// BuildRoutineView renders a routine into its status table and weekly grid.
func BuildRoutineView(index int, routine models.Routine) dto.RoutineView {
	return dto.RoutineView{
		Index:    index,
		Sections: SectionStatusRows(routine),
		Grid:     BuildGrid(routine),
	}
}

// SectionStatusRows lists one row per section with seat availability and the raw schedule.
func SectionStatusRows(routine models.Routine) []dto.SectionStatusRow {
	rows := make([]dto.SectionStatusRow, 0, len(routine))
	for _, section := range routine {
		available := section.AvailableSeats()
		seats := fmt.Sprintf("%d/%d", available, section.Capacity)
		if available <= 0 {
			seats = "Full"
		}
		schedule := strings.TrimSpace(section.RawSchedule)
		if schedule == "" {
			schedule = timetable.NotAvailable
		}
		rows = append(rows, dto.SectionStatusRow{
			SectionID:     section.ID,
			CourseSection: section.CourseCode + "-" + section.SectionName,
			Faculty:       section.Faculty,
			Seats:         seats,
			Full:          available <= 0,
			Schedule:      schedule,
		})
	}
	return rows
}

// BuildGrid places every meeting of the routine into the Sunday-first slot grid.
// A cell holding more than one entry is flagged as a conflict.
func BuildGrid(routine models.Routine) []dto.GridRow {
	grid := make([]dto.GridRow, len(timetable.Slots))
	for i, slot := range timetable.Slots {
		cells := make([]dto.GridCell, len(models.Days))
		for j, day := range models.Days {
			cells[j] = dto.GridCell{Day: string(day)}
		}
		grid[i] = dto.GridRow{Slot: slot.Label, Cells: cells}
	}

	for _, section := range routine {
		for _, meeting := range section.Times {
			for _, slot := range timetable.AffectedSlots(meeting.StartTime, meeting.EndTime) {
				row, col := timetable.Cell(meeting.Day, slot)
				if col == 0 {
					continue
				}
				cell := &grid[row-1].Cells[col-1]
				cell.Entries = append(cell.Entries, dto.GridEntry{
					CourseCode:  section.CourseCode,
					SectionName: section.SectionName,
					Faculty:     section.Faculty,
					Room:        meeting.Room,
				})
				cell.Conflict = len(cell.Entries) > 1
			}
		}
	}
	return grid
}
