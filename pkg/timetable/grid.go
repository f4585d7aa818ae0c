package timetable

import "github.com/noah-isme/routine-planner-api/internal/models"

// Slot is one row of the weekly display grid.
type Slot struct {
	Row   int    `json:"row"`
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// Slots is the fixed seven-period day used by the routine grid.
var Slots = []Slot{
	{Row: 1, Start: "08:00", End: "09:20", Label: "08:00 AM-09:20 AM"},
	{Row: 2, Start: "09:30", End: "10:50", Label: "09:30 AM-10:50 AM"},
	{Row: 3, Start: "11:00", End: "12:20", Label: "11:00 AM-12:20 PM"},
	{Row: 4, Start: "12:30", End: "13:50", Label: "12:30 PM-01:50 PM"},
	{Row: 5, Start: "14:00", End: "15:20", Label: "02:00 PM-03:20 PM"},
	{Row: 6, Start: "15:30", End: "16:50", Label: "03:30 PM-04:50 PM"},
	{Row: 7, Start: "17:00", End: "18:20", Label: "05:00 PM-06:20 PM"},
}

// AffectedSlots returns the grid rows a meeting from start to end touches.
func AffectedSlots(start, end string) []Slot {
	startMins, ok := ToMinutes(start)
	if !ok {
		return nil
	}
	endMins, ok := ToMinutes(end)
	if !ok {
		return nil
	}
	var result []Slot
	for _, slot := range Slots {
		slotStart, _ := ToMinutes(slot.Start)
		slotEnd, _ := ToMinutes(slot.End)
		if startMins < slotEnd && endMins > slotStart {
			result = append(result, slot)
		}
	}
	return result
}

// DayColumn returns the 1-based grid column for day, or 0 when unknown.
func DayColumn(day models.Day) int {
	for i, d := range models.Days {
		if d == day {
			return i + 1
		}
	}
	return 0
}

// Cell returns the 1-based (row, col) grid position of a meeting on day in slot.
// col is 0 when day is not a weekday name.
func Cell(day models.Day, slot Slot) (int, int) {
	return slot.Row, DayColumn(day)
}
