package dto

import "time"

// GenerateRoutineRequest asks for conflict-free routines across the selected courses.
type GenerateRoutineRequest struct {
	Courses   []string `json:"courses" validate:"required,min=1,max=12,dive,required"`
	Days      []string `json:"days" validate:"required,min=1,max=7,dive,required"`
	StartTime string   `json:"startTime" validate:"required"`
	EndTime   string   `json:"endTime" validate:"required"`
	Limit     int      `json:"limit" validate:"omitempty,min=1,max=500"`
	Seed      *int64   `json:"seed,omitempty"`
}

// CourseDiagnostic reports how many sections of a course matched the preferences.
type CourseDiagnostic struct {
	Code          string `json:"code"`
	ValidSections int    `json:"validSections"`
}

// GenerateRoutineResponse returns the first page of a stored proposal.
type GenerateRoutineResponse struct {
	ProposalID  string             `json:"proposalId"`
	Total       int                `json:"total"`
	Truncated   bool               `json:"truncated"`
	Suggestions []RoutineView      `json:"suggestions"`
	Courses     []CourseDiagnostic `json:"courses"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	CacheHit    bool               `json:"-"`
}

// ConfirmRoutineRequest picks one routine out of a proposal.
type ConfirmRoutineRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Index      int    `json:"index" validate:"min=0"`
}

// ConfirmedRoutineResponse returns a stored routine with its rendered view.
type ConfirmedRoutineResponse struct {
	ID             string      `json:"id"`
	ProposalID     string      `json:"proposalId"`
	CatalogVersion string      `json:"catalogVersion"`
	Courses        []string    `json:"courses"`
	CreatedAt      time.Time   `json:"createdAt"`
	Routine        RoutineView `json:"routine"`
}

// RoutineView is a display-ready routine: a status table plus the weekly grid.
type RoutineView struct {
	Index    int                `json:"index"`
	Sections []SectionStatusRow `json:"sections"`
	Grid     []GridRow          `json:"grid"`
}

// SectionStatusRow summarises one section of a routine.
type SectionStatusRow struct {
	SectionID     int    `json:"sectionId"`
	CourseSection string `json:"courseSection"`
	Faculty       string `json:"faculty"`
	Seats         string `json:"seats"`
	Full          bool   `json:"full"`
	Schedule      string `json:"schedule"`
}

// GridRow is one time slot across the seven days.
type GridRow struct {
	Slot  string     `json:"slot"`
	Cells []GridCell `json:"cells"`
}

// GridCell holds the meetings placed in a (day, slot) position.
type GridCell struct {
	Day      string      `json:"day"`
	Entries  []GridEntry `json:"entries,omitempty"`
	Conflict bool        `json:"conflict,omitempty"`
}

// GridEntry is a single meeting rendered inside a cell.
type GridEntry struct {
	CourseCode  string `json:"courseCode"`
	SectionName string `json:"sectionName"`
	Faculty     string `json:"faculty"`
	Room        string `json:"room"`
}
