package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Day is a canonical, title-cased weekday name.
type Day string

const (
	Sunday    Day = "Sunday"
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

// Days lists weekdays in display order (Sunday first).
var Days = []Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// MeetingTime is one weekly meeting of a section. Times are 24h "HH:MM".
type MeetingTime struct {
	Day       Day    `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Room      string `json:"room"`
}

// Section is one offered instance of a course. Sections are immutable once the catalog is loaded.
type Section struct {
	ID           int           `json:"id"`
	CourseCode   string        `json:"courseCode"`
	SectionName  string        `json:"sectionName"`
	Faculty      string        `json:"faculty"`
	Times        []MeetingTime `json:"times"`
	Capacity     int           `json:"capacity"`
	ConsumedSeat int           `json:"consumedSeat"`
	RawSchedule  string        `json:"rawSchedule"`
}

// AvailableSeats returns the remaining capacity, which may be negative for overbooked sections.
func (s *Section) AvailableSeats() int {
	return s.Capacity - s.ConsumedSeat
}

// Preferences constrains which sections may appear in a routine.
type Preferences struct {
	Days      []Day  `json:"days"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// AllowsDay reports whether day is in the allowed set.
func (p Preferences) AllowsDay(day Day) bool {
	for _, d := range p.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Routine holds exactly one section per selected course, in selection order.
// Entries reference catalog sections and must not be mutated.
type Routine []*Section

// SectionIDs returns the section identifiers in routine order.
func (r Routine) SectionIDs() []int {
	ids := make([]int, len(r))
	for i, section := range r {
		ids[i] = section.ID
	}
	return ids
}

// CourseCodes returns the course codes in routine order.
func (r Routine) CourseCodes() []string {
	codes := make([]string, len(r))
	for i, section := range r {
		codes[i] = section.CourseCode
	}
	return codes
}

// Catalog is an immutable snapshot of all sections grouped by course code.
type Catalog struct {
	Version  string
	LoadedAt time.Time
	Codes    []string
	Courses  map[string][]Section
	byID     map[int]*Section
}

// NewCatalog groups sections by course code preserving arrival order.
func NewCatalog(version string, sections []Section) *Catalog {
	catalog := &Catalog{
		Version:  version,
		LoadedAt: time.Now().UTC(),
		Courses:  make(map[string][]Section),
		byID:     make(map[int]*Section, len(sections)),
	}
	for _, section := range sections {
		if _, ok := catalog.Courses[section.CourseCode]; !ok {
			catalog.Codes = append(catalog.Codes, section.CourseCode)
		}
		catalog.Courses[section.CourseCode] = append(catalog.Courses[section.CourseCode], section)
	}
	for _, code := range catalog.Codes {
		list := catalog.Courses[code]
		for i := range list {
			catalog.byID[list[i].ID] = &list[i]
		}
	}
	return catalog
}

// Section looks up a section by id.
func (c *Catalog) Section(id int) (*Section, bool) {
	if c == nil {
		return nil, false
	}
	section, ok := c.byID[id]
	return section, ok
}

// SectionCount returns the total number of sections in the snapshot.
func (c *Catalog) SectionCount() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// ConfirmedRoutine is a routine the user picked and stored.
type ConfirmedRoutine struct {
	ID          string         `db:"id" json:"id"`
	ProposalID  string         `db:"proposal_id" json:"proposal_id"`
	Version     string         `db:"catalog_version" json:"catalog_version"`
	CourseCodes pq.StringArray `db:"course_codes" json:"course_codes"`
	SectionIDs  pq.Int64Array  `db:"section_ids" json:"section_ids"`
	Snapshot    types.JSONText `db:"snapshot" json:"snapshot"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
