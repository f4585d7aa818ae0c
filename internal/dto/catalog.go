package dto

// CatalogRecord is one section entry from the external catalog feed.
type CatalogRecord struct {
	CourseCode        string `json:"courseCode"`
	SectionName       string `json:"sectionName"`
	Faculties         string `json:"faculties"`
	Capacity          int    `json:"capacity"`
	ConsumedSeat      int    `json:"consumedSeat"`
	PreRegSchedule    string `json:"preRegSchedule"`
	PreRegLabSchedule string `json:"preRegLabSchedule"`
}

// CatalogFeed is a decoded feed payload plus a checksum identifying its content.
type CatalogFeed struct {
	Source   string
	Checksum string
	Records  []CatalogRecord
}

// CourseSummary lists a course code with its section count.
type CourseSummary struct {
	Code     string `json:"code"`
	Sections int    `json:"sections"`
}

// CatalogStatus describes the loaded catalog snapshot.
type CatalogStatus struct {
	Loaded   bool   `json:"loaded"`
	Version  string `json:"version,omitempty"`
	Courses  int    `json:"courses"`
	Sections int    `json:"sections"`
	LoadedAt string `json:"loadedAt,omitempty"`
}

// ParseScheduleRequest carries a raw schedule string to parse.
type ParseScheduleRequest struct {
	Schedule string `json:"schedule"`
}

// RefreshCatalogResponse acknowledges a queued catalog refresh.
type RefreshCatalogResponse struct {
	JobID string `json:"jobId"`
}
