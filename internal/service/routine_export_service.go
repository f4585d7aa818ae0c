package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/routine-planner-api/internal/models"
	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
	"github.com/noah-isme/routine-planner-api/pkg/export"
)

// Export formats for confirmed routines.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
	ExportFormatICS = "ics"
)

type routineLoader interface {
	Load(ctx context.Context, id string) (*models.ConfirmedRoutine, models.Routine, error)
}

type csvRenderer interface {
	Render(datasets ...export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(title string, datasets ...export.Dataset) ([]byte, error)
}

type icsRenderer interface {
	Render(name string, events []export.WeeklyEvent) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RoutineExportService renders confirmed routines as CSV, PDF or iCalendar.
type RoutineExportService struct {
	routines routineLoader
	csv      csvRenderer
	pdf      pdfRenderer
	ics      icsRenderer
	logger   *zap.Logger
}

// NewRoutineExportService constructs the exporter. Nil renderers fall back to the defaults; ics may stay nil to disable calendar export.
func NewRoutineExportService(routines routineLoader, csv csvRenderer, pdf pdfRenderer, ics icsRenderer, logger *zap.Logger) *RoutineExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &RoutineExportService{routines: routines, csv: csv, pdf: pdf, ics: ics, logger: logger}
}

// Export renders routine id in format.
func (s *RoutineExportService) Export(ctx context.Context, id, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF && format != ExportFormatICS {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if format == ExportFormatICS && s.ics == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "calendar export is not configured")
	}

	record, routine, err := s.routines.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	file := &ExportFile{Filename: fmt.Sprintf("routine-%s.%s", record.ID, format)}
	switch format {
	case ExportFormatCSV:
		file.ContentType = "text/csv"
		file.Data, err = s.csv.Render(StatusDataset(routine), GridDataset(routine))
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render("Class routine "+strings.Join(record.CourseCodes, ", "), StatusDataset(routine), GridDataset(routine))
	case ExportFormatICS:
		file.ContentType = "text/calendar"
		file.Data, err = s.ics.Render("Class routine", WeeklyEvents(record.ID, routine))
	}
	if err != nil {
		s.logger.Error("routine export failed", zap.String("routine_id", id), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render routine export")
	}
	return file, nil
}

// StatusDataset tabulates the section status rows.
func StatusDataset(routine models.Routine) export.Dataset {
	data := export.Dataset{Title: "Sections", Headers: []string{"Course", "Faculty", "Seats", "Schedule"}}
	for _, row := range SectionStatusRows(routine) {
		data.Append(row.CourseSection, row.Faculty, row.Seats, row.Schedule)
	}
	return data
}

// GridDataset flattens the weekly grid; conflicting cells are prefixed with "!".
func GridDataset(routine models.Routine) export.Dataset {
	headers := []string{"Time"}
	for _, day := range models.Days {
		headers = append(headers, string(day))
	}
	data := export.Dataset{Title: "Weekly grid", Headers: headers}
	for _, row := range BuildGrid(routine) {
		values := []string{row.Slot}
		for _, cell := range row.Cells {
			entries := make([]string, 0, len(cell.Entries))
			for _, entry := range cell.Entries {
				entries = append(entries, fmt.Sprintf("%s-%s (%s)", entry.CourseCode, entry.SectionName, entry.Room))
			}
			text := strings.Join(entries, "\n")
			if cell.Conflict {
				text = "! " + text
			}
			values = append(values, text)
		}
		data.Append(values...)
	}
	return data
}

// WeeklyEvents converts routine meetings into calendar events.
func WeeklyEvents(routineID string, routine models.Routine) []export.WeeklyEvent {
	events := []export.WeeklyEvent{}
	for _, section := range routine {
		for i, meeting := range section.Times {
			weekday, ok := weekdayOf(meeting.Day)
			if !ok {
				continue
			}
			events = append(events, export.WeeklyEvent{
				UID:         fmt.Sprintf("%s-%d-%d@routine-planner", routineID, section.ID, i),
				Summary:     section.CourseCode + "-" + section.SectionName,
				Location:    meeting.Room,
				Description: "Faculty: " + section.Faculty,
				Weekday:     weekday,
				Start:       meeting.StartTime,
				End:         meeting.EndTime,
			})
		}
	}
	return events
}

func weekdayOf(day models.Day) (time.Weekday, bool) {
	for i, d := range models.Days {
		if d == day {
			return time.Weekday(i), true
		}
	}
	return 0, false
}
