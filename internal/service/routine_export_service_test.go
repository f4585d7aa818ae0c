package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/routine-planner-api/internal/models"
	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
	"github.com/noah-isme/routine-planner-api/pkg/export"
)

type routineLoaderStub struct {
	record  *models.ConfirmedRoutine
	routine models.Routine
	err     error
}

func (s *routineLoaderStub) Load(ctx context.Context, id string) (*models.ConfirmedRoutine, models.Routine, error) {
	return s.record, s.routine, s.err
}

func exportFixture() *routineLoaderStub {
	a := section(3, "CSE110", meeting(models.Sunday, "08:00", "09:20"), meeting(models.Tuesday, "08:00", "09:20"))
	a.Faculty = "ABC"
	a.ConsumedSeat = 30
	b := section(7, "MAT110", meeting(models.Monday, "11:00", "12:20"))
	b.RawSchedule = "Monday(11:00 AM-12:20 PM-07A-01C)"
	return &routineLoaderStub{
		record:  &models.ConfirmedRoutine{ID: "r-1", CourseCodes: pq.StringArray{"CSE110", "MAT110"}},
		routine: models.Routine{&a, &b},
	}
}

func TestRoutineExportCSV(t *testing.T) {
	svc := NewRoutineExportService(exportFixture(), nil, nil, nil, nil)

	file, err := svc.Export(context.Background(), "r-1", "")
	require.NoError(t, err)
	assert.Equal(t, "routine-r-1.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	text := string(file.Data)
	assert.Contains(t, text, "CSE110-03,ABC,Full,N/A")
	assert.Contains(t, text, "MAT110-07,,30/30,Monday(11:00 AM-12:20 PM-07A-01C)")
	assert.Contains(t, text, "Time,Sunday,Monday,Tuesday,Wednesday,Thursday,Friday,Saturday")
}

func TestRoutineExportPDF(t *testing.T) {
	svc := NewRoutineExportService(exportFixture(), nil, nil, nil, nil)

	file, err := svc.Export(context.Background(), "r-1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestRoutineExportICS(t *testing.T) {
	ics, err := export.NewICSExporter("UTC", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), 14)
	require.NoError(t, err)
	svc := NewRoutineExportService(exportFixture(), nil, nil, ics, nil)

	file, err := svc.Export(context.Background(), "r-1", "ics")
	require.NoError(t, err)
	assert.Equal(t, "text/calendar", file.ContentType)
	assert.Equal(t, 3, strings.Count(string(file.Data), "BEGIN:VEVENT"))
}

func TestRoutineExportErrors(t *testing.T) {
	svc := NewRoutineExportService(exportFixture(), nil, nil, nil, nil)

	_, err := svc.Export(context.Background(), "r-1", "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(context.Background(), "r-1", "ics")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	missing := &routineLoaderStub{err: appErrors.Clone(appErrors.ErrNotFound, "routine not found")}
	_, err = NewRoutineExportService(missing, nil, nil, nil, nil).Export(context.Background(), "nope", "csv")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	failing := NewRoutineExportService(exportFixture(), csvFailing{}, nil, nil, nil)
	_, err = failing.Export(context.Background(), "r-1", "csv")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

type csvFailing struct{}

func (csvFailing) Render(datasets ...export.Dataset) ([]byte, error) {
	return nil, errors.New("disk full")
}

func TestGridDatasetMarksConflicts(t *testing.T) {
	a := section(1, "A", meeting(models.Sunday, "08:00", "09:20"))
	b := section(2, "B", meeting(models.Sunday, "08:30", "09:00"))

	data := GridDataset(models.Routine{&a, &b})
	require.Len(t, data.Rows, 7)
	assert.True(t, strings.HasPrefix(data.Rows[0][1], "! "))
	assert.Equal(t, "", data.Rows[0][2])
}
