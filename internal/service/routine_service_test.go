package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/models"
	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
)

type memoryCache struct {
	items map[string][]byte
	gets  int
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.items = map[string][]byte{}
	return nil
}

type routineRepoStub struct {
	items     map[string]*models.ConfirmedRoutine
	createErr error
}

func newRoutineRepoStub() *routineRepoStub {
	return &routineRepoStub{items: map[string]*models.ConfirmedRoutine{}}
}

func (r *routineRepoStub) Create(ctx context.Context, routine *models.ConfirmedRoutine) error {
	if r.createErr != nil {
		return r.createErr
	}
	routine.ID = "routine-1"
	routine.CreatedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	copied := *routine
	r.items[routine.ID] = &copied
	return nil
}

func (r *routineRepoStub) FindByID(ctx context.Context, id string) (*models.ConfirmedRoutine, error) {
	routine, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return routine, nil
}

func (r *routineRepoStub) List(ctx context.Context, limit, offset int) ([]models.ConfirmedRoutine, int, error) {
	list := make([]models.ConfirmedRoutine, 0, len(r.items))
	for _, routine := range r.items {
		list = append(list, *routine)
	}
	return list, len(list), nil
}

func (r *routineRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func newTestRoutineService(t *testing.T, repo routineRepository, cache *CacheService) *RoutineService {
	t.Helper()
	return NewRoutineService(loadedCatalogService(t), repo, cache, NewMetricsService(), nil, nil, RoutineServiceConfig{SuggestionLimit: 1})
}

func generateRequest() dto.GenerateRoutineRequest {
	return dto.GenerateRoutineRequest{
		Courses:   []string{"cse110", "MAT110"},
		Days:      []string{"sunday", "Monday", "TUESDAY", "Wednesday"},
		StartTime: "08:00",
		EndTime:   "05:00 PM",
	}
}

func TestParsePreferences(t *testing.T) {
	prefs, err := ParsePreferences([]string{"tuesday", "Sunday", "SUNDAY"}, "8:00 AM", "17:00")
	require.NoError(t, err)
	assert.Equal(t, []models.Day{models.Sunday, models.Tuesday}, prefs.Days)
	assert.Equal(t, "08:00", prefs.StartTime)
	assert.Equal(t, "17:00", prefs.EndTime)

	_, err = ParsePreferences([]string{"Someday"}, "08:00", "17:00")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = ParsePreferences([]string{"Sunday"}, "17:00", "08:00")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = ParsePreferences([]string{"Sunday"}, "late", "08:00")
	assert.Error(t, err)
}

func TestRoutineServiceGenerate(t *testing.T) {
	svc := newTestRoutineService(t, nil, nil)

	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	assert.False(t, resp.Truncated)
	// CSE110-02 has a Wednesday lab ending 16:50 and a Monday class; both sections fit.
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, []dto.CourseDiagnostic{{Code: "CSE110", ValidSections: 2}, {Code: "MAT110", ValidSections: 1}}, resp.Courses)
	assert.Len(t, resp.Suggestions[0].Grid, 7)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestRoutineServiceGenerateEmptyIsNotAnError(t *testing.T) {
	svc := newTestRoutineService(t, nil, nil)
	req := generateRequest()
	req.Days = []string{"Friday"}

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
	assert.Empty(t, resp.Suggestions)
	assert.Equal(t, 0, resp.Courses[0].ValidSections)
}

func TestRoutineServiceGenerateValidation(t *testing.T) {
	svc := newTestRoutineService(t, nil, nil)

	_, err := svc.Generate(context.Background(), dto.GenerateRoutineRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req := generateRequest()
	req.Courses = []string{"PHY111"}
	_, err = svc.Generate(context.Background(), req)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	req = generateRequest()
	req.Courses = []string{"CSE110", "cse110"}
	_, err = svc.Generate(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoutineServiceGenerateWithoutCatalog(t *testing.T) {
	svc := NewRoutineService(NewCatalogService(nil, nil, nil, nil), nil, nil, nil, nil, nil, RoutineServiceConfig{})
	_, err := svc.Generate(context.Background(), generateRequest())
	assert.ErrorIs(t, err, appErrors.ErrCatalogUnavailable)
}

func TestRoutineServiceGenerateSeedIsDeterministic(t *testing.T) {
	svc := newTestRoutineService(t, nil, nil)
	seed := int64(7)
	req := generateRequest()
	req.Seed = &seed
	req.Limit = 10

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first.Suggestions, 2)
	assert.Equal(t, first.Suggestions, second.Suggestions)
}

func TestRoutineServiceGenerateUsesCache(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	svc := newTestRoutineService(t, nil, cache)

	first, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, store.sets)

	second, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, store.sets)
	assert.Equal(t, 2, store.gets)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Courses, second.Courses)
}

func TestRoutineServiceProposalPaging(t *testing.T) {
	svc := newTestRoutineService(t, nil, nil)
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	views, pagination, err := svc.Proposal(resp.ProposalID, 2, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].Index)
	assert.Equal(t, 2, pagination.TotalCount)

	_, _, err = svc.Proposal("missing", 1, 10)
	assert.ErrorIs(t, err, appErrors.ErrProposalExpired)
}

func TestRoutineServiceConfirmAndLoad(t *testing.T) {
	repo := newRoutineRepoStub()
	svc := newTestRoutineService(t, repo, nil)
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), dto.ConfirmRoutineRequest{ProposalID: resp.ProposalID, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, "routine-1", confirmed.ID)
	assert.Equal(t, "0123456789ab", confirmed.CatalogVersion)
	assert.Equal(t, []string{"CSE110", "MAT110"}, confirmed.Courses)
	require.Len(t, confirmed.Routine.Sections, 2)

	loaded, err := svc.Get(context.Background(), "routine-1")
	require.NoError(t, err)
	assert.Equal(t, confirmed.Routine, loaded.Routine)

	list, pagination, err := svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, pagination.TotalCount)

	require.NoError(t, svc.Delete(context.Background(), "routine-1"))
	_, err = svc.Get(context.Background(), "routine-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	err = svc.Delete(context.Background(), "routine-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRoutineServiceConfirmErrors(t *testing.T) {
	repo := newRoutineRepoStub()
	svc := newTestRoutineService(t, repo, nil)
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), dto.ConfirmRoutineRequest{ProposalID: resp.ProposalID, Index: 5})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Confirm(context.Background(), dto.ConfirmRoutineRequest{ProposalID: "gone"})
	assert.ErrorIs(t, err, appErrors.ErrProposalExpired)

	repo.createErr = errors.New("db down")
	_, err = svc.Confirm(context.Background(), dto.ConfirmRoutineRequest{ProposalID: resp.ProposalID})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestRoutineServicePersistenceDisabled(t *testing.T) {
	svc := newTestRoutineService(t, nil, nil)
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), dto.ConfirmRoutineRequest{ProposalID: resp.ProposalID})
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	_, err = svc.Get(context.Background(), "x")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	_, _, err = svc.List(context.Background(), 1, 10)
	assert.Error(t, err)
	assert.Error(t, svc.Delete(context.Background(), "x"))
}
