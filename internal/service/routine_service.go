package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/models"
	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
	"github.com/noah-isme/routine-planner-api/pkg/timetable"
)

type routineRepository interface {
	Create(ctx context.Context, routine *models.ConfirmedRoutine) error
	FindByID(ctx context.Context, id string) (*models.ConfirmedRoutine, error)
	List(ctx context.Context, limit, offset int) ([]models.ConfirmedRoutine, int, error)
	Delete(ctx context.Context, id string) error
}

// RoutineServiceConfig governs routine generation behaviour.
type RoutineServiceConfig struct {
	ProposalTTL     time.Duration
	ProposalLimit   int
	CacheTTL        time.Duration
	SuggestionLimit int
	MaxVisits       int
}

// RoutineService runs routine searches, keeps proposals and persists confirmed routines.
type RoutineService struct {
	catalog   CatalogReader
	repo      routineRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RoutineServiceConfig
	store     *proposalStore
}

// NewRoutineService wires routine dependencies. repo may be nil when persistence is disabled.
func NewRoutineService(
	catalog CatalogReader,
	repo routineRepository,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RoutineServiceConfig,
) *RoutineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.ProposalLimit <= 0 {
		cfg.ProposalLimit = defaultProposalLimit
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = 50
	}
	return &RoutineService{
		catalog:   catalog,
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newProposalStore(cfg.ProposalTTL, cfg.ProposalLimit),
	}
}

// routineCacheEntry is the cached outcome of a search, stored as section ids.
type routineCacheEntry struct {
	SectionIDs    [][]int `json:"sectionIds"`
	ValidSections []int   `json:"validSections"`
	Truncated     bool    `json:"truncated"`
}

func routineCacheNamespace(version string) string {
	return "routines:" + version
}

// Generate searches for conflict-free routines and stores the full shuffled list as a proposal.
// An empty result is not an error.
func (s *RoutineService) Generate(ctx context.Context, req dto.GenerateRoutineRequest) (*dto.GenerateRoutineResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid routine generation payload")
	}
	prefs, err := ParsePreferences(req.Days, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}
	courses, err := NormalizeSelection(catalog, req.Courses)
	if err != nil {
		return nil, err
	}

	opts := []RoutineGeneratorOption{WithMaxVisits(s.cfg.MaxVisits)}
	if req.Seed != nil {
		opts = append(opts, WithSeed(*req.Seed))
	}
	generator := NewRoutineGenerator(opts...)

	cacheKey := CacheKey(routineCacheNamespace(catalog.Version),
		strings.Join(courses, ","), dayList(prefs.Days), prefs.StartTime, prefs.EndTime)

	var result SearchResult
	hit := false
	if req.Seed == nil {
		result, hit = s.cachedSearch(ctx, cacheKey, catalog, generator)
	}
	if !hit {
		start := time.Now()
		result = generator.Search(catalog.Courses, courses, prefs)
		s.metrics.ObserveRoutineSearch(time.Since(start), len(result.Routines), result.Truncated)
		s.logger.Debug("routine search finished",
			zap.Strings("courses", courses),
			zap.Int("routines", len(result.Routines)),
			zap.Int("visited", result.Visited),
			zap.Bool("truncated", result.Truncated),
			zap.Duration("elapsed", time.Since(start)),
		)
		if req.Seed == nil {
			s.cache.Set(ctx, cacheKey, toCacheEntry(result), s.cfg.CacheTTL)
		}
	}

	proposal := routineProposal{
		ID:            uuid.NewString(),
		Catalog:       catalog,
		Courses:       courses,
		Preferences:   prefs,
		Routines:      result.Routines,
		ValidSections: result.ValidSections,
		Truncated:     result.Truncated,
		CreatedAt:     time.Now().UTC(),
	}
	s.store.Save(proposal)

	limit := s.cfg.SuggestionLimit
	if req.Limit > 0 {
		limit = req.Limit
	}
	first := proposal.Routines[:min(limit, len(proposal.Routines))]

	response := &dto.GenerateRoutineResponse{
		ProposalID:  proposal.ID,
		Total:       len(proposal.Routines),
		Truncated:   proposal.Truncated,
		Suggestions: make([]dto.RoutineView, 0, len(first)),
		Courses:     make([]dto.CourseDiagnostic, 0, len(courses)),
		ExpiresAt:   s.store.ExpiresAt(proposal),
		CacheHit:    hit,
	}
	for i, routine := range first {
		response.Suggestions = append(response.Suggestions, BuildRoutineView(i, routine))
	}
	for i, code := range courses {
		diagnostic := dto.CourseDiagnostic{Code: code}
		if i < len(result.ValidSections) {
			diagnostic.ValidSections = result.ValidSections[i]
		}
		response.Courses = append(response.Courses, diagnostic)
	}
	return response, nil
}

func (s *RoutineService) cachedSearch(ctx context.Context, key string, catalog *models.Catalog, generator *RoutineGenerator) (SearchResult, bool) {
	var entry routineCacheEntry
	if !s.cache.Get(ctx, key, &entry) {
		return SearchResult{}, false
	}
	routines := make([]models.Routine, 0, len(entry.SectionIDs))
	for _, ids := range entry.SectionIDs {
		routine := make(models.Routine, 0, len(ids))
		for _, id := range ids {
			section, ok := catalog.Section(id)
			if !ok {
				return SearchResult{}, false
			}
			routine = append(routine, section)
		}
		routines = append(routines, routine)
	}
	return SearchResult{
		Routines:      generator.Shuffle(routines),
		ValidSections: entry.ValidSections,
		Truncated:     entry.Truncated,
	}, true
}

func toCacheEntry(result SearchResult) routineCacheEntry {
	entry := routineCacheEntry{
		SectionIDs:    make([][]int, 0, len(result.Routines)),
		ValidSections: result.ValidSections,
		Truncated:     result.Truncated,
	}
	for _, routine := range result.Routines {
		entry.SectionIDs = append(entry.SectionIDs, routine.SectionIDs())
	}
	return entry
}

// Proposal pages through the routines of a stored proposal.
func (s *RoutineService) Proposal(id string, page, pageSize int) ([]dto.RoutineView, *models.Pagination, error) {
	proposal, ok := s.store.Get(id)
	if !ok {
		return nil, nil, appErrors.ErrProposalExpired
	}
	pagination := models.NewPagination(page, pageSize, len(proposal.Routines))
	start, end := pagination.Bounds()
	views := make([]dto.RoutineView, 0, end-start)
	for i := start; i < end; i++ {
		views = append(views, BuildRoutineView(i, proposal.Routines[i]))
	}
	return views, pagination, nil
}

// Confirm persists one routine of a proposal.
func (s *RoutineService) Confirm(ctx context.Context, req dto.ConfirmRoutineRequest) (*dto.ConfirmedRoutineResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid routine confirmation payload")
	}
	if s.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "routine persistence is disabled")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.ErrProposalExpired
	}
	if req.Index >= len(proposal.Routines) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("index %d is out of range for %d routines", req.Index, len(proposal.Routines)))
	}
	routine := proposal.Routines[req.Index]

	sections := make([]models.Section, len(routine))
	ids := make(pq.Int64Array, len(routine))
	for i, section := range routine {
		sections[i] = *section
		ids[i] = int64(section.ID)
	}
	snapshot, err := json.Marshal(sections)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode routine")
	}

	record := &models.ConfirmedRoutine{
		ProposalID:  proposal.ID,
		Version:     proposal.Catalog.Version,
		CourseCodes: pq.StringArray(routine.CourseCodes()),
		SectionIDs:  ids,
		Snapshot:    types.JSONText(snapshot),
	}
	start := time.Now()
	err = s.repo.Create(ctx, record)
	s.metrics.ObserveDBQuery("routine_create", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save routine")
	}
	s.logger.Info("routine confirmed",
		zap.String("routine_id", record.ID),
		zap.String("proposal_id", proposal.ID),
		zap.Ints("sections", routine.SectionIDs()),
	)
	return confirmedResponse(record, routine), nil
}

// Load returns a confirmed routine together with its section snapshot.
func (s *RoutineService) Load(ctx context.Context, id string) (*models.ConfirmedRoutine, models.Routine, error) {
	if s.repo == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "routine persistence is disabled")
	}
	start := time.Now()
	record, err := s.repo.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("routine_find", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "routine not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load routine")
	}
	routine, err := decodeSnapshot(record.Snapshot)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored routine is corrupt")
	}
	return record, routine, nil
}

// Get returns a confirmed routine rendered as status table and grid.
func (s *RoutineService) Get(ctx context.Context, id string) (*dto.ConfirmedRoutineResponse, error) {
	record, routine, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return confirmedResponse(record, routine), nil
}

// List pages through confirmed routines, newest first.
func (s *RoutineService) List(ctx context.Context, page, pageSize int) ([]dto.ConfirmedRoutineResponse, *models.Pagination, error) {
	if s.repo == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "routine persistence is disabled")
	}
	pagination := models.NewPagination(page, pageSize, 0)
	start := time.Now()
	records, total, err := s.repo.List(ctx, pagination.PageSize, pagination.Offset())
	s.metrics.ObserveDBQuery("routine_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list routines")
	}
	pagination.TotalCount = total

	responses := make([]dto.ConfirmedRoutineResponse, 0, len(records))
	for i := range records {
		routine, err := decodeSnapshot(records[i].Snapshot)
		if err != nil {
			s.logger.Warn("skipping corrupt routine snapshot", zap.String("routine_id", records[i].ID), zap.Error(err))
			continue
		}
		responses = append(responses, *confirmedResponse(&records[i], routine))
	}
	return responses, pagination, nil
}

// Delete removes a confirmed routine.
func (s *RoutineService) Delete(ctx context.Context, id string) error {
	if s.repo == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "routine persistence is disabled")
	}
	start := time.Now()
	err := s.repo.Delete(ctx, id)
	s.metrics.ObserveDBQuery("routine_delete", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "routine not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete routine")
	}
	return nil
}

// ParsePreferences validates raw day names and window bounds. Days come back deduplicated in week order.
func ParsePreferences(days []string, startTime, endTime string) (models.Preferences, error) {
	requested := models.Preferences{}
	for _, raw := range days {
		day, ok := timetable.ParseDay(raw)
		if !ok {
			return models.Preferences{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", raw))
		}
		requested.Days = append(requested.Days, day)
	}
	prefs := models.Preferences{Days: make([]models.Day, 0, len(requested.Days))}
	for _, day := range models.Days {
		if requested.AllowsDay(day) {
			prefs.Days = append(prefs.Days, day)
		}
	}
	start, ok := timetable.NormalizeClock(startTime)
	if !ok {
		return models.Preferences{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", startTime))
	}
	end, ok := timetable.NormalizeClock(endTime)
	if !ok {
		return models.Preferences{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end time %q", endTime))
	}
	if start >= end {
		return models.Preferences{}, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	prefs.StartTime = start
	prefs.EndTime = end
	return prefs, nil
}

func dayList(days []models.Day) string {
	names := make([]string, len(days))
	for i, day := range days {
		names[i] = string(day)
	}
	return strings.Join(names, ",")
}

func decodeSnapshot(raw types.JSONText) (models.Routine, error) {
	var sections []models.Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, err
	}
	routine := make(models.Routine, len(sections))
	for i := range sections {
		routine[i] = &sections[i]
	}
	return routine, nil
}

func confirmedResponse(record *models.ConfirmedRoutine, routine models.Routine) *dto.ConfirmedRoutineResponse {
	return &dto.ConfirmedRoutineResponse{
		ID:             record.ID,
		ProposalID:     record.ProposalID,
		CatalogVersion: record.Version,
		Courses:        []string(record.CourseCodes),
		CreatedAt:      record.CreatedAt,
		Routine:        BuildRoutineView(0, routine),
	}
}
