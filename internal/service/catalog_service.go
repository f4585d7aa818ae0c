package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/models"
	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
	"github.com/noah-isme/routine-planner-api/pkg/jobs"
	"github.com/noah-isme/routine-planner-api/pkg/timetable"
)

const (
	// JobTypeCatalogRefresh identifies queued catalog reloads.
	JobTypeCatalogRefresh = "catalog.refresh"

	minSuggestionQuery = 2
	maxSuggestions     = 7
	versionLength      = 12
)

type catalogFeed interface {
	Fetch(ctx context.Context) (*dto.CatalogFeed, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CatalogReader exposes the current catalog snapshot to other services.
type CatalogReader interface {
	Snapshot() (*models.Catalog, error)
	NormalizeSelection(codes []string) ([]string, error)
}

// CatalogService owns the in-memory section catalog and swaps it atomically on refresh.
type CatalogService struct {
	feed    catalogFeed
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger

	mu      sync.RWMutex
	catalog *models.Catalog
	queue   jobEnqueuer
}

// NewCatalogService wires the catalog feed.
func NewCatalogService(feed catalogFeed, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{feed: feed, cache: cache, metrics: metrics, logger: logger}
}

// SetRefreshQueue routes RequestRefresh through a background queue.
func (s *CatalogService) SetRefreshQueue(queue jobEnqueuer) {
	s.mu.Lock()
	s.queue = queue
	s.mu.Unlock()
}

// BuildSections converts feed records into sections. The record index becomes the section id.
func BuildSections(records []dto.CatalogRecord) []models.Section {
	sections := make([]models.Section, 0, len(records))
	for i, record := range records {
		code := normalizeCode(record.CourseCode)
		if code == "" {
			continue
		}
		sections = append(sections, models.Section{
			ID:           i,
			CourseCode:   code,
			SectionName:  record.SectionName,
			Faculty:      record.Faculties,
			Times:        timetable.Parse(record.PreRegSchedule + " " + record.PreRegLabSchedule),
			Capacity:     record.Capacity,
			ConsumedSeat: record.ConsumedSeat,
			RawSchedule:  strings.ReplaceAll(record.PreRegSchedule, "\n", " "),
		})
	}
	return sections
}

// Load replaces the catalog with the decoded feed and returns the new snapshot.
func (s *CatalogService) Load(ctx context.Context, feed *dto.CatalogFeed) *models.Catalog {
	version := feed.Checksum
	if len(version) > versionLength {
		version = version[:versionLength]
	}
	next := models.NewCatalog(version, BuildSections(feed.Records))

	s.mu.Lock()
	previous := s.catalog
	s.catalog = next
	s.mu.Unlock()

	s.metrics.SetCatalogSize(len(next.Codes), next.SectionCount())
	s.logger.Info("catalog loaded",
		zap.String("version", next.Version),
		zap.String("source", feed.Source),
		zap.Int("courses", len(next.Codes)),
		zap.Int("sections", next.SectionCount()),
	)

	if previous != nil && previous.Version != next.Version {
		_ = s.cache.Invalidate(ctx, routineCacheNamespace(previous.Version)+":*")
	}
	return next
}

// Refresh fetches the feed and swaps the catalog when its content changed.
func (s *CatalogService) Refresh(ctx context.Context) error {
	if s.feed == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "catalog feed is not configured")
	}
	feed, err := s.feed.Fetch(ctx)
	if err != nil {
		s.metrics.RecordCatalogRefresh("failure")
		s.logger.Warn("catalog refresh failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrCatalogUnavailable.Code, appErrors.ErrCatalogUnavailable.Status, "failed to fetch course catalog")
	}
	s.metrics.RecordCatalogRefresh("success")

	if current, err := s.Snapshot(); err == nil && strings.HasPrefix(feed.Checksum, current.Version) {
		s.logger.Debug("catalog unchanged", zap.String("version", current.Version))
		return nil
	}
	s.Load(ctx, feed)
	return nil
}

// RequestRefresh queues a refresh, or runs it inline when no queue is attached. It returns the job id;
// when a refresh is already waiting its id is returned instead.
func (s *CatalogService) RequestRefresh(ctx context.Context) (string, error) {
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeCatalogRefresh}

	s.mu.RLock()
	queue := s.queue
	s.mu.RUnlock()

	if queue == nil {
		return job.ID, s.Refresh(ctx)
	}
	if err := queue.Enqueue(job); err != nil {
		var pending *jobs.PendingError
		if errors.As(err, &pending) {
			return pending.ID, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue catalog refresh")
	}
	return job.ID, nil
}

// HandleRefreshJob is the jobs.Handler for catalog refresh jobs.
func (s *CatalogService) HandleRefreshJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeCatalogRefresh {
		return fmt.Errorf("unsupported job type %q", job.Type)
	}
	return s.Refresh(ctx)
}

// Snapshot returns the current catalog.
func (s *CatalogService) Snapshot() (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return nil, appErrors.ErrCatalogUnavailable
	}
	return s.catalog, nil
}

// Ready reports whether a catalog has been loaded.
func (s *CatalogService) Ready() bool {
	_, err := s.Snapshot()
	return err == nil
}

// Status summarises the loaded catalog.
func (s *CatalogService) Status() dto.CatalogStatus {
	catalog, err := s.Snapshot()
	if err != nil {
		return dto.CatalogStatus{}
	}
	return dto.CatalogStatus{
		Loaded:   true,
		Version:  catalog.Version,
		Courses:  len(catalog.Codes),
		Sections: catalog.SectionCount(),
		LoadedAt: catalog.LoadedAt.Format(time.RFC3339),
	}
}

// ListCourses pages through course codes in catalog order.
func (s *CatalogService) ListCourses(page, pageSize int) ([]dto.CourseSummary, *models.Pagination, error) {
	catalog, err := s.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	pagination := models.NewPagination(page, pageSize, len(catalog.Codes))
	start, end := pagination.Bounds()
	summaries := make([]dto.CourseSummary, 0, end-start)
	for _, code := range catalog.Codes[start:end] {
		summaries = append(summaries, dto.CourseSummary{Code: code, Sections: len(catalog.Courses[code])})
	}
	return summaries, pagination, nil
}

// Course returns the sections of one course.
func (s *CatalogService) Course(code string) ([]models.Section, error) {
	catalog, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	sections, ok := catalog.Courses[normalizeCode(code)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", normalizeCode(code)))
	}
	return sections, nil
}

// Suggest returns up to seven course codes starting with query, skipping excluded codes.
// Queries shorter than two characters yield no suggestions.
func (s *CatalogService) Suggest(query string, exclude []string) ([]string, error) {
	catalog, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return SuggestCourses(catalog, query, exclude), nil
}

// SuggestCourses applies the suggestion rules to a catalog snapshot.
func SuggestCourses(catalog *models.Catalog, query string, exclude []string) []string {
	prefix := normalizeCode(query)
	suggestions := []string{}
	if len(prefix) < minSuggestionQuery || catalog == nil {
		return suggestions
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, code := range exclude {
		skip[normalizeCode(code)] = struct{}{}
	}
	for _, code := range catalog.Codes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		if _, excluded := skip[code]; excluded {
			continue
		}
		suggestions = append(suggestions, code)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

// NormalizeSelection upper-cases and trims codes, then checks that each exists exactly once.
func (s *CatalogService) NormalizeSelection(codes []string) ([]string, error) {
	catalog, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return NormalizeSelection(catalog, codes)
}

// NormalizeSelection validates a course selection against a catalog snapshot.
func NormalizeSelection(catalog *models.Catalog, codes []string) ([]string, error) {
	selected := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, raw := range codes {
		code := normalizeCode(raw)
		if code == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course code must not be empty")
		}
		if _, dup := seen[code]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %s already added", code))
		}
		if _, ok := catalog.Courses[code]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", code))
		}
		seen[code] = struct{}{}
		selected = append(selected, code)
	}
	return selected, nil
}

// ParseSchedule exposes the schedule parser.
func (s *CatalogService) ParseSchedule(raw string) []models.MeetingTime {
	return timetable.Parse(raw)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
