package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/models"
	"github.com/noah-isme/routine-planner-api/internal/service"
	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
	"github.com/noah-isme/routine-planner-api/pkg/response"
)

type catalogQuerier interface {
	Status() dto.CatalogStatus
	ListCourses(page, pageSize int) ([]dto.CourseSummary, *models.Pagination, error)
	Course(code string) ([]models.Section, error)
	Suggest(query string, exclude []string) ([]string, error)
	ParseSchedule(raw string) []models.MeetingTime
	RequestRefresh(ctx context.Context) (string, error)
}

// CatalogHandler exposes the course catalog.
type CatalogHandler struct {
	catalog catalogQuerier
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Status godoc
// @Summary Catalog snapshot status
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Status(), nil)
}

// Courses godoc
// @Summary List course codes
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /catalog/courses [get]
func (h *CatalogHandler) Courses(c *gin.Context) {
	courses, pagination, err := h.catalog.ListCourses(parseQueryInt(c, "page", 1), parseQueryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Course godoc
// @Summary Sections of a course
// @Tags Catalog
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/courses/{code} [get]
func (h *CatalogHandler) Course(c *gin.Context) {
	sections, err := h.catalog.Course(c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Suggestions godoc
// @Summary Course code suggestions
// @Description Returns up to seven course codes starting with q. Queries shorter than two characters return nothing.
// @Tags Catalog
// @Produce json
// @Param q query string true "Code prefix"
// @Param exclude query string false "Comma separated codes already selected"
// @Success 200 {object} response.Envelope
// @Router /catalog/suggestions [get]
func (h *CatalogHandler) Suggestions(c *gin.Context) {
	codes, err := h.catalog.Suggest(c.Query("q"), parseQueryList(c, "exclude"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	response.JSON(c, http.StatusOK, codes, nil)
}

// Parse godoc
// @Summary Parse a raw schedule string
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.ParseScheduleRequest true "Raw schedule"
// @Success 200 {object} response.Envelope
// @Router /catalog/parse [post]
func (h *CatalogHandler) Parse(c *gin.Context) {
	var req dto.ParseScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid parse payload"))
		return
	}
	if strings.TrimSpace(req.Schedule) == "" {
		response.JSON(c, http.StatusOK, []models.MeetingTime{}, nil)
		return
	}
	times := h.catalog.ParseSchedule(req.Schedule)
	if times == nil {
		times = []models.MeetingTime{}
	}
	response.JSON(c, http.StatusOK, times, nil)
}

// Refresh godoc
// @Summary Queue a catalog reload
// @Tags Catalog
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /catalog/refresh [post]
func (h *CatalogHandler) Refresh(c *gin.Context) {
	jobID, err := h.catalog.RequestRefresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.RefreshCatalogResponse{JobID: jobID})
}
