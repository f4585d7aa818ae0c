package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/middleware"
	"github.com/noah-isme/routine-planner-api/internal/models"
	"github.com/noah-isme/routine-planner-api/internal/service"
	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
	"github.com/noah-isme/routine-planner-api/pkg/response"
)

const relaxPreferencesMessage = "no conflict-free routine matches these preferences; try more days or a wider time window"

type routinePlanner interface {
	Generate(ctx context.Context, req dto.GenerateRoutineRequest) (*dto.GenerateRoutineResponse, error)
	Proposal(id string, page, pageSize int) ([]dto.RoutineView, *models.Pagination, error)
	Confirm(ctx context.Context, req dto.ConfirmRoutineRequest) (*dto.ConfirmedRoutineResponse, error)
	Get(ctx context.Context, id string) (*dto.ConfirmedRoutineResponse, error)
	List(ctx context.Context, page, pageSize int) ([]dto.ConfirmedRoutineResponse, *models.Pagination, error)
	Delete(ctx context.Context, id string) error
}

type routineExporter interface {
	Export(ctx context.Context, id, format string) (*service.ExportFile, error)
}

// RoutineHandler exposes routine generation and confirmed routines.
type RoutineHandler struct {
	routines routinePlanner
	exporter routineExporter
}

// NewRoutineHandler constructs the handler.
func NewRoutineHandler(routines *service.RoutineService, exporter *service.RoutineExportService) *RoutineHandler {
	return &RoutineHandler{routines: routines, exporter: exporter}
}

// Generate godoc
// @Summary Generate conflict-free routines
// @Description Searches every combination of one section per course that fits the chosen days and time window. An empty result is a success with a hint in meta.message.
// @Tags Routines
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRoutineRequest true "Courses and preferences"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /routines/generate [post]
func (h *RoutineHandler) Generate(c *gin.Context) {
	var req dto.GenerateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.routines.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.CacheHit)
	if result.Total == 0 {
		middleware.SetMeta(c, "message", relaxPreferencesMessage)
	}
	if result.Truncated {
		middleware.SetMeta(c, "truncated", true)
	}
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// Proposal godoc
// @Summary Page through a stored proposal
// @Tags Routines
// @Produce json
// @Param id path string true "Proposal ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /routines/proposals/{id} [get]
func (h *RoutineHandler) Proposal(c *gin.Context) {
	views, pagination, err := h.routines.Proposal(c.Param("id"), parseQueryInt(c, "page", 1), parseQueryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, pagination)
}

// Confirm godoc
// @Summary Confirm one routine of a proposal
// @Tags Routines
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmRoutineRequest true "Proposal and index"
// @Success 201 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /routines [post]
func (h *RoutineHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirm payload"))
		return
	}
	routine, err := h.routines.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, routine)
}

// List godoc
// @Summary List confirmed routines
// @Tags Routines
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /routines [get]
func (h *RoutineHandler) List(c *gin.Context) {
	routines, pagination, err := h.routines.List(c.Request.Context(), parseQueryInt(c, "page", 1), parseQueryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routines, pagination)
}

// Get godoc
// @Summary Get a confirmed routine
// @Tags Routines
// @Produce json
// @Param id path string true "Routine ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /routines/{id} [get]
func (h *RoutineHandler) Get(c *gin.Context) {
	routine, err := h.routines.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routine, nil)
}

// Delete godoc
// @Summary Delete a confirmed routine
// @Tags Routines
// @Param id path string true "Routine ID"
// @Success 204
// @Router /routines/{id} [delete]
func (h *RoutineHandler) Delete(c *gin.Context) {
	if err := h.routines.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download a confirmed routine
// @Tags Routines
// @Produce octet-stream
// @Param id path string true "Routine ID"
// @Param format query string false "csv, pdf or ics" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /routines/{id}/export [get]
func (h *RoutineHandler) Export(c *gin.Context) {
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
