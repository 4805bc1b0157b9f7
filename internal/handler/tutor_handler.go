package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tutorpulse/reliability-api/internal/dto"
	"github.com/tutorpulse/reliability-api/internal/middleware"
	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
	"github.com/tutorpulse/reliability-api/pkg/response"
)

type tutorService interface {
	List(ctx context.Context, filter models.TutorFilter) ([]dto.TutorListItem, *models.Pagination, error)
	Detail(ctx context.Context, tutorID string) (*dto.TutorDetail, bool, error)
	Score(ctx context.Context, tutorID string) (*models.TutorScore, bool, error)
	History(ctx context.Context, tutorID string, limit int) (*dto.TutorHistory, error)
}

// TutorHandler exposes tutor roster and score read endpoints.
type TutorHandler struct {
	service tutorService
}

// NewTutorHandler builds a new handler.
func NewTutorHandler(service tutorService) *TutorHandler {
	return &TutorHandler{service: service}
}

// List godoc
// @Summary List tutors with current risk status
// @Tags Tutors
// @Produce json
// @Param risk_status query string false "all, high_risk, or low_risk"
// @Param sort_by query string false "reschedule_rate_30d, total_sessions_30d, or name"
// @Param sort_order query string false "asc or desc"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /tutors [get]
func (h *TutorHandler) List(c *gin.Context) {
	filter := models.TutorFilter{
		RiskStatus: c.DefaultQuery("risk_status", models.RiskStatusAll),
		SortBy:     c.DefaultQuery("sort_by", "reschedule_rate_30d"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
		Limit:      queryInt(c, "limit", 100),
		Offset:     queryInt(c, "offset", 0),
	}

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination, middleware.ExtractMeta(c))
}

// Detail godoc
// @Summary Get tutor detail with reliability score
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutors/{id} [get]
func (h *TutorHandler) Detail(c *gin.Context) {
	tutorID, ok := tutorIDParam(c)
	if !ok {
		return
	}

	detail, cacheHit, err := h.service.Detail(c.Request.Context(), tutorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, detail, nil, middleware.ExtractMeta(c))
}

// Score godoc
// @Summary Get tutor reliability score
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /tutors/{id}/score [get]
func (h *TutorHandler) Score(c *gin.Context) {
	tutorID, ok := tutorIDParam(c)
	if !ok {
		return
	}

	score, cacheHit, err := h.service.Score(c.Request.Context(), tutorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, score, nil, middleware.ExtractMeta(c))
}

// History godoc
// @Summary List a tutor's recent sessions
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Param limit query int false "Maximum sessions returned"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutors/{id}/history [get]
func (h *TutorHandler) History(c *gin.Context) {
	tutorID, ok := tutorIDParam(c)
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), tutorID, queryInt(c, "limit", 100))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil, middleware.ExtractMeta(c))
}

func tutorIDParam(c *gin.Context) (string, bool) {
	tutorID := c.Param("id")
	if _, err := uuid.Parse(tutorID); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tutor id must be a valid UUID"))
		return "", false
	}
	return tutorID, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
