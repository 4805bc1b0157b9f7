package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorpulse/reliability-api/internal/dto"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
	"github.com/tutorpulse/reliability-api/pkg/response"
)

type sessionIngestor interface {
	Ingest(ctx context.Context, req dto.IngestSessionRequest) (*dto.IngestAck, error)
}

// SessionHandler exposes the session ingestion endpoint.
type SessionHandler struct {
	ingest sessionIngestor
}

// NewSessionHandler builds a new handler.
func NewSessionHandler(ingest sessionIngestor) *SessionHandler {
	return &SessionHandler{ingest: ingest}
}

// Ingest godoc
// @Summary Ingest a session outcome event
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.IngestSessionRequest true "Session outcome"
// @Success 202 {object} response.Envelope
// @Success 200 {object} response.Envelope "Duplicate session, no-op"
// @Failure 400 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Ingest(c *gin.Context) {
	var req dto.IngestSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload"))
		return
	}

	ack, err := h.ingest.Ingest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Replays acknowledge with 200; fresh events with 202 while the worker
	// queue finishes persistence and recalculation.
	status := http.StatusAccepted
	if ack.Duplicate {
		status = http.StatusOK
	}
	response.JSON(c, status, ack, nil)
}
