package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorpulse/reliability-api/internal/service"
	"github.com/tutorpulse/reliability-api/pkg/response"
)

type rosterExporter interface {
	RiskRoster(ctx context.Context, format string) (payload []byte, filename string, contentType string, err error)
}

// ExportHandler exposes operator report downloads.
type ExportHandler struct {
	exports rosterExporter
}

// NewExportHandler builds a new handler.
func NewExportHandler(exports rosterExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// RiskRoster godoc
// @Summary Export high-risk tutors as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/risk-roster [get]
func (h *ExportHandler) RiskRoster(c *gin.Context) {
	payload, filename, contentType, err := h.exports.RiskRoster(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
