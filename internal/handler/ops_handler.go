package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
	"github.com/tutorpulse/reliability-api/pkg/jobs"
	"github.com/tutorpulse/reliability-api/pkg/response"
)

// FailedJobLister surfaces jobs that exhausted their retry budget.
type FailedJobLister interface {
	Failed() []jobs.FailedJob
}

// OpsHandler exposes operator-facing diagnostics.
type OpsHandler struct {
	queue FailedJobLister
}

// NewOpsHandler constructs the ops handler.
func NewOpsHandler(queue FailedJobLister) *OpsHandler {
	return &OpsHandler{queue: queue}
}

// FailedJobs lists ingestion jobs that were never applied. A session stuck
// here means a tutor's denominator is understated until the payload is
// replayed.
func (h *OpsHandler) FailedJobs(c *gin.Context) {
	if h.queue == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	failed := h.queue.Failed()
	response.JSON(c, http.StatusOK, failed, nil, map[string]interface{}{"count": len(failed)})
}
