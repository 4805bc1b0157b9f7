package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorpulse/reliability-api/internal/dto"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
	"github.com/tutorpulse/reliability-api/pkg/response"
)

type sessionIngestorMock struct {
	ack     *dto.IngestAck
	err     error
	lastReq dto.IngestSessionRequest
	called  bool
}

func (m *sessionIngestorMock) Ingest(ctx context.Context, req dto.IngestSessionRequest) (*dto.IngestAck, error) {
	m.called = true
	m.lastReq = req
	return m.ack, m.err
}

func performIngest(t *testing.T, mock *sessionIngestorMock, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	NewSessionHandler(mock).Ingest(c)
	return w
}

func TestSessionHandlerIngestAccepted(t *testing.T) {
	mock := &sessionIngestorMock{
		ack: &dto.IngestAck{SessionID: "s1", TutorID: "t1", Status: "accepted"},
	}

	body := `{
		"session_id": "0a8d9e3a-6f5b-4c3d-9e2f-1a2b3c4d5e6f",
		"tutor_id": "1b9e0f4b-7a6c-4d4e-8f30-2b3c4d5e6f70",
		"student_id": "st-1",
		"scheduled_time": "2026-08-30T14:00:00Z",
		"status": "completed"
	}`
	w := performIngest(t, mock, body)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, mock.called)
	assert.Equal(t, "completed", mock.lastReq.Status)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestSessionHandlerIngestDuplicateReturns200(t *testing.T) {
	mock := &sessionIngestorMock{
		ack: &dto.IngestAck{SessionID: "s1", TutorID: "t1", Duplicate: true, Status: "noop"},
	}

	body := `{
		"session_id": "0a8d9e3a-6f5b-4c3d-9e2f-1a2b3c4d5e6f",
		"tutor_id": "1b9e0f4b-7a6c-4d4e-8f30-2b3c4d5e6f70",
		"student_id": "st-1",
		"scheduled_time": "2026-08-30T14:00:00Z",
		"status": "completed"
	}`
	w := performIngest(t, mock, body)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionHandlerIngestMalformedBody(t *testing.T) {
	mock := &sessionIngestorMock{}

	w := performIngest(t, mock, `{"session_id": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.called)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestSessionHandlerIngestServiceError(t *testing.T) {
	mock := &sessionIngestorMock{
		err: appErrors.Clone(appErrors.ErrValidation, "reschedule_info is required when status is rescheduled"),
	}

	body := `{
		"session_id": "0a8d9e3a-6f5b-4c3d-9e2f-1a2b3c4d5e6f",
		"tutor_id": "1b9e0f4b-7a6c-4d4e-8f30-2b3c4d5e6f70",
		"student_id": "st-1",
		"scheduled_time": "2026-08-30T14:00:00Z",
		"status": "rescheduled"
	}`
	w := performIngest(t, mock, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
