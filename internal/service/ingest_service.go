package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/dto"
	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
	"github.com/tutorpulse/reliability-api/pkg/jobs"
)

// JobTypeProcessSession identifies the per-session ingestion job.
const JobTypeProcessSession = "process_session"

// SessionStore is the persistence surface ingestion writes through.
type SessionStore interface {
	Insert(ctx context.Context, session *models.Session) (bool, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// TutorEnsurer creates the tutor row on first contact.
type TutorEnsurer interface {
	EnsureExists(ctx context.Context, id, name string) error
}

// JobEnqueuer abstracts the worker queue feeding the ingestion task.
type JobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RecalcSignaler is the slice of the coordinator the ingestion task needs.
type RecalcSignaler interface {
	Invalidate(ctx context.Context, tutorID string)
	TriggerAfter(tutorID string, after time.Time)
}

// IngestService accepts session-outcome payloads, persists them exactly once,
// and signals score recalculation. Validation and duplicate detection happen
// synchronously; persistence and recalculation run on the worker queue.
type IngestService struct {
	sessions SessionStore
	tutors   TutorEnsurer
	recalc   RecalcSignaler
	queue    JobEnqueuer
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewIngestService constructs the ingestion service. The worker queue is
// attached afterwards because the queue's handler is ProcessSession.
func NewIngestService(sessions SessionStore, tutors TutorEnsurer, recalc RecalcSignaler, metrics *MetricsService, logger *zap.Logger) *IngestService {
	v := validator.New()
	v.SetTagName("binding")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		sessions: sessions,
		tutors:   tutors,
		recalc:   recalc,
		metrics:  metrics,
		validate: v,
		logger:   logger,
	}
}

// AttachQueue wires the worker queue that Ingest enqueues onto.
func (s *IngestService) AttachQueue(queue JobEnqueuer) {
	s.queue = queue
}

// Ingest validates the payload and hands it to the worker queue. Replays of an
// already-persisted session identifier acknowledge immediately and do not
// re-trigger recalculation, since the aggregate is unchanged.
func (s *IngestService) Ingest(ctx context.Context, req dto.IngestSessionRequest) (*dto.IngestAck, error) {
	if err := s.validatePayload(req); err != nil {
		s.metrics.RecordIngest("invalid")
		return nil, err
	}

	duplicate, err := s.sessions.Exists(ctx, req.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}
	if duplicate {
		s.metrics.RecordIngest("duplicate")
		return &dto.IngestAck{SessionID: req.SessionID, TutorID: req.TutorID, Duplicate: true, Status: "noop"}, nil
	}

	session := buildSession(req)
	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeProcessSession,
		Payload: session,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue session for processing")
	}

	s.metrics.RecordIngest("accepted")
	return &dto.IngestAck{SessionID: req.SessionID, TutorID: req.TutorID, Duplicate: false, Status: "accepted"}, nil
}

// ProcessSession is the worker-queue handler: ensure the tutor exists, persist
// session and reschedule atomically, then signal recalculation. Errors bubble
// up so the queue retries with backoff; replays stop at the conditional
// insert, so redelivery can never double-count.
func (s *IngestService) ProcessSession(ctx context.Context, job jobs.Job) error {
	session, ok := job.Payload.(*models.Session)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload type %T", job.ID, job.Payload)
	}

	if err := s.tutors.EnsureExists(ctx, session.TutorID, ""); err != nil {
		return err
	}

	inserted, err := s.sessions.Insert(ctx, session)
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.Info("session already persisted, skipping recalculation",
			zap.String("session_id", session.ID), zap.String("tutor_id", session.TutorID))
		return nil
	}

	persistedAt := time.Now().UTC()
	s.recalc.Invalidate(ctx, session.TutorID)
	s.recalc.TriggerAfter(session.TutorID, persistedAt)

	s.logger.Info("session persisted",
		zap.String("session_id", session.ID),
		zap.String("tutor_id", session.TutorID),
		zap.String("status", session.Status))
	return nil
}

func (s *IngestService) validatePayload(req dto.IngestSessionRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if !models.ValidStatus(req.Status) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status must be one of completed, rescheduled, no_show; got %q", req.Status))
	}
	if req.Status == models.StatusRescheduled && req.Reschedule == nil {
		return appErrors.Clone(appErrors.ErrValidation, "reschedule_info is required when status is rescheduled")
	}
	if req.Status != models.StatusRescheduled && req.Reschedule != nil {
		return appErrors.Clone(appErrors.ErrValidation, "reschedule_info is only allowed when status is rescheduled")
	}
	if req.Reschedule != nil && !models.ValidInitiator(req.Reschedule.Initiator) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("reschedule initiator must be tutor or student; got %q", req.Reschedule.Initiator))
	}
	if req.Status != models.StatusCompleted && req.CompletedTime != nil {
		return appErrors.Clone(appErrors.ErrValidation, "completed_time is only allowed when status is completed")
	}
	return nil
}

func buildSession(req dto.IngestSessionRequest) *models.Session {
	session := &models.Session{
		ID:              req.SessionID,
		TutorID:         req.TutorID,
		StudentID:       req.StudentID,
		ScheduledTime:   req.ScheduledTime.UTC(),
		CompletedTime:   req.CompletedTime,
		Status:          req.Status,
		DurationMinutes: req.DurationMinutes,
		CreatedAt:       time.Now().UTC(),
	}
	if req.Reschedule != nil {
		resc := &models.Reschedule{
			ID:           uuid.NewString(),
			SessionID:    req.SessionID,
			Initiator:    req.Reschedule.Initiator,
			OriginalTime: req.Reschedule.OriginalTime.UTC(),
			NewTime:      req.Reschedule.NewTime,
			Reason:       req.Reschedule.Reason,
			ReasonCode:   req.Reschedule.ReasonCode,
			CancelledAt:  req.Reschedule.CancelledAt.UTC(),
		}
		hours := resc.HoursBefore()
		resc.HoursBeforeSession = &hours
		session.Reschedule = resc
	}
	return session
}
