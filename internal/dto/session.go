package dto

import "time"

// IngestSessionRequest is the session-outcome payload delivered by the
// scheduling system. SessionID is the idempotency key.
type IngestSessionRequest struct {
	SessionID       string             `json:"session_id" binding:"required,uuid"`
	TutorID         string             `json:"tutor_id" binding:"required,uuid"`
	StudentID       string             `json:"student_id" binding:"required"`
	ScheduledTime   time.Time          `json:"scheduled_time" binding:"required"`
	CompletedTime   *time.Time         `json:"completed_time,omitempty"`
	Status          string             `json:"status" binding:"required"`
	DurationMinutes *int               `json:"duration_minutes,omitempty"`
	Reschedule      *ReschedulePayload `json:"reschedule_info,omitempty"`
}

// ReschedulePayload carries the reschedule sub-event. Required exactly when
// Status is rescheduled.
type ReschedulePayload struct {
	Initiator    string     `json:"initiator" binding:"required"`
	OriginalTime time.Time  `json:"original_time" binding:"required"`
	NewTime      *time.Time `json:"new_time,omitempty"`
	Reason       *string    `json:"reason,omitempty"`
	ReasonCode   *string    `json:"reason_code,omitempty"`
	CancelledAt  time.Time  `json:"cancelled_at" binding:"required"`
}

// IngestAck acknowledges an accepted (or idempotently replayed) session.
type IngestAck struct {
	SessionID string `json:"session_id"`
	TutorID   string `json:"tutor_id"`
	Duplicate bool   `json:"duplicate"`
	Status    string `json:"status"`
}
