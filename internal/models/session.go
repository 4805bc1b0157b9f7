package models

import "time"

// Session status values. A session carries exactly one terminal status.
const (
	StatusCompleted   = "completed"
	StatusRescheduled = "rescheduled"
	StatusNoShow      = "no_show"
)

// ValidStatus reports whether s is one of the allowed session statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusCompleted, StatusRescheduled, StatusNoShow:
		return true
	}
	return false
}

// Session represents one tutoring engagement. The ID doubles as the
// idempotency key: re-ingesting the same ID is a no-op, never a duplicate row.
type Session struct {
	ID              string     `db:"id" json:"id"`
	TutorID         string     `db:"tutor_id" json:"tutor_id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	ScheduledTime   time.Time  `db:"scheduled_time" json:"scheduled_time"`
	CompletedTime   *time.Time `db:"completed_time" json:"completed_time,omitempty"`
	Status          string     `db:"status" json:"status"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`

	// Reschedule is populated when Status is rescheduled.
	Reschedule *Reschedule `db:"-" json:"reschedule,omitempty"`
}
