package models

import "time"

// Reschedule initiator values.
const (
	InitiatorTutor   = "tutor"
	InitiatorStudent = "student"
)

// ValidInitiator reports whether s is one of the allowed initiators.
func ValidInitiator(s string) bool {
	return s == InitiatorTutor || s == InitiatorStudent
}

// Reschedule records the reschedule event attached to a session with status
// rescheduled. At most one per session; immutable after creation.
type Reschedule struct {
	ID                 string     `db:"id" json:"id"`
	SessionID          string     `db:"session_id" json:"session_id"`
	Initiator          string     `db:"initiator" json:"initiator"`
	OriginalTime       time.Time  `db:"original_time" json:"original_time"`
	NewTime            *time.Time `db:"new_time" json:"new_time,omitempty"`
	Reason             *string    `db:"reason" json:"reason,omitempty"`
	ReasonCode         *string    `db:"reason_code" json:"reason_code,omitempty"`
	CancelledAt        time.Time  `db:"cancelled_at" json:"cancelled_at"`
	HoursBeforeSession *float64   `db:"hours_before_session" json:"hours_before_session,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// HoursBefore returns the gap between the cancellation and the original slot.
func (r *Reschedule) HoursBefore() float64 {
	return r.OriginalTime.Sub(r.CancelledAt).Hours()
}
