package models

import "time"

// Risk labels derived from the 30-day reschedule rate.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// TutorScore is the per-tutor aggregate snapshot over the rolling 7/30/90 day
// windows. It is derived exclusively from the event store and published as one
// atomic unit; readers never observe a partially updated window set.
type TutorScore struct {
	TutorID string `db:"tutor_id" json:"tutor_id"`

	RescheduleRate7d  float64 `db:"reschedule_rate_7d" json:"reschedule_rate_7d"`
	RescheduleRate30d float64 `db:"reschedule_rate_30d" json:"reschedule_rate_30d"`
	RescheduleRate90d float64 `db:"reschedule_rate_90d" json:"reschedule_rate_90d"`

	TotalSessions7d  int `db:"total_sessions_7d" json:"total_sessions_7d"`
	TotalSessions30d int `db:"total_sessions_30d" json:"total_sessions_30d"`
	TotalSessions90d int `db:"total_sessions_90d" json:"total_sessions_90d"`

	TutorReschedules7d  int `db:"tutor_reschedules_7d" json:"tutor_reschedules_7d"`
	TutorReschedules30d int `db:"tutor_reschedules_30d" json:"tutor_reschedules_30d"`
	TutorReschedules90d int `db:"tutor_reschedules_90d" json:"tutor_reschedules_90d"`

	RiskLevel        string    `db:"risk_level" json:"risk_level"`
	IsHighRisk       bool      `db:"is_high_risk" json:"is_high_risk"`
	RiskThreshold    float64   `db:"risk_threshold" json:"risk_threshold"`
	LastCalculatedAt time.Time `db:"last_calculated_at" json:"last_calculated_at"`
}
