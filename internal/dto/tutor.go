package dto

import (
	"time"

	"github.com/tutorpulse/reliability-api/internal/models"
)

// TutorListItem summarises a tutor and their headline 30-day numbers.
type TutorListItem struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	RescheduleRate30d   *float64   `json:"reschedule_rate_30d"`
	TotalSessions30d    int        `json:"total_sessions_30d"`
	TutorReschedules30d int        `json:"tutor_reschedules_30d"`
	RiskLevel           string     `json:"risk_level"`
	IsHighRisk          bool       `json:"is_high_risk"`
	LastCalculatedAt    *time.Time `json:"last_calculated_at"`
}

// TutorDetail combines the tutor record with its full score snapshot.
type TutorDetail struct {
	Tutor models.Tutor       `json:"tutor"`
	Score *models.TutorScore `json:"score"`
}

// TutorHistory lists a tutor's recent sessions with attached reschedules.
type TutorHistory struct {
	TutorID  string           `json:"tutor_id"`
	Sessions []models.Session `json:"sessions"`
}
