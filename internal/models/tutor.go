package models

import "time"

// Tutor represents a tutor record. Tutors are created implicitly the first
// time a session is ingested for them.
type Tutor struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TutorFilter captures filtering options for listing tutors.
type TutorFilter struct {
	RiskStatus string
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// Risk status filter values accepted by the tutor listing.
const (
	RiskStatusAll      = "all"
	RiskStatusHighRisk = "high_risk"
	RiskStatusLowRisk  = "low_risk"
)

// TutorRosterEntry pairs a tutor with the headline columns of its persisted
// score snapshot. Pointer fields are nil for tutors that were never scored.
type TutorRosterEntry struct {
	Tutor               Tutor
	RescheduleRate30d   *float64
	TotalSessions30d    int
	TutorReschedules30d int
	RiskLevel           string
	IsHighRisk          bool
	LastCalculatedAt    *time.Time
}
