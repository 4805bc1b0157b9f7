package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tutorpulse/reliability-api/internal/models"
)

// ScoreRepository persists the derived TutorScore snapshot. The snapshot is
// written only by the recalculation coordinator; the sessions table remains
// the source of truth.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert replaces the tutor's score snapshot in a single statement so readers
// of the row never observe a half-updated window set.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.TutorScore) error {
	const query = `
		INSERT INTO tutor_scores (
			tutor_id,
			reschedule_rate_7d, reschedule_rate_30d, reschedule_rate_90d,
			total_sessions_7d, total_sessions_30d, total_sessions_90d,
			tutor_reschedules_7d, tutor_reschedules_30d, tutor_reschedules_90d,
			risk_level, is_high_risk, risk_threshold, last_calculated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (tutor_id) DO UPDATE SET
			reschedule_rate_7d = EXCLUDED.reschedule_rate_7d,
			reschedule_rate_30d = EXCLUDED.reschedule_rate_30d,
			reschedule_rate_90d = EXCLUDED.reschedule_rate_90d,
			total_sessions_7d = EXCLUDED.total_sessions_7d,
			total_sessions_30d = EXCLUDED.total_sessions_30d,
			total_sessions_90d = EXCLUDED.total_sessions_90d,
			tutor_reschedules_7d = EXCLUDED.tutor_reschedules_7d,
			tutor_reschedules_30d = EXCLUDED.tutor_reschedules_30d,
			tutor_reschedules_90d = EXCLUDED.tutor_reschedules_90d,
			risk_level = EXCLUDED.risk_level,
			is_high_risk = EXCLUDED.is_high_risk,
			risk_threshold = EXCLUDED.risk_threshold,
			last_calculated_at = EXCLUDED.last_calculated_at`

	if _, err := r.db.ExecContext(ctx, query,
		score.TutorID,
		score.RescheduleRate7d, score.RescheduleRate30d, score.RescheduleRate90d,
		score.TotalSessions7d, score.TotalSessions30d, score.TotalSessions90d,
		score.TutorReschedules7d, score.TutorReschedules30d, score.TutorReschedules90d,
		score.RiskLevel, score.IsHighRisk, score.RiskThreshold, score.LastCalculatedAt,
	); err != nil {
		return fmt.Errorf("upsert tutor score %s: %w", score.TutorID, err)
	}
	return nil
}

// FindByTutor returns the persisted snapshot, or nil when the tutor has never
// been scored.
func (r *ScoreRepository) FindByTutor(ctx context.Context, tutorID string) (*models.TutorScore, error) {
	const query = `
		SELECT tutor_id,
		       reschedule_rate_7d, reschedule_rate_30d, reschedule_rate_90d,
		       total_sessions_7d, total_sessions_30d, total_sessions_90d,
		       tutor_reschedules_7d, tutor_reschedules_30d, tutor_reschedules_90d,
		       risk_level, is_high_risk, risk_threshold, last_calculated_at
		FROM tutor_scores WHERE tutor_id = $1`
	var score models.TutorScore
	if err := r.db.GetContext(ctx, &score, query, tutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find tutor score %s: %w", tutorID, err)
	}
	return &score, nil
}
