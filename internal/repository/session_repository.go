package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tutorpulse/reliability-api/internal/models"
)

// SessionRepository manages persistence for sessions and their reschedules.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert persists the session and its optional reschedule in one transaction.
// The session ID is the idempotency key: when a row with the same ID already
// exists nothing is written and inserted is false. The conditional insert runs
// before any other side effect, so an at-least-once queue can redeliver the
// same payload safely.
func (r *SessionRepository) Insert(ctx context.Context, session *models.Session) (inserted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin session insert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSession = `
		INSERT INTO sessions (id, tutor_id, student_id, scheduled_time, completed_time, status, duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx, insertSession,
		session.ID,
		session.TutorID,
		session.StudentID,
		session.ScheduledTime,
		session.CompletedTime,
		session.Status,
		session.DurationMinutes,
		session.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert session %s: %w", session.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("session insert result %s: %w", session.ID, err)
	}
	if rows == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	if session.Reschedule != nil {
		const insertReschedule = `
			INSERT INTO reschedules (id, session_id, initiator, original_time, new_time, reason, reason_code, cancelled_at, hours_before_session, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

		resc := session.Reschedule
		if resc.CreatedAt.IsZero() {
			resc.CreatedAt = session.CreatedAt
		}
		if _, err = tx.ExecContext(ctx, insertReschedule,
			resc.ID,
			session.ID,
			resc.Initiator,
			resc.OriginalTime,
			resc.NewTime,
			resc.Reason,
			resc.ReasonCode,
			resc.CancelledAt,
			resc.HoursBeforeSession,
			resc.CreatedAt,
		); err != nil {
			return false, fmt.Errorf("insert reschedule for session %s: %w", session.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit session insert %s: %w", session.ID, err)
	}
	return true, nil
}

// Exists reports whether a session with the given ID has been persisted.
func (r *SessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM sessions WHERE id = $1 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("session exists %s: %w", sessionID, err)
	}
	return true, nil
}

// WindowCounts returns the total session count and the tutor-initiated
// reschedule count for sessions scheduled within [from, to]. Both ends are
// inclusive. When countNoShows is false no_show sessions are excluded from
// the total.
func (r *SessionRepository) WindowCounts(ctx context.Context, tutorID string, from, to time.Time, countNoShows bool) (total int, tutorReschedules int, err error) {
	totalQuery := `SELECT COUNT(*) FROM sessions WHERE tutor_id = $1 AND scheduled_time >= $2 AND scheduled_time <= $3`
	if !countNoShows {
		totalQuery += ` AND status <> 'no_show'`
	}
	if err := r.db.GetContext(ctx, &total, totalQuery, tutorID, from, to); err != nil {
		return 0, 0, fmt.Errorf("count sessions for tutor %s: %w", tutorID, err)
	}

	const rescheduleQuery = `
		SELECT COUNT(*)
		FROM reschedules r
		JOIN sessions s ON r.session_id = s.id
		WHERE s.tutor_id = $1 AND s.scheduled_time >= $2 AND s.scheduled_time <= $3 AND r.initiator = 'tutor'`
	if err := r.db.GetContext(ctx, &tutorReschedules, rescheduleQuery, tutorID, from, to); err != nil {
		return 0, 0, fmt.Errorf("count tutor reschedules for tutor %s: %w", tutorID, err)
	}

	return total, tutorReschedules, nil
}

// sessionHistoryRow flattens the session/reschedule left join.
type sessionHistoryRow struct {
	models.Session
	RescID         *string    `db:"resc_id"`
	RescInitiator  *string    `db:"resc_initiator"`
	RescOriginal   *time.Time `db:"resc_original_time"`
	RescNewTime    *time.Time `db:"resc_new_time"`
	RescReason     *string    `db:"resc_reason"`
	RescReasonCode *string    `db:"resc_reason_code"`
	RescCancelled  *time.Time `db:"resc_cancelled_at"`
	RescHours      *float64   `db:"resc_hours_before_session"`
	RescCreatedAt  *time.Time `db:"resc_created_at"`
}

// History returns the tutor's most recent sessions with attached reschedules,
// newest scheduled first.
func (r *SessionRepository) History(ctx context.Context, tutorID string, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const query = `
		SELECT s.id, s.tutor_id, s.student_id, s.scheduled_time, s.completed_time, s.status, s.duration_minutes, s.created_at,
		       r.id AS resc_id, r.initiator AS resc_initiator, r.original_time AS resc_original_time,
		       r.new_time AS resc_new_time, r.reason AS resc_reason, r.reason_code AS resc_reason_code,
		       r.cancelled_at AS resc_cancelled_at, r.hours_before_session AS resc_hours_before_session,
		       r.created_at AS resc_created_at
		FROM sessions s
		LEFT JOIN reschedules r ON r.session_id = s.id
		WHERE s.tutor_id = $1
		ORDER BY s.scheduled_time DESC
		LIMIT $2`

	var rows []sessionHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, tutorID, limit); err != nil {
		return nil, fmt.Errorf("session history for tutor %s: %w", tutorID, err)
	}

	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		session := row.Session
		if row.RescID != nil {
			session.Reschedule = &models.Reschedule{
				ID:                 *row.RescID,
				SessionID:          session.ID,
				Initiator:          derefString(row.RescInitiator),
				OriginalTime:       derefTime(row.RescOriginal),
				NewTime:            row.RescNewTime,
				Reason:             row.RescReason,
				ReasonCode:         row.RescReasonCode,
				CancelledAt:        derefTime(row.RescCancelled),
				HoursBeforeSession: row.RescHours,
				CreatedAt:          derefTime(row.RescCreatedAt),
			}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
