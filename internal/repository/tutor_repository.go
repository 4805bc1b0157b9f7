package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tutorpulse/reliability-api/internal/models"
)

// TutorRepository manages persistence for tutors.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs a TutorRepository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// FindByID fetches a tutor by ID.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	const query = `SELECT id, name, email, active, created_at, updated_at FROM tutors WHERE id = $1`
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// Exists reports whether the tutor is known to the event store.
func (r *TutorRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM tutors WHERE id = $1 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("tutor exists %s: %w", id, err)
	}
	return true, nil
}

// EnsureExists creates the tutor row when it is missing. Ingestion relies on
// this so a session for a never-seen tutor is not dropped.
func (r *TutorRepository) EnsureExists(ctx context.Context, id, name string) error {
	if name == "" {
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		name = "Tutor " + short
	}
	const query = `
		INSERT INTO tutors (id, name, active, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $3)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, id, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensure tutor %s: %w", id, err)
	}
	return nil
}

// tutorListRow joins the tutor with its persisted score snapshot.
type tutorListRow struct {
	models.Tutor
	RescheduleRate30d   *float64   `db:"reschedule_rate_30d"`
	TotalSessions30d    *int       `db:"total_sessions_30d"`
	TutorReschedules30d *int       `db:"tutor_reschedules_30d"`
	RiskLevel           *string    `db:"risk_level"`
	IsHighRisk          *bool      `db:"is_high_risk"`
	LastCalculatedAt    *time.Time `db:"last_calculated_at"`
}

// List returns tutors joined with their latest score snapshot, filtered and
// sorted per the roster contract, along with the total matching count.
func (r *TutorRepository) List(ctx context.Context, filter models.TutorFilter) ([]models.TutorRosterEntry, int, error) {
	base := `FROM tutors t LEFT JOIN tutor_scores ts ON ts.tutor_id = t.id WHERE 1=1`
	var args []interface{}

	switch filter.RiskStatus {
	case models.RiskStatusHighRisk:
		base += " AND ts.is_high_risk = TRUE"
	case models.RiskStatusLowRisk:
		base += " AND (ts.is_high_risk = FALSE OR ts.is_high_risk IS NULL)"
	}

	allowedSorts := map[string]string{
		"reschedule_rate_30d": "ts.reschedule_rate_30d",
		"total_sessions_30d":  "ts.total_sessions_30d",
		"name":                "t.name",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "ts.reschedule_rate_30d"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT t.id, t.name, t.email, t.active, t.created_at, t.updated_at,
		       ts.reschedule_rate_30d, ts.total_sessions_30d, ts.tutor_reschedules_30d,
		       ts.risk_level, ts.is_high_risk, ts.last_calculated_at
		%s ORDER BY %s %s NULLS LAST LIMIT %d OFFSET %d`, base, column, order, limit, offset)

	var rows []tutorListRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tutors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tutors: %w", err)
	}

	result := make([]models.TutorRosterEntry, 0, len(rows))
	for _, row := range rows {
		entry := models.TutorRosterEntry{
			Tutor:             row.Tutor,
			RescheduleRate30d: row.RescheduleRate30d,
			LastCalculatedAt:  row.LastCalculatedAt,
			RiskLevel:         models.RiskLow,
		}
		if row.TotalSessions30d != nil {
			entry.TotalSessions30d = *row.TotalSessions30d
		}
		if row.TutorReschedules30d != nil {
			entry.TutorReschedules30d = *row.TutorReschedules30d
		}
		if row.RiskLevel != nil {
			entry.RiskLevel = *row.RiskLevel
		}
		if row.IsHighRisk != nil {
			entry.IsHighRisk = *row.IsHighRisk
		}
		result = append(result, entry)
	}
	return result, total, nil
}
