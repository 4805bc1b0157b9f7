package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorpulse/reliability-api/internal/models"
)

func TestScoreRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now().UTC()
	score := &models.TutorScore{
		TutorID:             "t1",
		RescheduleRate7d:    33.33,
		RescheduleRate30d:   20.0,
		RescheduleRate90d:   7.5,
		TotalSessions7d:     3,
		TotalSessions30d:    10,
		TotalSessions90d:    40,
		TutorReschedules7d:  1,
		TutorReschedules30d: 2,
		TutorReschedules90d: 3,
		RiskLevel:           models.RiskHigh,
		IsHighRisk:          true,
		RiskThreshold:       15.0,
		LastCalculatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO tutor_scores").
		WithArgs("t1",
			33.33, 20.0, 7.5,
			3, 10, 40,
			1, 2, 3,
			models.RiskHigh, true, 15.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), score))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFindByTutor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"tutor_id",
		"reschedule_rate_7d", "reschedule_rate_30d", "reschedule_rate_90d",
		"total_sessions_7d", "total_sessions_30d", "total_sessions_90d",
		"tutor_reschedules_7d", "tutor_reschedules_30d", "tutor_reschedules_90d",
		"risk_level", "is_high_risk", "risk_threshold", "last_calculated_at",
	}).AddRow("t1", 0.0, 12.5, 9.1, 2, 8, 31, 0, 1, 3, models.RiskMedium, false, 15.0, now)

	mock.ExpectQuery("FROM tutor_scores WHERE tutor_id").
		WithArgs("t1").
		WillReturnRows(rows)

	score, err := repo.FindByTutor(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.Equal(t, 12.5, score.RescheduleRate30d)
	assert.Equal(t, models.RiskMedium, score.RiskLevel)
	assert.False(t, score.IsHighRisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFindByTutorNeverScored(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery("FROM tutor_scores WHERE tutor_id").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"tutor_id"}))

	score, err := repo.FindByTutor(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
