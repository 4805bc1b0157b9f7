package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
)

type mockTutorDirectory struct {
	tutors     map[string]*models.Tutor
	listResult []models.TutorRosterEntry
	listTotal  int
	listErr    error
	lastFilter models.TutorFilter
}

func (m *mockTutorDirectory) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	if tutor, ok := m.tutors[id]; ok {
		cp := *tutor
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTutorDirectory) List(ctx context.Context, filter models.TutorFilter) ([]models.TutorRosterEntry, int, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

type mockHistoryRepo struct {
	sessions []models.Session
	err      error
}

func (m *mockHistoryRepo) History(ctx context.Context, tutorID string, limit int) ([]models.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions, nil
}

type mockScoreReader struct {
	score *models.TutorScore
	hit   bool
	err   error
}

func (m *mockScoreReader) GetScore(ctx context.Context, tutorID string) (*models.TutorScore, bool, error) {
	return m.score, m.hit, m.err
}

func newTestTutorService(dir *mockTutorDirectory, history *mockHistoryRepo, scores *mockScoreReader) *TutorService {
	return NewTutorService(dir, history, scores, NewMetricsService(), zap.NewNop())
}

func TestTutorServiceList(t *testing.T) {
	rate := 18.5
	now := time.Now().UTC()
	dir := &mockTutorDirectory{
		listResult: []models.TutorRosterEntry{{
			Tutor:               models.Tutor{ID: "t1", Name: "Tutor One"},
			RescheduleRate30d:   &rate,
			TotalSessions30d:    12,
			TutorReschedules30d: 3,
			RiskLevel:           models.RiskHigh,
			IsHighRisk:          true,
			LastCalculatedAt:    &now,
		}},
		listTotal: 41,
	}
	svc := newTestTutorService(dir, &mockHistoryRepo{}, &mockScoreReader{})

	items, pagination, err := svc.List(context.Background(), models.TutorFilter{RiskStatus: models.RiskStatusHighRisk, Limit: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].ID)
	assert.True(t, items[0].IsHighRisk)
	require.NotNil(t, items[0].RescheduleRate30d)
	assert.Equal(t, 18.5, *items[0].RescheduleRate30d)

	require.NotNil(t, pagination)
	assert.Equal(t, 20, pagination.Limit)
	assert.Equal(t, 41, pagination.TotalCount)
}

func TestTutorServiceListRejectsUnknownRiskStatus(t *testing.T) {
	svc := newTestTutorService(&mockTutorDirectory{}, &mockHistoryRepo{}, &mockScoreReader{})

	_, _, err := svc.List(context.Background(), models.TutorFilter{RiskStatus: "critical"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestTutorServiceListEmptyRiskStatusMeansAll(t *testing.T) {
	dir := &mockTutorDirectory{}
	svc := newTestTutorService(dir, &mockHistoryRepo{}, &mockScoreReader{})

	_, _, err := svc.List(context.Background(), models.TutorFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.RiskStatusAll, dir.lastFilter.RiskStatus)
}

func TestTutorServiceDetail(t *testing.T) {
	dir := &mockTutorDirectory{tutors: map[string]*models.Tutor{
		"t1": {ID: "t1", Name: "Tutor One", Active: true},
	}}
	scores := &mockScoreReader{
		score: &models.TutorScore{TutorID: "t1", RescheduleRate30d: 12.5, RiskLevel: models.RiskMedium},
		hit:   true,
	}
	svc := newTestTutorService(dir, &mockHistoryRepo{}, scores)

	detail, cacheHit, err := svc.Detail(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, "Tutor One", detail.Tutor.Name)
	require.NotNil(t, detail.Score)
	assert.Equal(t, 12.5, detail.Score.RescheduleRate30d)
}

func TestTutorServiceDetailNotFound(t *testing.T) {
	svc := newTestTutorService(&mockTutorDirectory{}, &mockHistoryRepo{}, &mockScoreReader{})

	_, _, err := svc.Detail(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestTutorServiceHistory(t *testing.T) {
	dir := &mockTutorDirectory{tutors: map[string]*models.Tutor{"t1": {ID: "t1"}}}
	history := &mockHistoryRepo{sessions: []models.Session{{ID: "s2"}, {ID: "s1"}}}
	svc := newTestTutorService(dir, history, &mockScoreReader{})

	result, err := svc.History(context.Background(), "t1", 50)
	require.NoError(t, err)
	assert.Equal(t, "t1", result.TutorID)
	assert.Len(t, result.Sessions, 2)
}

func TestTutorServiceHistoryUnknownTutor(t *testing.T) {
	svc := newTestTutorService(&mockTutorDirectory{}, &mockHistoryRepo{}, &mockScoreReader{})

	_, err := svc.History(context.Background(), "ghost", 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
