package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
)

type windowCall struct {
	from, to     time.Time
	countNoShows bool
}

type mockWindowRepo struct {
	// counts maps window length to (total, tutorReschedules).
	counts map[time.Duration][2]int
	calls  []windowCall
	err    error
}

func (m *mockWindowRepo) WindowCounts(ctx context.Context, tutorID string, from, to time.Time, countNoShows bool) (int, int, error) {
	m.calls = append(m.calls, windowCall{from: from, to: to, countNoShows: countNoShows})
	if m.err != nil {
		return 0, 0, m.err
	}
	c := m.counts[to.Sub(from)]
	return c[0], c[1], nil
}

type mockTutorLookup struct {
	known map[string]bool
	err   error
}

func (m *mockTutorLookup) Exists(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.known[id], nil
}

func newTestScorer(sessions *mockWindowRepo, tutors *mockTutorLookup, countNoShows bool) *ScorerService {
	return NewScorerService(sessions, tutors, NewRiskClassifier(15.0, 10.0), NewMetricsService(), countNoShows, zap.NewNop())
}

func TestScorerComputeRatesAndRisk(t *testing.T) {
	sessions := &mockWindowRepo{counts: map[time.Duration][2]int{
		Window7d:  {3, 1},
		Window30d: {10, 2},
		Window90d: {40, 3},
	}}
	tutors := &mockTutorLookup{known: map[string]bool{"t1": true}}
	scorer := newTestScorer(sessions, tutors, true)

	asOf := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	score, err := scorer.Compute(context.Background(), "t1", asOf)
	require.NoError(t, err)

	assert.Equal(t, "t1", score.TutorID)
	assert.Equal(t, 33.33, score.RescheduleRate7d)
	assert.Equal(t, 20.0, score.RescheduleRate30d)
	assert.Equal(t, 7.5, score.RescheduleRate90d)
	assert.Equal(t, 10, score.TotalSessions30d)
	assert.Equal(t, 2, score.TutorReschedules30d)
	assert.Equal(t, models.RiskHigh, score.RiskLevel)
	assert.True(t, score.IsHighRisk)
	assert.Equal(t, 15.0, score.RiskThreshold)
	assert.Equal(t, asOf, score.LastCalculatedAt)
}

func TestScorerComputeAnchorsAllWindowsToOneInstant(t *testing.T) {
	sessions := &mockWindowRepo{counts: map[time.Duration][2]int{}}
	tutors := &mockTutorLookup{known: map[string]bool{"t1": true}}
	scorer := newTestScorer(sessions, tutors, true)

	asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := scorer.Compute(context.Background(), "t1", asOf)
	require.NoError(t, err)

	require.Len(t, sessions.calls, 3)
	for _, call := range sessions.calls {
		assert.Equal(t, asOf, call.to)
	}
	assert.Equal(t, asOf.Add(-Window7d), sessions.calls[0].from)
	assert.Equal(t, asOf.Add(-Window30d), sessions.calls[1].from)
	assert.Equal(t, asOf.Add(-Window90d), sessions.calls[2].from)
}

func TestScorerComputeEmptyWindowsScoreZero(t *testing.T) {
	sessions := &mockWindowRepo{counts: map[time.Duration][2]int{}}
	tutors := &mockTutorLookup{known: map[string]bool{"t1": true}}
	scorer := newTestScorer(sessions, tutors, true)

	score, err := scorer.Compute(context.Background(), "t1", time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, score.RescheduleRate7d)
	assert.Zero(t, score.RescheduleRate30d)
	assert.Zero(t, score.RescheduleRate90d)
	assert.Equal(t, models.RiskLow, score.RiskLevel)
	assert.False(t, score.IsHighRisk)
}

func TestScorerComputeUnknownTutor(t *testing.T) {
	scorer := newTestScorer(&mockWindowRepo{}, &mockTutorLookup{}, true)

	_, err := scorer.Compute(context.Background(), "ghost", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestScorerComputePropagatesNoShowSetting(t *testing.T) {
	sessions := &mockWindowRepo{counts: map[time.Duration][2]int{}}
	tutors := &mockTutorLookup{known: map[string]bool{"t1": true}}
	scorer := newTestScorer(sessions, tutors, false)

	_, err := scorer.Compute(context.Background(), "t1", time.Now().UTC())
	require.NoError(t, err)
	for _, call := range sessions.calls {
		assert.False(t, call.countNoShows)
	}
}

func TestScorerComputeZeroAsOfDefaultsToNow(t *testing.T) {
	sessions := &mockWindowRepo{counts: map[time.Duration][2]int{}}
	tutors := &mockTutorLookup{known: map[string]bool{"t1": true}}
	scorer := newTestScorer(sessions, tutors, true)

	before := time.Now().UTC()
	score, err := scorer.Compute(context.Background(), "t1", time.Time{})
	require.NoError(t, err)
	assert.False(t, score.LastCalculatedAt.Before(before))
	assert.False(t, score.LastCalculatedAt.After(time.Now().UTC()))
}

func TestScorerComputeStoreError(t *testing.T) {
	sessions := &mockWindowRepo{err: errors.New("connection refused")}
	tutors := &mockTutorLookup{known: map[string]bool{"t1": true}}
	scorer := newTestScorer(sessions, tutors, true)

	_, err := scorer.Compute(context.Background(), "t1", time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRescheduleRateRounding(t *testing.T) {
	assert.Equal(t, 0.0, rescheduleRate(0, 0))
	assert.Equal(t, 0.0, rescheduleRate(0, 7))
	assert.Equal(t, 100.0, rescheduleRate(4, 4))
	assert.Equal(t, 16.67, rescheduleRate(1, 6))
	assert.Equal(t, 14.29, rescheduleRate(1, 7))
	assert.Equal(t, 66.67, rescheduleRate(2, 3))
}
