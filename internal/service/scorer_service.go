package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
)

// Rolling window lengths.
const (
	Window7d  = 7 * 24 * time.Hour
	Window30d = 30 * 24 * time.Hour
	Window90d = 90 * 24 * time.Hour
)

// SessionWindowRepository describes the event store scans the scorer needs.
type SessionWindowRepository interface {
	WindowCounts(ctx context.Context, tutorID string, from, to time.Time, countNoShows bool) (total int, tutorReschedules int, err error)
}

// TutorLookupRepository verifies tutor existence.
type TutorLookupRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ScorerService is the window aggregator: a pure read of the event store that
// derives the per-window counts and rates for one tutor at one instant. It
// holds no cache and takes no locks, so it is independently testable against
// fixtures.
type ScorerService struct {
	sessions     SessionWindowRepository
	tutors       TutorLookupRepository
	classifier   *RiskClassifier
	metrics      *MetricsService
	countNoShows bool
	logger       *zap.Logger
}

// NewScorerService constructs a scorer.
func NewScorerService(sessions SessionWindowRepository, tutors TutorLookupRepository, classifier *RiskClassifier, metrics *MetricsService, countNoShows bool, logger *zap.Logger) *ScorerService {
	if classifier == nil {
		classifier = NewRiskClassifier(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScorerService{
		sessions:     sessions,
		tutors:       tutors,
		classifier:   classifier,
		metrics:      metrics,
		countNoShows: countNoShows,
		logger:       logger,
	}
}

// Compute scans the event store and returns the tutor's aggregate as of the
// given instant. A single asOf anchors all three windows so they can never mix
// state from two instants. Returns NotFound for unknown tutors.
func (s *ScorerService) Compute(ctx context.Context, tutorID string, asOf time.Time) (*models.TutorScore, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	exists, err := s.tutors.Exists(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("verify tutor %s: %w", tutorID, err)
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("tutor %s not found", tutorID))
	}

	start := time.Now()
	total7, resc7, err := s.windowCounts(ctx, tutorID, asOf, Window7d)
	if err != nil {
		return nil, err
	}
	total30, resc30, err := s.windowCounts(ctx, tutorID, asOf, Window30d)
	if err != nil {
		return nil, err
	}
	total90, resc90, err := s.windowCounts(ctx, tutorID, asOf, Window90d)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDBQuery("window_counts", time.Since(start))

	rate30 := rescheduleRate(resc30, total30)
	score := &models.TutorScore{
		TutorID:             tutorID,
		RescheduleRate7d:    rescheduleRate(resc7, total7),
		RescheduleRate30d:   rate30,
		RescheduleRate90d:   rescheduleRate(resc90, total90),
		TotalSessions7d:     total7,
		TotalSessions30d:    total30,
		TotalSessions90d:    total90,
		TutorReschedules7d:  resc7,
		TutorReschedules30d: resc30,
		TutorReschedules90d: resc90,
		RiskThreshold:       s.classifier.HighThreshold(),
		LastCalculatedAt:    asOf,
	}
	score.RiskLevel = s.classifier.Classify(rate30)
	score.IsHighRisk = score.RiskLevel == models.RiskHigh
	return score, nil
}

func (s *ScorerService) windowCounts(ctx context.Context, tutorID string, asOf time.Time, window time.Duration) (int, int, error) {
	from := asOf.Add(-window)
	total, reschedules, err := s.sessions.WindowCounts(ctx, tutorID, from, asOf, s.countNoShows)
	if err != nil {
		return 0, 0, fmt.Errorf("window counts for tutor %s over %s: %w", tutorID, window, err)
	}
	return total, reschedules, nil
}

// rescheduleRate returns the percentage of tutor-initiated reschedules among
// total sessions, rounded to two decimals. An empty window yields 0, not an
// error.
func rescheduleRate(tutorReschedules, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(tutorReschedules) / float64(total) * 100.0
	return math.Round(rate*100) / 100
}
