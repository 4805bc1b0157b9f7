package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
)

const scoreKeyPrefix = "tutor_score:"

// ScoreCacheRepository abstracts the key-value backend holding cached scores.
type ScoreCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ScoreCacheService is the fast read path for the last published TutorScore.
// It is strictly an accelerator: a backend failure is reported as a miss so
// callers fall through to a direct computation instead of erroring.
type ScoreCacheService struct {
	repo    ScoreCacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewScoreCacheService constructs a score cache service.
func NewScoreCacheService(repo ScoreCacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ScoreCacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreCacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

// Enabled indicates whether a backend is wired at all.
func (s *ScoreCacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Get returns the cached score for the tutor, or (nil, false) on a miss.
// Backend errors fail open: they are logged, counted as misses, and never
// propagated.
func (s *ScoreCacheService) Get(ctx context.Context, tutorID string) (*models.TutorScore, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	var score models.TutorScore
	err := s.repo.Get(ctx, scoreKey(tutorID), &score)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("score cache get failed, serving as miss", zap.String("tutor_id", tutorID), zap.Error(err))
		}
		return nil, false
	}
	s.metrics.RecordCacheOperation(true, duration)
	return &score, true
}

// Put publishes the score under the safety-net TTL. The whole snapshot is one
// value, so readers see either the previous score or this one, never a blend.
func (s *ScoreCacheService) Put(ctx context.Context, score *models.TutorScore) {
	if !s.Enabled() || score == nil {
		return
	}
	if err := s.repo.Set(ctx, scoreKey(score.TutorID), score, s.ttl); err != nil {
		s.logger.Warn("score cache put failed", zap.String("tutor_id", score.TutorID), zap.Error(err))
	}
}

// Invalidate drops the tutor's cached score so the next read recomputes.
func (s *ScoreCacheService) Invalidate(ctx context.Context, tutorID string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, scoreKey(tutorID)); err != nil {
		s.logger.Warn("score cache invalidate failed", zap.String("tutor_id", tutorID), zap.Error(err))
	}
}

func scoreKey(tutorID string) string {
	return scoreKeyPrefix + tutorID
}
