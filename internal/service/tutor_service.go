package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/dto"
	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
)

// TutorDirectory is the read surface over tutor rows and their persisted
// score snapshots.
type TutorDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	List(ctx context.Context, filter models.TutorFilter) ([]models.TutorRosterEntry, int, error)
}

// SessionHistoryRepository lists a tutor's recent sessions.
type SessionHistoryRepository interface {
	History(ctx context.Context, tutorID string, limit int) ([]models.Session, error)
}

// ScoreReader is the read path of the recalculation coordinator.
type ScoreReader interface {
	GetScore(ctx context.Context, tutorID string) (*models.TutorScore, bool, error)
}

// TutorService serves the tutor roster, detail, score, and history reads.
type TutorService struct {
	tutors   TutorDirectory
	sessions SessionHistoryRepository
	scores   ScoreReader
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewTutorService constructs a tutor service.
func NewTutorService(tutors TutorDirectory, sessions SessionHistoryRepository, scores ScoreReader, metrics *MetricsService, logger *zap.Logger) *TutorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorService{tutors: tutors, sessions: sessions, scores: scores, metrics: metrics, logger: logger}
}

// List returns the roster page matching the filter.
func (s *TutorService) List(ctx context.Context, filter models.TutorFilter) ([]dto.TutorListItem, *models.Pagination, error) {
	if filter.RiskStatus == "" {
		filter.RiskStatus = models.RiskStatusAll
	}
	switch filter.RiskStatus {
	case models.RiskStatusAll, models.RiskStatusHighRisk, models.RiskStatusLowRisk:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("risk_status must be all, high_risk, or low_risk; got %q", filter.RiskStatus))
	}

	start := time.Now()
	entries, total, err := s.tutors.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.ObserveDBQuery("tutor_list", time.Since(start))

	items := make([]dto.TutorListItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.TutorListItem{
			ID:                  entry.Tutor.ID,
			Name:                entry.Tutor.Name,
			RescheduleRate30d:   entry.RescheduleRate30d,
			TotalSessions30d:    entry.TotalSessions30d,
			TutorReschedules30d: entry.TutorReschedules30d,
			RiskLevel:           entry.RiskLevel,
			IsHighRisk:          entry.IsHighRisk,
			LastCalculatedAt:    entry.LastCalculatedAt,
		})
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	pagination := &models.Pagination{Limit: limit, Offset: filter.Offset, TotalCount: total}
	return items, pagination, nil
}

// Detail returns the tutor and a fresh-enough score snapshot. The boolean
// reports whether the score came from cache.
func (s *TutorService) Detail(ctx context.Context, tutorID string) (*dto.TutorDetail, bool, error) {
	tutor, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("tutor %s not found", tutorID))
		}
		return nil, false, fmt.Errorf("find tutor %s: %w", tutorID, err)
	}

	score, cacheHit, err := s.scores.GetScore(ctx, tutorID)
	if err != nil {
		return nil, false, err
	}
	return &dto.TutorDetail{Tutor: *tutor, Score: score}, cacheHit, nil
}

// Score returns only the score snapshot for the tutor.
func (s *TutorService) Score(ctx context.Context, tutorID string) (*models.TutorScore, bool, error) {
	return s.scores.GetScore(ctx, tutorID)
}

// History returns the tutor's recent sessions, newest first.
func (s *TutorService) History(ctx context.Context, tutorID string, limit int) (*dto.TutorHistory, error) {
	if _, err := s.tutors.FindByID(ctx, tutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("tutor %s not found", tutorID))
		}
		return nil, fmt.Errorf("find tutor %s: %w", tutorID, err)
	}

	sessions, err := s.sessions.History(ctx, tutorID, limit)
	if err != nil {
		return nil, err
	}
	return &dto.TutorHistory{TutorID: tutorID, Sessions: sessions}, nil
}
