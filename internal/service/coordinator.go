package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutorpulse/reliability-api/internal/models"
	appErrors "github.com/tutorpulse/reliability-api/pkg/errors"
)

// ScoreComputer derives a fresh aggregate from the event store.
type ScoreComputer interface {
	Compute(ctx context.Context, tutorID string, asOf time.Time) (*models.TutorScore, error)
}

// ScoreStore persists the published snapshot and serves it back when the
// cache and a fresh recomputation are both unavailable.
type ScoreStore interface {
	Upsert(ctx context.Context, score *models.TutorScore) error
	FindByTutor(ctx context.Context, tutorID string) (*models.TutorScore, error)
}

// recalcCall is one recalculation generation. Followers block on done; the
// result fields are written exactly once, before done is closed.
type recalcCall struct {
	done  chan struct{}
	asOf  time.Time
	score *models.TutorScore
	err   error
}

// Coordinator serializes recalculation per tutor: at most one computation is
// in flight per tutor ID, concurrent requests coalesce onto it, and every
// waiter receives the same generation's result. Different tutors recompute in
// parallel; there is no global lock beyond the map guard.
type Coordinator struct {
	scorer  ScoreComputer
	store   ScoreStore
	cache   *ScoreCacheService
	metrics *MetricsService
	timeout time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	inFlight    map[string]*recalcCall
	invalidated map[string]time.Time
}

// NewCoordinator constructs a recalculation coordinator.
func NewCoordinator(scorer ScoreComputer, store ScoreStore, cache *ScoreCacheService, metrics *MetricsService, timeout time.Duration, logger *zap.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		scorer:      scorer,
		store:       store,
		cache:       cache,
		metrics:     metrics,
		timeout:     timeout,
		logger:      logger,
		inFlight:    make(map[string]*recalcCall),
		invalidated: make(map[string]time.Time),
	}
}

// GetScore is the read path: cached value when present, otherwise a coalesced
// recomputation.
func (c *Coordinator) GetScore(ctx context.Context, tutorID string) (*models.TutorScore, bool, error) {
	if score, hit := c.cache.Get(ctx, tutorID); hit {
		return score, true, nil
	}
	score, err := c.EnsureFresh(ctx, tutorID)
	return score, false, err
}

// EnsureFresh returns a TutorScore produced by the current recalculation
// generation, starting one if none is in flight. All concurrent callers for
// the same tutor receive the same result.
func (c *Coordinator) EnsureFresh(ctx context.Context, tutorID string) (*models.TutorScore, error) {
	call := c.join(tutorID)

	select {
	case <-call.done:
		if call.err != nil {
			return c.fallback(ctx, tutorID, call.err)
		}
		return call.score, nil
	case <-ctx.Done():
		// Waiter timed out; the in-flight computation keeps running and will
		// publish for later readers.
		return c.fallback(ctx, tutorID, appErrors.Wrap(ctx.Err(), appErrors.ErrRecalcTimeout.Code, appErrors.ErrRecalcTimeout.Status, appErrors.ErrRecalcTimeout.Message))
	}
}

// EnsureFreshAfter blocks until a generation whose asOf is not earlier than
// the given instant has published. Ingestion uses this so a recalculation
// triggered after a durable write can never observe only part of that write:
// a generation that started before the write is waited out and a new one is
// started.
func (c *Coordinator) EnsureFreshAfter(ctx context.Context, tutorID string, after time.Time) (*models.TutorScore, error) {
	for {
		call := c.join(tutorID)
		select {
		case <-call.done:
			if call.asOf.Before(after) {
				// A generation that started before the write just finished;
				// its marker is cleared, so the next join starts a fresh one.
				continue
			}
			if call.err != nil {
				return nil, call.err
			}
			return call.score, nil
		case <-ctx.Done():
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrRecalcTimeout.Code, appErrors.ErrRecalcTimeout.Status, appErrors.ErrRecalcTimeout.Message)
		}
	}
}

// TriggerAfter signals recalculation without blocking the caller. The
// ingestion task uses this after a durable write: it must not wait for the
// recomputation, only guarantee one covering the write will run.
func (c *Coordinator) TriggerAfter(tutorID string, after time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*c.timeout)
		defer cancel()
		if _, err := c.EnsureFreshAfter(ctx, tutorID, after); err != nil {
			c.logger.Warn("triggered recalculation failed", zap.String("tutor_id", tutorID), zap.Error(err))
		}
	}()
}

// Invalidate drops the cached entry so subsequent reads recompute. Called by
// ingestion after a durable write and before its recalculation trigger. The
// supersede marker is recorded before the cache delete: a generation anchored
// earlier than the marker must not publish, or it would resurrect pre-write
// data right after the invalidation.
func (c *Coordinator) Invalidate(ctx context.Context, tutorID string) {
	c.mu.Lock()
	c.invalidated[tutorID] = time.Now().UTC()
	c.mu.Unlock()
	c.cache.Invalidate(ctx, tutorID)
}

// supersededSince reports whether an invalidation newer than asOf has been
// recorded for the tutor.
func (c *Coordinator) supersededSince(tutorID string, asOf time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.invalidated[tutorID]
	return ok && asOf.Before(inv)
}

// join returns the tutor's in-flight call, starting a new generation if idle.
func (c *Coordinator) join(tutorID string) *recalcCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	if call, ok := c.inFlight[tutorID]; ok {
		return call
	}
	call := &recalcCall{done: make(chan struct{}), asOf: time.Now().UTC()}
	c.inFlight[tutorID] = call
	go c.run(tutorID, call)
	return call
}

// run executes one recalculation generation. It is detached from any caller's
// context: the computation is shared, so it is bounded only by the configured
// recalculation timeout.
func (c *Coordinator) run(tutorID string, call *recalcCall) {
	start := time.Now()
	c.metrics.RecalcStarted()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	score, err := c.scorer.Compute(ctx, tutorID, call.asOf)
	if err == nil {
		err = c.store.Upsert(ctx, score)
	}

	outcome := "success"
	if err != nil {
		if ctx.Err() != nil {
			err = appErrors.Wrap(err, appErrors.ErrRecalcTimeout.Code, appErrors.ErrRecalcTimeout.Status, appErrors.ErrRecalcTimeout.Message)
			outcome = "timeout"
		} else {
			outcome = "error"
		}
		// The stale cached value, if any, is deliberately left in place; a
		// failed generation must not poison the cache.
		call.err = err
		c.logger.Warn("score recalculation failed", zap.String("tutor_id", tutorID), zap.Error(err))
	} else {
		call.score = score
		if c.supersededSince(tutorID, call.asOf) {
			// A write invalidated the cache after this generation was
			// anchored; its snapshot predates the write and must not be
			// published. The covering recalculation repopulates the cache.
			c.logger.Debug("skipping cache publish for superseded generation", zap.String("tutor_id", tutorID))
		} else {
			// Publish the whole snapshot in one put.
			c.cache.Put(ctx, score)
			if c.supersededSince(tutorID, call.asOf) {
				// The invalidation raced the publish; drop the entry again.
				c.cache.Invalidate(ctx, tutorID)
			}
		}
	}

	c.mu.Lock()
	if inv, ok := c.invalidated[tutorID]; ok && !call.asOf.Before(inv) {
		// This generation covers the latest invalidation; retire the marker.
		delete(c.invalidated, tutorID)
	}
	delete(c.inFlight, tutorID)
	c.mu.Unlock()

	c.metrics.RecalcFinished(outcome, time.Since(start))
	close(call.done)
}

// fallback serves a reader whose recalculation failed or timed out: the
// previous cached value when present, then the persisted snapshot, and as a
// last resort a direct uncached computation. NotFound is never masked.
func (c *Coordinator) fallback(ctx context.Context, tutorID string, cause error) (*models.TutorScore, error) {
	if errors.Is(cause, appErrors.ErrNotFound) {
		return nil, cause
	}

	lookupCtx := ctx
	if lookupCtx.Err() != nil {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
	}

	if score, hit := c.cache.Get(lookupCtx, tutorID); hit {
		c.logger.Debug("serving stale cached score after failed recalculation", zap.String("tutor_id", tutorID))
		return score, nil
	}

	if snapshot, err := c.store.FindByTutor(lookupCtx, tutorID); err == nil && snapshot != nil {
		c.logger.Debug("serving persisted score after failed recalculation", zap.String("tutor_id", tutorID))
		return snapshot, nil
	}

	score, err := c.scorer.Compute(lookupCtx, tutorID, time.Now().UTC())
	if err != nil {
		return nil, cause
	}
	return score, nil
}
