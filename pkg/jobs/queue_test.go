package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8, Logger: zap.NewNop()})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "j", Type: "work"}))
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&processed) == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueRetriesWithBackoffThenDeadLetters(t *testing.T) {
	var attempts int32
	var exhausted int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("persistent failure")
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Logger:     zap.NewNop(),
		OnExhausted: func(job Job, err error) {
			atomic.AddInt32(&exhausted, 1)
		},
	})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "work"}))

	assert.Eventually(t, func() bool {
		return len(q.Failed()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&exhausted))

	failed := q.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "j1", failed[0].Job.ID)
	assert.Contains(t, failed[0].Error, "persistent failure")
}

func TestQueueRecoversAfterTransientFailure(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond, Logger: zap.NewNop()})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "work"}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, q.Failed())
}

func TestQueueStopDrainsAcceptedJobs(t *testing.T) {
	var processed int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8, Logger: zap.NewNop()})

	q.Start(context.Background())
	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "j", Type: "work"}))
	}

	// Every acked job must complete before Stop returns, even the ones still
	// sitting in the buffer.
	q.Stop()
	assert.Equal(t, int32(4), atomic.LoadInt32(&processed))

	err := q.Enqueue(Job{ID: "late", Type: "work"})
	require.Error(t, err)
}

func TestQueueStopDeadLettersPendingRetry(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return errors.New("persistent failure")
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Minute, Logger: zap.NewNop()})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "work"}))

	// Wait for the first attempt to fail and park the job in its retry timer.
	assert.Eventually(t, func() bool {
		return len(q.jobs) == 0
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	q.Stop()

	assert.Eventually(t, func() bool {
		failed := q.Failed()
		return len(failed) == 1 && failed[0].Job.ID == "j1"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, q.Failed()[0].Error, "queue stopped before retry")
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{Logger: zap.NewNop()})
	err := q.Enqueue(Job{ID: "j1"})
	require.Error(t, err)
}

func TestQueueStopIsIdempotent(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{Logger: zap.NewNop()})
	q.Start(context.Background())
	q.Stop()
	q.Stop()
}
