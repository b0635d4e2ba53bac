package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsBufferedJobsOnStop(t *testing.T) {
	var processed int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 16})

	q.Start(context.Background())
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "noop"}))
	}
	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, int32(10), atomic.LoadInt32(&processed))

	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueStopped)
	assert.NoError(t, q.Stop(context.Background()))
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	var results []error

	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond, OnResult: func(job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, err)
	}})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "j1"}))
	require.NoError(t, q.Stop(context.Background()))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Len(t, results, 1)
	assert.NoError(t, results[0])
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var final error
	q := NewQueue("fail", func(ctx context.Context, job Job) error {
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, OnResult: func(job Job, err error) {
		final = err
		assert.Equal(t, 2, job.Attempt)
	}})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{}))
	require.NoError(t, q.Stop(context.Background()))
	assert.EqualError(t, final, "permanent")
}

func TestQueueRejectsWhenNotRunningOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueStopped)

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{}))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job{}))
	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueFull)

	close(block)
	require.NoError(t, q.Stop(context.Background()))
}
