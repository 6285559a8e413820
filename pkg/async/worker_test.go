package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cardshop/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerRetriesUntilSuccess(t *testing.T) {
	w := NewWorker(4, logger.NewNop())
	w.SetBackoff(time.Millisecond)
	w.Start(1)

	var calls int32
	err := w.AddTask(Task{
		ID:       "deliver_1",
		RetryMax: 3,
		Handler: func(ctx context.Context) error {
			if atomic.AddInt32(&calls, 1) < 3 {
				return errors.New("smtp unavailable")
			}
			return nil
		},
	})
	require.NoError(t, err)
	w.Stop()

	result, ok := w.GetResult("deliver_1")
	require.True(t, ok)
	assert.True(t, result.Completed)
	assert.Equal(t, 3, result.Attempts)
}

func TestWorkerGivesUpAfterRetryMax(t *testing.T) {
	w := NewWorker(1, logger.NewNop())
	w.SetBackoff(time.Millisecond)
	w.Start(1)

	require.NoError(t, w.AddTask(Task{
		ID:       "deliver_2",
		RetryMax: 1,
		Handler:  func(ctx context.Context) error { return errors.New("boom") },
	}))
	w.Stop()

	result, ok := w.GetResult("deliver_2")
	require.True(t, ok)
	assert.False(t, result.Completed)
	assert.Equal(t, 2, result.Attempts)
	assert.EqualError(t, result.Error, "boom")
}

func TestWorkerQueueFullAndStopped(t *testing.T) {
	// 未启动的工作器不会消费队列
	w := NewWorker(1, logger.NewNop())
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, w.AddTask(Task{Handler: noop}))
	assert.ErrorIs(t, w.AddTask(Task{Handler: noop}), ErrQueueFull)

	w.Start(1)
	w.Stop()
	assert.ErrorIs(t, w.AddTask(Task{Handler: noop}), ErrStopped)
	w.Stop()
}
