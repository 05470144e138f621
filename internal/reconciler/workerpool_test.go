package reconciler

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

func TestWorkerPool(t *testing.T) {
	tests := []struct {
		name           string
		numTasks       int
		numWorkers     int
		expectedErrors int
	}{
		{
			name:           "Test worker pool with simple tasks",
			numTasks:       5,
			numWorkers:     2,
			expectedErrors: 0,
		},
		{
			name:           "Test worker pool with error in task",
			numTasks:       2,
			numWorkers:     2,
			expectedErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wp := NewWorkerPool(tt.numWorkers)
			defer wp.Close()

			var executed, failed atomic.Int32
			var wg sync.WaitGroup

			for i := 0; i < tt.numTasks; i++ {
				wg.Add(1)
				task := func() error {
					defer wg.Done()
					if i == tt.numTasks-1 && tt.expectedErrors > 0 {
						failed.Add(1)
						return assert.AnError
					}
					time.Sleep(20 * time.Millisecond)
					executed.Add(1)
					return nil
				}

				var err error
				require.Eventually(t, func() bool {
					err = wp.AddTask(context.Background(), task)
					return !errors.Is(err, ErrPoolFull)
				}, time.Second, time.Millisecond)
				require.NoError(t, err, "failed to add task to pool")
			}

			wg.Wait()

			assert.Equal(t, int32(tt.numTasks-tt.expectedErrors), executed.Load(), "number of executed tasks does not match")
			assert.Equal(t, int32(tt.expectedErrors), failed.Load(), "number of errors does not match")
		})
	}
}

func TestWorkerPool_CanceledContext(t *testing.T) {
	wp := NewWorkerPool(1)
	defer wp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := wp.AddTask(ctx, func() error {
		t.Error("Task should not be executed")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPool_Full(t *testing.T) {
	wp := NewWorkerPool(1)
	defer wp.Close()

	block := make(chan struct{})
	defer close(block)
	started := make(chan struct{})
	require.NoError(t, wp.AddTask(context.Background(), func() error {
		close(started)
		<-block
		return nil
	}))
	<-started
	require.NoError(t, wp.AddTask(context.Background(), func() error { return nil }))

	done := make(chan error, 1)
	go func() {
		done <- wp.AddTask(context.Background(), func() error {
			t.Error("Task should not be executed")
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrPoolFull)
	case <-time.After(time.Second):
		t.Fatal("AddTask blocked on a full pool")
	}
}

func TestWorkerPool_Close(t *testing.T) {
	wp := NewWorkerPool(2)

	var done atomic.Bool
	started := make(chan struct{})
	require.NoError(t, wp.AddTask(context.Background(), func() error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
		return nil
	}))
	<-started

	wp.Close()
	wp.Close()

	assert.True(t, done.Load())
	assert.ErrorIs(t, wp.AddTask(context.Background(), func() error { return nil }), ErrPoolClosed)
}
