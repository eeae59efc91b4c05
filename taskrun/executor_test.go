package taskrun

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

func TestExecutor(t *testing.T) {
	t.Run("InvalidWorkerCount", func(t *testing.T) {
		_, err := NewExecutor(0)
		assert.Error(t, err)
		_, err = NewExecutor(-3)
		assert.Error(t, err)
	})

	t.Run("NilTaskRejected", func(t *testing.T) {
		ex, err := NewExecutor(1)
		require.NoError(t, err)
		defer ex.Close()

		_, err = ex.Submit(nil)
		assert.Error(t, err)
	})

	t.Run("AllTasksReachTerminalState", func(t *testing.T) {
		const workers = 3
		const n = 20

		ex, err := NewExecutor(workers, WithQueueDepth(n))
		require.NoError(t, err)

		futures := make([]*Future[any], 0, n)
		for i := 0; i < n; i++ {
			i := i
			fut, err := ex.Submit(func() (any, error) {
				time.Sleep(10 * time.Millisecond)
				return i, nil
			})
			require.NoError(t, err)
			futures = append(futures, fut)
		}

		for i, fut := range futures {
			v, err := fut.Result()
			require.NoError(t, err)
			assert.Equal(t, i, v)
			assert.Equal(t, StateCompleted, fut.State())
		}

		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		require.NoError(t, ex.Shutdown(ctx))
	})

	t.Run("ConcurrencyBoundHolds", func(t *testing.T) {
		const workers = 3
		const n = 24

		ex, err := NewExecutor(workers, WithQueueDepth(n))
		require.NoError(t, err)
		defer ex.Close()

		var current, peak atomic.Int32
		futures := make([]*Future[any], 0, n)
		for i := 0; i < n; i++ {
			fut, err := ex.Submit(func() (any, error) {
				c := current.Add(1)
				for {
					p := peak.Load()
					if c <= p || peak.CompareAndSwap(p, c) {
						break
					}
				}
				time.Sleep(15 * time.Millisecond)
				current.Add(-1)
				return nil, nil
			})
			require.NoError(t, err)
			futures = append(futures, fut)
		}

		for _, fut := range futures {
			_, err := fut.Result()
			require.NoError(t, err)
		}

		assert.LessOrEqual(t, peak.Load(), int32(workers),
			"no more than %d tasks may run simultaneously", workers)
	})

	t.Run("FIFODispatch", func(t *testing.T) {
		ex, err := NewExecutor(1, WithQueueDepth(16))
		require.NoError(t, err)
		defer ex.Close()

		var mu sync.Mutex
		var order []int
		futures := make([]*Future[any], 0, 10)
		for i := 0; i < 10; i++ {
			i := i
			fut, err := ex.Submit(func() (any, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil, nil
			})
			require.NoError(t, err)
			futures = append(futures, fut)
		}
		for _, fut := range futures {
			_, _ = fut.Result()
		}

		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order,
			"single worker must observe submission order")
	})

	t.Run("TaskFailureIsVerbatim", func(t *testing.T) {
		ex, err := NewExecutor(1)
		require.NoError(t, err)
		defer ex.Close()

		boom := errors.New("boom")
		fut, err := ex.Submit(func() (any, error) { return nil, boom })
		require.NoError(t, err)

		_, taskErr := fut.Result()
		assert.Equal(t, boom, taskErr)
		assert.Equal(t, StateFailed, fut.State())
	})

	t.Run("PanicFailsTaskNotWorker", func(t *testing.T) {
		ex, err := NewExecutor(1)
		require.NoError(t, err)
		defer ex.Close()

		bad, err := ex.Submit(func() (any, error) { panic("oops") })
		require.NoError(t, err)
		_, taskErr := bad.Result()
		require.Error(t, taskErr)
		assert.Contains(t, taskErr.Error(), "oops")

		// The worker survived and keeps processing.
		good, err := ex.Submit(func() (any, error) { return "fine", nil })
		require.NoError(t, err)
		v, taskErr := good.Result()
		require.NoError(t, taskErr)
		assert.Equal(t, "fine", v)
	})

	t.Run("BackpressureWhenQueueFull", func(t *testing.T) {
		ex, err := NewExecutor(1, WithQueueDepth(1))
		require.NoError(t, err)
		defer ex.Close()

		block := make(chan struct{})
		// Occupies the single worker.
		running, err := ex.Submit(func() (any, error) {
			<-block
			return nil, nil
		})
		require.NoError(t, err)

		// Give the worker time to pick the first task up, then fill the queue.
		time.Sleep(20 * time.Millisecond)
		queued, err := ex.Submit(func() (any, error) { return nil, nil })
		require.NoError(t, err)

		// The next submission must block until capacity frees.
		unblocked := make(chan struct{})
		go func() {
			fut, err := ex.Submit(func() (any, error) { return nil, nil })
			assert.NoError(t, err)
			_, _ = fut.Result()
			close(unblocked)
		}()

		select {
		case <-unblocked:
			t.Fatal("submit should have blocked on a full admission queue")
		case <-time.After(50 * time.Millisecond):
		}

		close(block)
		select {
		case <-unblocked:
		case <-time.After(2 * time.Second):
			t.Fatal("submit did not unblock after queue drained")
		}

		_, _ = running.Result()
		_, _ = queued.Result()
	})

	t.Run("SubmitAfterClose", func(t *testing.T) {
		ex, err := NewExecutor(1)
		require.NoError(t, err)
		ex.Close()
		ex.Close() // idempotent

		_, err = ex.Submit(func() (any, error) { return nil, nil })
		assert.ErrorIs(t, err, ErrQueueClosed)
	})

	t.Run("ShutdownDrainsQueuedTasks", func(t *testing.T) {
		ex, err := NewExecutor(2, WithQueueDepth(8))
		require.NoError(t, err)

		var completed atomic.Int32
		for i := 0; i < 8; i++ {
			_, err := ex.Submit(func() (any, error) {
				time.Sleep(10 * time.Millisecond)
				completed.Add(1)
				return nil, nil
			})
			require.NoError(t, err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		require.NoError(t, ex.Shutdown(ctx))
		assert.Equal(t, int32(8), completed.Load())
	})

	t.Run("ShutdownHonorsContext", func(t *testing.T) {
		ex, err := NewExecutor(1)
		require.NoError(t, err)

		release := make(chan struct{})
		fut, err := ex.Submit(func() (any, error) {
			<-release
			return nil, nil
		})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		err = ex.Shutdown(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		close(release)
		_, _ = fut.Result()
	})

	t.Run("RateLimitThrottlesDispatch", func(t *testing.T) {
		// 10/s with burst 1: 4 tasks need roughly 300ms of token waits.
		ex, err := NewExecutor(4, WithQueueDepth(8), WithRateLimit(10, 1))
		require.NoError(t, err)
		defer ex.Close()

		start := time.Now()
		futures := make([]*Future[any], 0, 4)
		for i := 0; i < 4; i++ {
			fut, err := ex.Submit(func() (any, error) { return nil, nil })
			require.NoError(t, err)
			futures = append(futures, fut)
		}
		for _, fut := range futures {
			_, err := fut.Result()
			require.NoError(t, err)
		}

		assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond,
			"dispatch should have been throttled")
	})

	t.Run("RunningGauge", func(t *testing.T) {
		ex, err := NewExecutor(2)
		require.NoError(t, err)
		defer ex.Close()

		assert.Equal(t, 0, ex.Running())
		assert.Equal(t, 2, ex.Workers())

		release := make(chan struct{})
		fut, err := ex.Submit(func() (any, error) {
			<-release
			return nil, nil
		})
		require.NoError(t, err)

		assert.Eventually(t, func() bool { return ex.Running() == 1 },
			time.Second, 5*time.Millisecond)

		close(release)
		_, _ = fut.Result()
		assert.Eventually(t, func() bool { return ex.Running() == 0 },
			time.Second, 5*time.Millisecond)
	})
}

func TestExecutorStateTransitions(t *testing.T) {
	ex, err := NewExecutor(1)
	require.NoError(t, err)
	defer ex.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	fut, err := ex.Submit(func() (any, error) {
		close(started)
		<-release
		return "v", nil
	})
	require.NoError(t, err)

	<-started
	assert.Equal(t, StateRunning, fut.State())

	close(release)
	v, err := fut.Result()
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, StateCompleted, fut.State())
}
