package taskrun

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// task pairs a unit of work with its result handle. Ownership transfers from
// the caller to the executor at submission and back at completion.
type task struct {
	fn     func() (any, error)
	future *Future[any]
}

// Executor bounds the number of concurrently executing tasks while applying
// backpressure once its admission queue fills. The concurrency bound is fixed
// at construction; queued tasks are dispatched first-submitted-first.
type Executor struct {
	queue   chan *task
	limiter *rate.Limiter
	log     *zap.Logger
	workers int

	running atomic.Int32
	wg      sync.WaitGroup

	// mu serializes submission against Close: submitters hold the read side
	// while sending, Close takes the write side before closing the queue.
	mu     sync.RWMutex
	closed bool
}

// ExecutorOption customizes an Executor at construction.
type ExecutorOption func(*Executor)

// WithQueueDepth sets the admission queue capacity. Defaults to twice the
// worker count. Values below 1 are clamped to 1.
func WithQueueDepth(depth int) ExecutorOption {
	return func(e *Executor) {
		if depth < 1 {
			depth = 1
		}
		e.queue = make(chan *task, depth)
	}
}

// WithRateLimit throttles task dispatch to ratePerSecond with the given
// burst, on top of the concurrency bound. Non-positive values are clamped
// to 1. Throttling applies at dispatch, not at submission.
func WithRateLimit(ratePerSecond float64, burst int) ExecutorOption {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return func(e *Executor) {
		e.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
}

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// NewExecutor creates an executor with a fixed pool of workers and starts it.
func NewExecutor(workers int, opts ...ExecutorOption) (*Executor, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", workers)
	}

	e := &Executor{
		workers: workers,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.queue == nil {
		e.queue = make(chan *task, DefaultQueueFactor*workers)
	}

	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker(i)
	}

	return e, nil
}

// Submit hands a task to the executor and returns its handle immediately.
// It blocks only when the admission queue is at capacity (backpressure), not
// when all workers are busy. After Close it fails with ErrQueueClosed.
func (e *Executor) Submit(fn func() (any, error)) (*Future[any], error) {
	if fn == nil {
		return nil, fmt.Errorf("task function cannot be nil")
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, ErrQueueClosed
	}
	t := &task{fn: fn, future: newFuture[any]()}
	t.future.state.Store(int32(StateSubmitted))

	e.queue <- t
	e.mu.RUnlock()

	// A worker may already have moved the task to Running; only record Queued
	// if the task is still waiting.
	t.future.state.CompareAndSwap(int32(StateSubmitted), int32(StateQueued))

	return t.future, nil
}

// Running returns the number of tasks currently executing. Observability aid;
// bounded above by the worker count.
func (e *Executor) Running() int {
	return int(e.running.Load())
}

// Workers returns the fixed concurrency bound.
func (e *Executor) Workers() int {
	return e.workers
}

// Close stops accepting submissions. Submissions already blocked on a full
// queue are admitted first; queued tasks still run to completion. Idempotent.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.queue)
}

// Shutdown closes the executor and waits for all queued and running tasks to
// reach a terminal state, or for ctx to expire.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.Close()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker is the processing loop for a single pool member. It drains the
// admission queue in FIFO order until the queue is closed and empty.
func (e *Executor) worker(id int) {
	defer e.wg.Done()
	log := e.log.With(zap.Int("worker", id))
	log.Debug("worker started")

	for t := range e.queue {
		if e.limiter != nil {
			if err := e.limiter.Wait(context.Background()); err != nil {
				// Unreachable with a background context; fail the task
				// rather than drop it silently.
				t.future.complete(nil, err)
				continue
			}
		}

		t.future.state.Store(int32(StateRunning))
		e.running.Add(1)
		value, err := runGuarded(t.fn)
		e.running.Add(-1)

		if err != nil {
			log.Debug("task failed", zap.Error(err))
		}
		t.future.complete(value, err)
	}

	log.Debug("worker finished")
}
