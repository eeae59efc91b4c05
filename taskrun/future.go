package taskrun

import (
	"fmt"
	"sync/atomic"
	"time"
)

// State is the lifecycle position of a task.
// Terminal states are exactly Completed and Failed.
type State int32

const (
	StateSubmitted State = iota
	StateQueued
	StateRunning
	StateCompleted
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Future is the caller's handle on a background task. Its result is set
// exactly once by the executing worker; after completion the future is
// read-only for the caller.
type Future[T any] struct {
	done  chan struct{}
	state atomic.Int32
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete records the outcome and releases waiters. Must be called at most
// once; the channel close publishes value/err to readers.
func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	if err != nil {
		f.state.Store(int32(StateFailed))
	} else {
		f.state.Store(int32(StateCompleted))
	}
	close(f.done)
}

// Result blocks until the task reaches a terminal state. A failed task's
// error is returned verbatim, not wrapped, so callers can distinguish their
// own task's failure from executor errors.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// ResultTimeout is Result with a bounded wait. If the task is not terminal
// within d, it returns ErrResultNotReady without cancelling the task.
func (f *Future[T]) ResultTimeout(d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero T
		return zero, ErrResultNotReady
	}
}

// Done returns a channel closed when the task reaches a terminal state.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// State returns the task's current lifecycle position.
func (f *Future[T]) State() State {
	return State(f.state.Load())
}

// Go runs fn on a fresh goroutine and returns its future immediately.
// Panics in fn are captured and surface as a Failed future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	f.state.Store(int32(StateRunning))
	go func() {
		f.complete(runGuarded(fn))
	}()
	return f
}

// runGuarded invokes fn with panic capture, so one misbehaving task cannot
// take down the worker executing it.
func runGuarded[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return fn()
}
