package taskrun

import "errors"

var (
	// ErrInvalidTimeout is returned when a non-positive timeout is requested.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrTimeout is returned when the deadline elapses before the guarded
	// work completes. The work itself keeps running in the background.
	ErrTimeout = errors.New("timeout exceeded")

	// ErrResultNotReady is returned by Future.ResultTimeout when the wait
	// elapses before the task reaches a terminal state. The task is not
	// cancelled.
	ErrResultNotReady = errors.New("result not ready")

	// ErrQueueClosed is returned by Submit after the executor has been closed.
	ErrQueueClosed = errors.New("executor closed")
)
