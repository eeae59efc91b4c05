package taskrun

import (
	"fmt"
	"time"
)

// WithTimeout executes fn on a background goroutine and waits at most d for
// it to finish. On success the function's result is returned. If the deadline
// elapses first, the caller is unblocked with ErrTimeout while fn keeps
// running to completion on its goroutine; no preemptive kill is attempted.
//
// A non-positive d fails immediately with ErrInvalidTimeout. Nested guards
// are independent: an inner deadline firing does not affect an outer one.
func WithTimeout[T any](d time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return zero, fmt.Errorf("%w: %v", ErrInvalidTimeout, d)
	}

	f := Go(fn)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-f.Done():
		return f.Result()
	case <-timer.C:
		return zero, fmt.Errorf("%w after %v", ErrTimeout, d)
	}
}
