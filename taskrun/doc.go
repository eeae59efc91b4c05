// Package taskrun provides wall-clock limits on arbitrary work, a minimal
// future abstraction for background execution, and a rate-limited executor
// with a fixed worker pool and bounded admission queue.
//
// Timeout guards are best-effort: cooperative cancellation is not assumed
// possible for arbitrary work, so the contract is "caller is freed", not
// "callee is stopped". A timed-out function keeps running on its goroutine to
// completion; callers must not assume its resources were cleaned up when
// WithTimeout returns ErrTimeout.
//
//	v, err := taskrun.WithTimeout(2*time.Second, func() (string, error) {
//	    return slowLookup(key)
//	})
//
// The Executor bounds how many tasks run concurrently while applying
// backpressure on submission once its admission queue fills:
//
//	ex, _ := taskrun.NewExecutor(4, taskrun.WithRateLimit(50, 10))
//	defer ex.Close()
//	fut, _ := ex.Submit(func() (any, error) { return fetch(url), nil })
//	v, err := fut.Result()
//
// Tasks are dispatched to workers in submission order; completion order is
// not guaranteed. A task that has begun running always runs to completion or
// failure; the executor performs no retries and offers no mid-flight
// cancellation.
package taskrun
