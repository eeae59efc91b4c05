package taskrun

import "time"

// Core timing and sizing constants.
const (
	// DefaultQueueFactor sets the admission queue capacity per worker when
	// WithQueueDepth is not given.
	DefaultQueueFactor = 2

	// DefaultShutdownTimeout bounds a graceful drain when the caller has no
	// stronger opinion.
	DefaultShutdownTimeout = 5 * time.Second
)
