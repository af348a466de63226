package ports

import "time"

// Policy controls when a queue flushes. Both thresholds must be positive.
type Policy struct {
	// MaxBatchSize is the buffered item count at which a flush is requested
	// without waiting for the periodic interval.
	MaxBatchSize int
	// FlushInterval is the maximum wall-clock time between flushes when no
	// size trigger fires.
	FlushInterval time.Duration
}
