package dbflow

import (
	"github.com/jonboulle/clockwork"

	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// QueueOption customizes the dependencies and policy of a Queue.
type QueueOption[T comparable] func(*Queue[T])

// WithBuffer injects a custom pending buffer implementation.
func WithBuffer[T comparable](buf ports.Buffer[T]) QueueOption[T] {
	return func(q *Queue[T]) {
		if buf != nil {
			q.buf = buf
		}
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability[T comparable](obs ports.Observability) QueueOption[T] {
	return func(q *Queue[T]) {
		if obs != nil {
			q.obs = obs
		}
	}
}

// WithClock overrides the wall clock used for the flush interval wait.
func WithClock[T comparable](clock clockwork.Clock) QueueOption[T] {
	return func(q *Queue[T]) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithPolicy sets the initial flush policy. Non-positive values keep the
// defaults, same as the runtime setters.
func WithPolicy[T comparable](pol ports.Policy) QueueOption[T] {
	return func(q *Queue[T]) {
		if pol.MaxBatchSize > 0 {
			q.maxBatch.Store(int64(pol.MaxBatchSize))
		}
		if pol.FlushInterval > 0 {
			q.flushInterval.Store(int64(pol.FlushInterval))
		}
	}
}

// WithSuccessListener installs the initial success listener.
func WithSuccessListener[T comparable](fn SuccessListener[T]) QueueOption[T] {
	return func(q *Queue[T]) {
		q.SetSuccessListener(fn)
	}
}

// WithErrorListener installs the initial error listener.
func WithErrorListener[T comparable](fn ErrorListener[T]) QueueOption[T] {
	return func(q *Queue[T]) {
		q.SetErrorListener(fn)
	}
}

// WithEmptyCycleListener installs the initial empty-cycle listener.
func WithEmptyCycleListener[T comparable](fn EmptyCycleListener) QueueOption[T] {
	return func(q *Queue[T]) {
		q.SetEmptyCycleListener(fn)
	}
}
