package dbflow

import "time"

// BatchResult is the transaction-result handle passed to listeners. It
// identifies one drained batch: the items handed to the executor, when the
// hand-off happened, and how long the transaction took.
type BatchResult[T any] struct {
	// Seq increments once per submitted batch over the queue's lifetime.
	Seq       uint64
	Items     []T
	StartedAt time.Time
	Duration  time.Duration
}

// SuccessListener is invoked once per batch the executor commits.
type SuccessListener[T any] func(res *BatchResult[T])

// ErrorListener is invoked once per batch the executor fails, with the
// underlying cause. The worker loop continues regardless.
type ErrorListener[T any] func(res *BatchResult[T], err error)

// EmptyCycleListener is invoked when a flush cycle finds nothing buffered.
type EmptyCycleListener func()
