package dbflow

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Requeuer re-enqueues failed batches after an exponential backoff delay,
// resetting the delay on the next committed batch. The queue itself never
// retries; installing a Requeuer opts into retry at the listener layer.
//
// If a batch actually committed but its success callback never fired (for
// example the process crashed mid-dispatch earlier), requeued items can be
// persisted twice; the SQL model writer's upsert keeps that harmless.
type Requeuer[T comparable] struct {
	queue *Queue[T]

	mu sync.Mutex
	bo backoff.BackOff
}

// NewRequeuer builds a requeuer for q. A nil policy gets an exponential
// backoff starting at 500ms with no give-up deadline.
func NewRequeuer[T comparable](q *Queue[T], bo backoff.BackOff) *Requeuer[T] {
	if bo == nil {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 500 * time.Millisecond
		eb.MaxElapsedTime = 0
		bo = eb
	}
	return &Requeuer[T]{queue: q, bo: bo}
}

// Install registers the requeuer in the queue's error and success slots.
func (r *Requeuer[T]) Install() {
	r.queue.SetErrorListener(r.OnError)
	r.queue.SetSuccessListener(r.OnSuccess)
}

// OnError schedules the failed batch to be re-added once the current
// backoff delay elapses. A backoff.Stop policy result drops the batch.
func (r *Requeuer[T]) OnError(res *BatchResult[T], err error) {
	r.mu.Lock()
	delay := r.bo.NextBackOff()
	r.mu.Unlock()

	if delay == backoff.Stop {
		return
	}

	items := res.Items
	time.AfterFunc(delay, func() {
		r.queue.AddAll(items)
	})
}

// OnSuccess resets the backoff so the next failure starts from the
// initial interval again.
func (r *Requeuer[T]) OnSuccess(*BatchResult[T]) {
	r.mu.Lock()
	r.bo.Reset()
	r.mu.Unlock()
}
