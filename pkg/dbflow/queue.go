package dbflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/jonboulle/clockwork"

	"github.com/danielvallecillo77/DBFlow/internal/adapters/membuf"
	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

const (
	DefaultMaxBatchSize  = 50
	DefaultFlushInterval = 30 * time.Second
)

// Queue coalesces individually produced items into grouped write
// transactions. Producers call Add/AddAll from any goroutine; a single
// background worker drains the pending buffer whenever the size threshold
// is crossed, an explicit wake arrives, or the flush interval elapses, and
// hands each drained batch to the transaction executor.
//
// Items live only in memory: anything still buffered when the process dies
// is lost. Callers needing durability must layer it themselves.
type Queue[T comparable] struct {
	exec  ports.TxExecutor[T]
	buf   ports.Buffer[T]
	obs   ports.Observability
	clock clockwork.Clock

	maxBatch      atomic.Int64
	flushInterval atomic.Int64

	onSuccess atomic.Pointer[SuccessListener[T]]
	onError   atomic.Pointer[ErrorListener[T]]
	onEmpty   atomic.Pointer[EmptyCycleListener]

	// dispatch serializes executor hand-offs off the worker loop so a slow
	// transaction never delays the next drain or holds the buffer lock.
	dispatch pond.Pool
	seq      atomic.Uint64

	wakeCh    chan struct{}
	quit      atomic.Bool
	started   atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
	doneCh    chan struct{}
}

// New builds a queue around the given executor. The worker does not run
// until Start is called; items may be buffered before that.
func New[T comparable](exec ports.TxExecutor[T], opts ...QueueOption[T]) *Queue[T] {
	q := &Queue[T]{
		exec:     exec,
		buf:      membuf.New[T](),
		obs:      nopObs{},
		clock:    clockwork.NewRealClock(),
		dispatch: pond.NewPool(1),
		wakeCh:   make(chan struct{}, 1),
		doneCh:   make(chan struct{}),
	}
	q.maxBatch.Store(DefaultMaxBatchSize)
	q.flushInterval.Store(int64(DefaultFlushInterval))

	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// Start launches the background worker. A queue runs exactly once; after
// Close it cannot be restarted.
func (q *Queue[T]) Start() {
	q.startOnce.Do(func() {
		q.started.Store(true)
		go q.run()
	})
}

// Add appends one item to the pending buffer. If the buffer reaches the
// size threshold the worker is woken immediately. Never fails; unbounded
// growth is the caller's risk.
func (q *Queue[T]) Add(item T) {
	q.buf.Append(item)
	q.checkThreshold()
}

// AddAll appends a sequence of items as a single atomic operation, then
// performs one threshold check for the whole batch.
func (q *Queue[T]) AddAll(items []T) {
	if len(items) == 0 {
		return
	}
	q.buf.AppendAll(items)
	q.checkThreshold()
}

// Remove drops the first buffered occurrence of item, best-effort. Items
// already drained into an in-flight batch are not found and are ignored.
func (q *Queue[T]) Remove(item T) {
	q.buf.Remove(item)
}

// RemoveAll drops the first buffered occurrence of each item, best-effort.
func (q *Queue[T]) RemoveAll(items []T) {
	if len(items) == 0 {
		return
	}
	q.buf.RemoveAll(items)
}

// Len returns the number of items currently buffered.
func (q *Queue[T]) Len() int {
	return q.buf.Len()
}

// SetMaxBatchSize updates the size threshold, effective on the next
// evaluation. Non-positive values are rejected.
func (q *Queue[T]) SetMaxBatchSize(n int) {
	if n <= 0 {
		q.obs.LogError("rejecting non-positive max batch size", nil,
			ports.Field{Key: "value", Value: n})
		return
	}
	q.maxBatch.Store(int64(n))
}

// SetFlushInterval updates the periodic wake interval, effective on the
// worker's next wait. Non-positive values are rejected.
func (q *Queue[T]) SetFlushInterval(d time.Duration) {
	if d <= 0 {
		q.obs.LogError("rejecting non-positive flush interval", nil,
			ports.Field{Key: "value", Value: d})
		return
	}
	q.flushInterval.Store(int64(d))
}

// MaxBatchSize returns the current size threshold.
func (q *Queue[T]) MaxBatchSize() int {
	return int(q.maxBatch.Load())
}

// FlushInterval returns the current periodic wake interval.
func (q *Queue[T]) FlushInterval() time.Duration {
	return time.Duration(q.flushInterval.Load())
}

// SetSuccessListener replaces the success listener slot; last writer wins.
// A nil fn clears the slot. Dispatch uses whichever listener is installed
// at the moment the outcome is reported.
func (q *Queue[T]) SetSuccessListener(fn SuccessListener[T]) {
	if fn == nil {
		q.onSuccess.Store(nil)
		return
	}
	q.onSuccess.Store(&fn)
}

// SetErrorListener replaces the error listener slot; last writer wins.
func (q *Queue[T]) SetErrorListener(fn ErrorListener[T]) {
	if fn == nil {
		q.onError.Store(nil)
		return
	}
	q.onError.Store(&fn)
}

// SetEmptyCycleListener replaces the empty-cycle listener slot.
func (q *Queue[T]) SetEmptyCycleListener(fn EmptyCycleListener) {
	if fn == nil {
		q.onEmpty.Store(nil)
		return
	}
	q.onEmpty.Store(&fn)
}

// WakeNow signals the worker to abandon its current wait and run a flush
// cycle immediately, regardless of buffer size.
func (q *Queue[T]) WakeNow() {
	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
}

// RequestShutdown marks the queue as quitting without waking the worker:
// a worker mid-wait observes the flag only once that wait ends. Callers
// needing prompt shutdown should use Close, or also call WakeNow.
func (q *Queue[T]) RequestShutdown() {
	q.quit.Store(true)
}

// Close requests shutdown, wakes the worker, and waits for the final drain
// and any in-flight executor hand-off to finish, bounded by ctx.
func (q *Queue[T]) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.quit.Store(true)
		q.WakeNow()
	})

	if !q.started.Load() {
		return nil
	}

	select {
	case <-q.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) checkThreshold() {
	if q.buf.Len() >= int(q.maxBatch.Load()) {
		q.WakeNow()
	}
}

// run is the worker loop: drain, dispatch, wait, check the quit flag.
// Executor failures never stop the loop; only the quit flag does.
func (q *Queue[T]) run() {
	defer close(q.doneCh)
	defer q.dispatch.StopAndWait()

	for {
		q.flushCycle()

		select {
		case <-q.clock.After(q.FlushInterval()):
		case <-q.wakeCh:
			// Early wake: threshold trigger or explicit request. Not an error.
		}

		if q.quit.Load() {
			// Shutdown drains what is left and flushes it rather than
			// stranding buffered items; an empty buffer ends quietly.
			if batch := q.buf.Swap(); len(batch) > 0 {
				q.submit(batch)
			}
			return
		}
	}
}

func (q *Queue[T]) flushCycle() {
	batch := q.buf.Swap()
	if len(batch) == 0 {
		q.obs.IncCounter("dbflow_empty_cycles_total", 1)
		if l := q.onEmpty.Load(); l != nil {
			(*l)()
		}
		return
	}
	q.submit(batch)
}

// submit hands the drained batch to the executor on the dispatch worker.
// Ownership of the items transfers with the batch; they are never put back
// into the buffer here.
func (q *Queue[T]) submit(batch []T) {
	res := &BatchResult[T]{
		Seq:       q.seq.Add(1),
		Items:     batch,
		StartedAt: q.clock.Now(),
	}
	q.obs.IncCounter("dbflow_flushes_total", 1)
	q.obs.Observe("dbflow_batch_size", float64(len(batch)))

	q.dispatch.Submit(func() {
		start := q.clock.Now()
		err := q.exec.ExecuteBatch(context.Background(), res.Items)
		res.Duration = q.clock.Since(start)

		if err != nil {
			q.obs.RecordFlushFailure(res.Seq, len(res.Items), err)
			if l := q.onError.Load(); l != nil {
				(*l)(res, err)
			}
			return
		}

		q.obs.IncCounter("dbflow_items_persisted_total", float64(len(res.Items)))
		q.obs.Observe("dbflow_flush_latency_seconds", res.Duration.Seconds())
		if l := q.onSuccess.Load(); l != nil {
			(*l)(res)
		}
	})
}

// nopObs is the default observability backend: metrics and logs go nowhere.
type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) Observe(string, float64)                {}
func (nopObs) SetGauge(string, float64)               {}
func (nopObs) RecordFlushFailure(uint64, int, error)  {}
