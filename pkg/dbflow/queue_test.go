package dbflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// captureExecutor records every batch it receives and can be told to fail.
type captureExecutor[T any] struct {
	mu      sync.Mutex
	batches [][]T
	failErr error

	notify chan []T
}

func newCaptureExecutor[T any]() *captureExecutor[T] {
	return &captureExecutor[T]{notify: make(chan []T, 16)}
}

func (e *captureExecutor[T]) ExecuteBatch(ctx context.Context, batch []T) error {
	e.mu.Lock()
	e.batches = append(e.batches, batch)
	err := e.failErr
	e.mu.Unlock()

	e.notify <- batch
	return err
}

func (e *captureExecutor[T]) Name() string { return "capture" }

func (e *captureExecutor[T]) setError(err error) {
	e.mu.Lock()
	e.failErr = err
	e.mu.Unlock()
}

func (e *captureExecutor[T]) all() [][]T {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]T, len(e.batches))
	copy(out, e.batches)
	return out
}

func (e *captureExecutor[T]) waitBatch(t *testing.T) []T {
	t.Helper()
	select {
	case batch := <-e.notify:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for executor submission")
		return nil
	}
}

func closeQueue(t *testing.T, q *Queue[string]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
}

func TestQueueThresholdTriggersEarlyFlush(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 3, FlushInterval: 10 * time.Second}),
	)
	q.Start()

	// Initial cycle drains an empty buffer, then the worker waits.
	fc.BlockUntil(1)

	q.Add("a")
	q.Add("b")
	q.Add("c") // reaches the threshold, wakes the worker without advancing time

	batch := exec.waitBatch(t)
	require.Equal(t, []string{"a", "b", "c"}, batch)

	closeQueue(t, q)
}

func TestQueueIntervalTriggersFlush(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 100, FlushInterval: 10 * time.Second}),
	)
	q.Start()
	fc.BlockUntil(1)

	q.Add("a")
	q.Add("b")

	// Below the threshold: nothing may flush until the interval elapses.
	select {
	case <-exec.notify:
		t.Fatal("flush fired before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	fc.Advance(10 * time.Second)
	batch := exec.waitBatch(t)
	require.Equal(t, []string{"a", "b"}, batch)

	closeQueue(t, q)
}

func TestQueueAddAllSingleThresholdCheck(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 3, FlushInterval: 10 * time.Second}),
	)
	q.Start()
	fc.BlockUntil(1)

	q.AddAll([]string{"a", "b", "c", "d"})

	batch := exec.waitBatch(t)
	require.Equal(t, []string{"a", "b", "c", "d"}, batch)

	closeQueue(t, q)
}

func TestQueueWakeNowFlushesRegardlessOfSize(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 100, FlushInterval: time.Hour}),
	)
	q.Start()
	fc.BlockUntil(1)

	q.Add("only")
	q.WakeNow()

	batch := exec.waitBatch(t)
	require.Equal(t, []string{"only"}, batch)

	closeQueue(t, q)
}

func TestQueueRemoveBeforeDrain(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 100, FlushInterval: time.Hour}),
	)
	q.Start()
	fc.BlockUntil(1)

	q.AddAll([]string{"a", "b", "c"})
	q.Remove("b")
	q.RemoveAll([]string{"c", "not-present"})
	q.WakeNow()

	batch := exec.waitBatch(t)
	require.Equal(t, []string{"a"}, batch)

	// Removing an item that was already drained is a silent no-op.
	q.Remove("a")
	require.Zero(t, q.Len())

	closeQueue(t, q)
}

func TestQueueEmptyCycleListener(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	var emptyCycles atomic.Int64
	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 100, FlushInterval: time.Hour}),
		WithEmptyCycleListener[string](func() { emptyCycles.Add(1) }),
	)
	q.Start()
	fc.BlockUntil(1)

	// The initial cycle drained an empty buffer exactly once.
	require.Eventually(t, func() bool { return emptyCycles.Load() == 1 },
		2*time.Second, 10*time.Millisecond)

	// An explicit wake with nothing buffered fires it again, and nothing
	// reaches the executor.
	q.WakeNow()
	require.Eventually(t, func() bool { return emptyCycles.Load() == 2 },
		2*time.Second, 10*time.Millisecond)
	require.Empty(t, exec.all())

	closeQueue(t, q)
}

func TestQueueErrorListenerAndRecovery(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	type failure struct {
		res *BatchResult[string]
		err error
	}
	failures := make(chan failure, 1)
	successes := make(chan *BatchResult[string], 1)

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 100, FlushInterval: time.Hour}),
		WithErrorListener[string](func(res *BatchResult[string], err error) {
			failures <- failure{res: res, err: err}
		}),
		WithSuccessListener[string](func(res *BatchResult[string]) {
			successes <- res
		}),
	)
	q.Start()
	fc.BlockUntil(1)

	cause := errors.New("deadlock detected")
	exec.setError(cause)
	q.Add("a")
	q.WakeNow()
	exec.waitBatch(t)

	select {
	case f := <-failures:
		require.ErrorIs(t, f.err, cause)
		require.Equal(t, []string{"a"}, f.res.Items)
		require.Equal(t, uint64(1), f.res.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("error listener never fired")
	}

	// The loop survives a failed batch; the next cycle proceeds normally.
	exec.setError(nil)
	q.Add("b")
	q.WakeNow()
	exec.waitBatch(t)

	select {
	case res := <-successes:
		require.Equal(t, []string{"b"}, res.Items)
		require.Equal(t, uint64(2), res.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("success listener never fired")
	}

	closeQueue(t, q)
}

func TestQueueRequestShutdownIsLazy(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 100, FlushInterval: 30 * time.Second}),
	)
	q.Start()
	fc.BlockUntil(1)

	q.Add("pending")
	q.RequestShutdown()

	// The flag alone does not wake a sleeping worker.
	select {
	case <-exec.notify:
		t.Fatal("flush fired before the wait elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	// Once the wait ends the worker observes the flag, performs one final
	// drain-and-flush, and stops.
	fc.Advance(30 * time.Second)
	batch := exec.waitBatch(t)
	require.Equal(t, []string{"pending"}, batch)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
}

func TestQueueCloseFlushesPromptly(t *testing.T) {
	fc := clockwork.NewFakeClock()
	exec := newCaptureExecutor[string]()

	q := New[string](exec,
		WithClock[string](fc),
		WithPolicy[string](Policy{MaxBatchSize: 100, FlushInterval: time.Hour}),
	)
	q.Start()
	fc.BlockUntil(1)

	q.Add("last")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))

	all := exec.all()
	require.Len(t, all, 1)
	require.Equal(t, []string{"last"}, all[0])
}

func TestQueueCloseWithoutStart(t *testing.T) {
	exec := newCaptureExecutor[string]()
	q := New[string](exec)
	q.Add("never flushed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
	require.Empty(t, exec.all())
}

func TestQueueSettersRejectNonPositive(t *testing.T) {
	exec := newCaptureExecutor[string]()
	q := New[string](exec)

	q.SetMaxBatchSize(0)
	q.SetMaxBatchSize(-5)
	require.Equal(t, DefaultMaxBatchSize, q.MaxBatchSize())

	q.SetFlushInterval(0)
	q.SetFlushInterval(-time.Second)
	require.Equal(t, DefaultFlushInterval, q.FlushInterval())

	q.SetMaxBatchSize(10)
	q.SetFlushInterval(time.Minute)
	require.Equal(t, 10, q.MaxBatchSize())
	require.Equal(t, time.Minute, q.FlushInterval())
}

// No item is lost or duplicated across drains, for any interleaving of
// producers with the worker.
func TestQueueDrainExclusivity(t *testing.T) {
	exec := newCaptureExecutor[string]()
	exec.notify = make(chan []string, 1024)

	q := New[string](exec,
		WithPolicy[string](Policy{MaxBatchSize: 8, FlushInterval: 5 * time.Millisecond}),
	)
	q.Start()

	const producers = 4
	const perProducer = 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Add(fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))

	var got []string
	for _, batch := range exec.all() {
		got = append(got, batch...)
	}

	var want []string
	for p := 0; p < producers; p++ {
		for i := 0; i < perProducer; i++ {
			want = append(want, fmt.Sprintf("p%d-%d", p, i))
		}
	}

	sort.Strings(got)
	sort.Strings(want)
	require.Equal(t, want, got)
}
