package dbflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

func constantBackoff(d time.Duration) backoff.BackOff {
	return backoff.NewConstantBackOff(d)
}

func TestRequeuerReaddsFailedBatch(t *testing.T) {
	exec := newCaptureExecutor[string]()
	q := New[string](exec,
		WithPolicy[string](Policy{MaxBatchSize: 2, FlushInterval: time.Hour}),
	)

	r := NewRequeuer[string](q, constantBackoff(10*time.Millisecond))
	r.Install()

	exec.setError(errors.New("connection refused"))
	q.Start()
	q.AddAll([]string{"a", "b"})
	exec.waitBatch(t)

	// After the backoff delay the same items come back through the queue.
	exec.setError(nil)
	batch := exec.waitBatch(t)
	require.ElementsMatch(t, []string{"a", "b"}, batch)

	closeQueue(t, q)
}

func TestRequeuerStopDropsBatch(t *testing.T) {
	exec := newCaptureExecutor[string]()
	q := New[string](exec,
		WithPolicy[string](Policy{MaxBatchSize: 1, FlushInterval: time.Hour}),
	)

	r := NewRequeuer[string](q, &backoff.StopBackOff{})
	r.Install()

	exec.setError(errors.New("permanent"))
	q.Start()
	q.Add("dropped")
	exec.waitBatch(t)

	select {
	case <-exec.notify:
		t.Fatal("batch was requeued despite a stop policy")
	case <-time.After(100 * time.Millisecond):
	}
	require.Zero(t, q.Len())

	closeQueue(t, q)
}

func TestRequeuerResetsOnSuccess(t *testing.T) {
	exec := newCaptureExecutor[string]()
	q := New[string](exec)

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = time.Millisecond
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	r := NewRequeuer[string](q, eb)

	// Walk the backoff forward, then confirm a committed batch rewinds it.
	first := eb.NextBackOff()
	_ = eb.NextBackOff()
	_ = eb.NextBackOff()

	r.OnSuccess(&BatchResult[string]{Seq: 1})
	require.LessOrEqual(t, eb.NextBackOff(), first*2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
}

func TestNewRequeuerDefaultPolicy(t *testing.T) {
	q := New[string](newCaptureExecutor[string]())
	r := NewRequeuer[string](q, nil)
	require.NotNil(t, r.bo)
}
