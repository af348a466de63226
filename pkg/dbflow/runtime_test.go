package dbflow

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/danielvallecillo77/DBFlow/internal/domain"
)

func testConfig() *Config {
	return &Config{
		Queue: QueueConfig{
			MaxBatchSize:  2,
			FlushInterval: Duration(time.Hour),
		},
		Postgres: PostgresConfig{
			ConnString: "postgres://localhost/dbflow_test?sslmode=disable",
			Table:      "models",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:0",
		},
	}
}

func TestNewRuntimeRequiresConfig(t *testing.T) {
	_, err := NewRuntime(nil)
	require.Error(t, err)
}

func TestRuntimeUsesExecutorOverride(t *testing.T) {
	exec := newCaptureExecutor[*domain.Model]()
	exec.notify = make(chan []*domain.Model, 4)

	rt, err := NewRuntime(testConfig(),
		WithExecutor(exec),
		WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	require.NotNil(t, rt.Queue())
	require.NoError(t, rt.Start())

	rt.Queue().Add(&domain.Model{Key: "m1", Kind: "sensor"})
	rt.Queue().Add(&domain.Model{Key: "m2", Kind: "sensor"})

	batch := exec.waitBatch(t)
	require.Len(t, batch, 2)
	require.Equal(t, "m1", batch[0].Key)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rt.Shutdown(ctx))
}

func TestRuntimeRunStopsOnContextCancel(t *testing.T) {
	exec := newCaptureExecutor[*domain.Model]()
	exec.notify = make(chan []*domain.Model, 4)

	rt, err := NewRuntime(testConfig(),
		WithExecutor(exec),
		WithRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	rt.Queue().Add(&domain.Model{Key: "pending", Kind: "sensor"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// Shutdown flushed the buffered model before stopping.
	batch := exec.waitBatch(t)
	require.Equal(t, "pending", batch[0].Key)
}

