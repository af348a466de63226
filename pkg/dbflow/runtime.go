package dbflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielvallecillo77/DBFlow/internal/adapters/observability"
	"github.com/danielvallecillo77/DBFlow/internal/adapters/sqlexec"
	"github.com/danielvallecillo77/DBFlow/internal/domain"
	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	executor   ports.TxExecutor[*domain.Model]
	buffer     ports.Buffer[*domain.Model]
	obs        ports.Observability
	clock      clockwork.Clock
	registerer prometheus.Registerer
	logger     *slog.Logger
}

// WithExecutor injects a custom transaction executor so batches can be
// written to any store or API instead of Postgres.
func WithExecutor(exec ports.TxExecutor[*domain.Model]) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.executor = exec
	}
}

// WithRuntimeBuffer injects a custom pending-buffer implementation.
func WithRuntimeBuffer(buf ports.Buffer[*domain.Model]) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.buffer = buf
	}
}

// WithRuntimeObservability plugs in a custom observability backend.
func WithRuntimeObservability(obs ports.Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.obs = obs
	}
}

// WithRuntimeClock overrides the clock driving the flush interval.
func WithRuntimeClock(clock clockwork.Clock) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.clock = clock
	}
}

// WithRegisterer selects the Prometheus registerer for the default metrics.
func WithRegisterer(reg prometheus.Registerer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.registerer = reg
	}
}

// WithLogger sets the logger used by the default observability backend.
func WithLogger(log *slog.Logger) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logger = log
	}
}

// Runtime wires a model queue to its default adapters (Postgres transaction
// executor, Prometheus observability, metrics HTTP server) and exposes
// simple lifecycle hooks for embedding DBFlow inside any Go service.
type Runtime struct {
	cfg   *Config
	queue *Queue[*domain.Model]
	obs   ports.Observability

	db          *sql.DB
	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
}

// NewRuntime bootstraps the default adapters. RuntimeOption values can
// override any dependency and point the queue at custom executors, buffers,
// or telemetry backends.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.obs
	if obs == nil {
		obs = observability.NewPromObs(overrides.registerer, overrides.logger)
	}

	var (
		db   *sql.DB
		exec ports.TxExecutor[*domain.Model]
		err  error
	)
	if overrides.executor != nil {
		exec = overrides.executor
	} else {
		db, err = sql.Open("postgres", cfg.Postgres.ConnString)
		if err != nil {
			return nil, err
		}
		exec = sqlexec.NewTxRunner[*domain.Model](db, sqlexec.NewModelWriter(cfg.Postgres.Table))
	}

	qopts := []QueueOption[*domain.Model]{
		WithPolicy[*domain.Model](cfg.Policy()),
		WithObservability[*domain.Model](obs),
	}
	if overrides.buffer != nil {
		qopts = append(qopts, WithBuffer(overrides.buffer))
	}
	if overrides.clock != nil {
		qopts = append(qopts, WithClock[*domain.Model](overrides.clock))
	}

	return &Runtime{
		cfg:   cfg,
		queue: New(exec, qopts...),
		obs:   obs,
		db:    db,
	}, nil
}

// Queue exposes the underlying queue so callers can add models and install
// listeners.
func (r *Runtime) Queue() *Queue[*domain.Model] {
	return r.queue
}

// Start launches the queue worker and the metrics endpoint. It returns
// immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.queue.Start()
	r.startMetrics()
	return nil
}

// Run starts the runtime and blocks until the provided context is
// cancelled, then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown flushes and stops the queue, then stops the metrics server and
// closes the DB connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
	}

	if err := r.queue.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics server exited", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordPendingGauge(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordPendingGauge(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge("dbflow_pending_items", float64(r.queue.Len()))
		}
	}
}
