package dbflow

import (
	"database/sql"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	base "github.com/danielvallecillo77/DBFlow/pkg/dbflow"
)

// Re-exported errors for convenience.
var ErrChannelExecutorClosed = base.ErrChannelExecutorClosed

// Defaults of the flush policy.
const (
	DefaultMaxBatchSize  = base.DefaultMaxBatchSize
	DefaultFlushInterval = base.DefaultFlushInterval
)

// Type aliases so consumers can import github.com/danielvallecillo77/DBFlow
// directly.
type (
	Config         = base.Config
	QueueConfig    = base.QueueConfig
	PostgresConfig = base.PostgresConfig
	MetricsConfig  = base.MetricsConfig
	Duration       = base.Duration
	Policy         = base.Policy

	Flow          = base.Flow
	Runtime       = base.Runtime
	RuntimeOption = base.RuntimeOption

	Model         = base.Model
	Observability = base.Observability
	Field         = base.Field
	ModelWriter   = base.ModelWriter

	EmptyCycleListener = base.EmptyCycleListener
)

// Generic aliases.
type (
	Queue[T comparable]       = base.Queue[T]
	QueueOption[T comparable] = base.QueueOption[T]
	BatchResult[T any]        = base.BatchResult[T]
	SuccessListener[T any]    = base.SuccessListener[T]
	ErrorListener[T any]      = base.ErrorListener[T]
	TxExecutor[T any]         = base.TxExecutor[T]
	Buffer[T comparable]      = base.Buffer[T]
	BatchFunc[T any]          = base.BatchFunc[T]
	ItemWriter[T any]         = base.ItemWriter[T]
	TxRunner[T any]           = base.TxRunner[T]
	Requeuer[T comparable]    = base.Requeuer[T]
)

// Queue construction.
func New[T comparable](exec TxExecutor[T], opts ...QueueOption[T]) *Queue[T] {
	return base.New(exec, opts...)
}

func WithBuffer[T comparable](buf Buffer[T]) QueueOption[T] {
	return base.WithBuffer(buf)
}

func WithObservability[T comparable](obs Observability) QueueOption[T] {
	return base.WithObservability[T](obs)
}

func WithClock[T comparable](clock clockwork.Clock) QueueOption[T] {
	return base.WithClock[T](clock)
}

func WithPolicy[T comparable](pol Policy) QueueOption[T] {
	return base.WithPolicy[T](pol)
}

func WithSuccessListener[T comparable](fn SuccessListener[T]) QueueOption[T] {
	return base.WithSuccessListener(fn)
}

func WithErrorListener[T comparable](fn ErrorListener[T]) QueueOption[T] {
	return base.WithErrorListener(fn)
}

func WithEmptyCycleListener[T comparable](fn EmptyCycleListener) QueueOption[T] {
	return base.WithEmptyCycleListener[T](fn)
}

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Flow builder helpers.
func Conf(path string, opts ...RuntimeOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...RuntimeOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithExecutor(exec TxExecutor[*Model]) RuntimeOption {
	return base.WithExecutor(exec)
}

func WithRuntimeBuffer(buf Buffer[*Model]) RuntimeOption {
	return base.WithRuntimeBuffer(buf)
}

func WithRuntimeObservability(obs Observability) RuntimeOption {
	return base.WithRuntimeObservability(obs)
}

func WithRuntimeClock(clock clockwork.Clock) RuntimeOption {
	return base.WithRuntimeClock(clock)
}

func WithRegisterer(reg prometheus.Registerer) RuntimeOption {
	return base.WithRegisterer(reg)
}

func WithLogger(log *slog.Logger) RuntimeOption {
	return base.WithLogger(log)
}

// Executor adapters.
func NewCallbackExecutor[T any](name string, fn BatchFunc[T]) TxExecutor[T] {
	return base.NewCallbackExecutor(name, fn)
}

func NewChannelExecutor[T any](name string, buffer int) (TxExecutor[T], <-chan []T, func()) {
	return base.NewChannelExecutor[T](name, buffer)
}

func NewTxRunner[T any](db *sql.DB, writer ItemWriter[T]) *TxRunner[T] {
	return base.NewTxRunner(db, writer)
}

func NewModelWriter(table string) *ModelWriter {
	return base.NewModelWriter(table)
}

// Retry.
func NewRequeuer[T comparable](q *Queue[T], bo backoff.BackOff) *Requeuer[T] {
	return base.NewRequeuer(q, bo)
}
