package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// PromObs implements ports.Observability with Prometheus metrics and slog.
type PromObs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the DBFlow metric set with reg. A nil registerer
// falls back to the default one, a nil logger to slog.Default.
func NewPromObs(reg prometheus.Registerer, log *slog.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if log == nil {
		log = slog.Default()
	}

	factory := promauto.With(reg)

	flushes := factory.NewCounter(prometheus.CounterOpts{
		Name: "dbflow_flushes_total",
		Help: "Total batches submitted to the transaction executor.",
	})
	flushErrors := factory.NewCounter(prometheus.CounterOpts{
		Name: "dbflow_flush_errors_total",
		Help: "Total batch transactions reported as failed by the executor.",
	})
	emptyCycles := factory.NewCounter(prometheus.CounterOpts{
		Name: "dbflow_empty_cycles_total",
		Help: "Flush cycles that found an empty pending buffer.",
	})
	itemsPersisted := factory.NewCounter(prometheus.CounterOpts{
		Name: "dbflow_items_persisted_total",
		Help: "Total items written through successful batch transactions.",
	})
	pending := factory.NewGauge(prometheus.GaugeOpts{
		Name: "dbflow_pending_items",
		Help: "Current number of items awaiting the next flush.",
	})
	latency := factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbflow_flush_latency_seconds",
		Help:    "Time from batch hand-off to transaction outcome.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	batchSize := factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbflow_batch_size",
		Help:    "Number of items per drained batch.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	return &PromObs{
		log: log,
		counters: map[string]prometheus.Counter{
			"dbflow_flushes_total":         flushes,
			"dbflow_flush_errors_total":    flushErrors,
			"dbflow_empty_cycles_total":    emptyCycles,
			"dbflow_items_persisted_total": itemsPersisted,
		},
		gauges: map[string]prometheus.Gauge{
			"dbflow_pending_items": pending,
		},
		histos: map[string]prometheus.Observer{
			"dbflow_flush_latency_seconds": latency,
			"dbflow_batch_size":            batchSize,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, fieldArgs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	args := append(fieldArgs(fields), "err", err)
	p.log.Error(msg, args...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) Observe(name string, v float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordFlushFailure(seq uint64, size int, err error) {
	p.IncCounter("dbflow_flush_errors_total", 1)
	p.log.Error("batch flush failed", "seq", seq, "items", size, "err", err)
}

func fieldArgs(fields []ports.Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

var _ ports.Observability = (*PromObs)(nil)
