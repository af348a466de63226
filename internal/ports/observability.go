package ports

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	Observe(name string, v float64)

	SetGauge(name string, v float64)

	RecordFlushFailure(seq uint64, size int, err error)
}

type Field struct {
	Key   string
	Value any
}
