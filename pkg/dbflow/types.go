package dbflow

import (
	"database/sql"

	"github.com/danielvallecillo77/DBFlow/internal/adapters/sqlexec"
	"github.com/danielvallecillo77/DBFlow/internal/domain"
	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// Model is the unit of persistence handled by the default runtime. It
// mirrors internal/domain.Model but is exported so custom adapters can
// reference it.
type Model = domain.Model

// TxExecutor runs a drained batch as a single transaction.
type TxExecutor[T any] = ports.TxExecutor[T]

// Buffer is the mutex-guarded container holding items awaiting a flush.
type Buffer[T comparable] = ports.Buffer[T]

// Observability emits metrics and logs about flush outcomes.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// ItemWriter persists one item inside an open SQL transaction.
type ItemWriter[T any] = sqlexec.ItemWriter[T]

// TxRunner is the SQL batch-transaction executor.
type TxRunner[T any] = sqlexec.TxRunner[T]

// ModelWriter is the default per-model SQL upsert strategy.
type ModelWriter = sqlexec.ModelWriter

// NewTxRunner builds a SQL executor that writes each batch item through
// writer inside one transaction.
func NewTxRunner[T any](db *sql.DB, writer ItemWriter[T]) *TxRunner[T] {
	return sqlexec.NewTxRunner(db, writer)
}

// NewModelWriter builds the default per-model upsert strategy for table.
func NewModelWriter(table string) *ModelWriter {
	return sqlexec.NewModelWriter(table)
}
