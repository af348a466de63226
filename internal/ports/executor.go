package ports

import "context"

// TxExecutor runs a drained batch as a single transaction against the
// target store. Implementations must return exactly one outcome per call;
// the queue never retries a failed batch itself.
type TxExecutor[T any] interface {
	ExecuteBatch(ctx context.Context, batch []T) error
	Name() string
}
