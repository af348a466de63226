package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// ItemWriter persists a single item inside an open transaction. It is the
// per-object save strategy; TxRunner owns the transaction boundaries.
type ItemWriter[T any] interface {
	WriteItem(ctx context.Context, tx *sql.Tx, item T) error
}

// TxRunner executes a drained batch as one SQL transaction: begin, write
// each item through the ItemWriter, commit. Any item failure rolls back the
// whole batch.
type TxRunner[T any] struct {
	db     *sql.DB
	writer ItemWriter[T]
}

func NewTxRunner[T any](db *sql.DB, writer ItemWriter[T]) *TxRunner[T] {
	return &TxRunner[T]{db: db, writer: writer}
}

func (r *TxRunner[T]) Name() string { return "sql-tx" }

func (r *TxRunner[T]) ExecuteBatch(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}

	for _, item := range batch {
		if err := r.writer.WriteItem(ctx, tx, item); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				return errors.Join(err, rbErr)
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch tx: %w", err)
	}
	return nil
}

var _ ports.TxExecutor[int] = (*TxRunner[int])(nil)
