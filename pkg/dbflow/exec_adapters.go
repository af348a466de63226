package dbflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// ErrChannelExecutorClosed is returned when a batch is submitted to a
// channel executor after its close function has run.
var ErrChannelExecutorClosed = errors.New("dbflow: channel executor closed")

// BatchFunc is invoked with each drained batch.
type BatchFunc[T any] func(batch []T) error

// NewCallbackExecutor adapts a plain function into a ports.TxExecutor so
// callers can persist batches without defining structs.
func NewCallbackExecutor[T any](name string, fn BatchFunc[T]) ports.TxExecutor[T] {
	if name == "" {
		name = "callback"
	}
	return &callbackExecutor[T]{name: name, fn: fn}
}

// NewChannelExecutor exposes drained batches via a channel; it returns the
// executor, the read-only channel, and a close function the caller should
// invoke during shutdown.
func NewChannelExecutor[T any](name string, buffer int) (ports.TxExecutor[T], <-chan []T, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []T, buffer)
	e := &channelExecutor[T]{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return e, ch, func() { e.close() }
}

type callbackExecutor[T any] struct {
	name string
	fn   BatchFunc[T]
}

func (e *callbackExecutor[T]) ExecuteBatch(ctx context.Context, batch []T) error {
	if e.fn == nil {
		return fmt.Errorf("callback executor %q: nil handler", e.name)
	}
	if len(batch) == 0 {
		return nil
	}
	return e.fn(batch)
}

func (e *callbackExecutor[T]) Name() string { return e.name }

type channelExecutor[T any] struct {
	name   string
	ch     chan []T
	closed chan struct{}
	once   sync.Once
}

func (e *channelExecutor[T]) ExecuteBatch(ctx context.Context, batch []T) error {
	select {
	case <-e.closed:
		return ErrChannelExecutorClosed
	default:
	}

	if len(batch) == 0 {
		return nil
	}

	select {
	case <-e.closed:
		return ErrChannelExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case e.ch <- batch:
		return nil
	}
}

func (e *channelExecutor[T]) Name() string { return e.name }

func (e *channelExecutor[T]) close() {
	e.once.Do(func() {
		close(e.closed)
		close(e.ch)
	})
}
