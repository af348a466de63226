package membuf

import (
	"sync"

	"github.com/danielvallecillo77/DBFlow/internal/ports"
)

// MemBuffer is an unbounded in-memory buffer that preserves append order.
// All access goes through a single mutex; Swap hands the buffered slice to
// the caller wholesale so drained items are never re-read here.
type MemBuffer[T comparable] struct {
	mu   sync.Mutex
	data []T
}

func New[T comparable]() *MemBuffer[T] {
	return &MemBuffer[T]{}
}

func (b *MemBuffer[T]) Append(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, item)
}

func (b *MemBuffer[T]) AppendAll(items []T) {
	if len(items) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, items...)
}

func (b *MemBuffer[T]) Remove(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(item)
}

func (b *MemBuffer[T]) RemoveAll(items []T) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var removed int
	for _, item := range items {
		if b.removeLocked(item) {
			removed++
		}
	}
	return removed
}

// removeLocked drops the first occurrence only; duplicates stay buffered.
func (b *MemBuffer[T]) removeLocked(item T) bool {
	for i, held := range b.data {
		if held == item {
			b.data = append(b.data[:i], b.data[i+1:]...)
			return true
		}
	}
	return false
}

func (b *MemBuffer[T]) Swap() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.data
	b.data = nil
	return out
}

func (b *MemBuffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

var _ ports.Buffer[int] = (*MemBuffer[int])(nil)
