package ports

// Buffer holds items awaiting persistence. Implementations must be safe for
// concurrent use; callers never read buffered items except through Swap.
type Buffer[T comparable] interface {
	// Append adds one item, preserving arrival order.
	Append(item T)
	// AppendAll adds a sequence of items as one atomic operation.
	AppendAll(items []T)
	// Remove drops the first occurrence of item, reporting whether it was found.
	Remove(item T) bool
	// RemoveAll drops the first occurrence of each given item and returns
	// how many were found.
	RemoveAll(items []T) int
	// Swap atomically replaces the buffered contents with an empty buffer
	// and returns what was held.
	Swap() []T
	// Len returns the number of buffered items.
	Len() int
}
