package domain

import "time"

// Model is the canonical unit of persistence in DBFlow: one object save
// request, keyed and versioned, destined for a single table row.
type Model struct {
	Key       string         `json:"key"`
	Kind      string         `json:"kind"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt time.Time      `json:"updated_at"`
	Revision  uint64         `json:"revision"`
}
