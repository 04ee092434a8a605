// Package memory provides an in-memory implementation of the repository.
package memory

import (
	"context"
	"sync"
)

type txKey struct{}

// TxManager serialises every transaction behind one process-wide mutex.
// Nested WithTx calls on a ctx that already carries a transaction run
// inline. Nothing is rolled back on error, so callers validate before
// they mutate or undo their own writes.
type TxManager struct {
	mu sync.Mutex
}

func NewTxManager() *TxManager {
	return &TxManager{}
}

func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, m))
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func removeString(list []string, v string) []string {
	for i, item := range list {
		if item == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
