// Package storage provides the durable key-value store behind the debt and
// ledger collections. Each collection is serialized wholesale under a single
// key; every mutation rewrites its key completely.
package storage

import (
	"context"
	"sync"
)

// Collection keys used by the stores.
const (
	DebtsKey    = "debts"
	IncomesKey  = "incomes"
	ExpensesKey = "expenses"
)

// KV is the persistence port. Get reports ok=false when the key is absent,
// which callers treat as an empty collection.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// MemoryKV is the in-process backend, used as the default and in tests.
type MemoryKV struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.items[key] = stored
	return nil
}

func (m *MemoryKV) Close() error { return nil }
