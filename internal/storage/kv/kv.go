// Package kv defines the minimal key-value backend the profile index is stored in.
package kv

import (
	"context"
	"maps"
	"sync"
)

// Store is an embedded key-value backend.
// Get returns a nil value and no error when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Insert(ctx context.Context, key string, value []byte) error
	ApplyBatch(ctx context.Context, batch *Batch) error
}

// Op is a single write within a Batch
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// Batch collects writes that are applied atomically
type Batch struct {
	ops []Op
}

// Insert queues a write of value under key
func (b *Batch) Insert(key string, value []byte) {
	b.ops = append(b.ops, Op{Key: key, Value: value})
}

// Remove queues a delete of key
func (b *Batch) Remove(key string) {
	b.ops = append(b.ops, Op{Key: key, Delete: true})
}

// Ops returns the queued writes in order
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len returns the number of queued writes
func (b *Batch) Len() int {
	return len(b.ops)
}

// Memory is an in-process Store, used in tests and for ephemeral sessions
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Insert stores a copy of value under key
func (m *Memory) Insert(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// ApplyBatch applies all queued writes under one lock
func (m *Memory) ApplyBatch(_ context.Context, batch *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := maps.Clone(m.data)
	for _, op := range batch.Ops() {
		if op.Delete {
			delete(next, op.Key)
			continue
		}
		next[op.Key] = append([]byte(nil), op.Value...)
	}
	m.data = next
	return nil
}
