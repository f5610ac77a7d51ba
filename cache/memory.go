package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/morkit/eigo/vector"
)

// Memory is the default in-process Region. Values live for the lifetime of
// the region instance.
type Memory struct {
	mu    sync.RWMutex
	items map[Key]vector.Array
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Region = (*Memory)(nil)

// NewMemory creates an empty in-memory region.
func NewMemory() *Memory {
	return &Memory{items: make(map[Key]vector.Array)}
}

func (m *Memory) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (vector.Array, error) {
	m.mu.RLock()
	v, ok := m.items[key]
	m.mu.RUnlock()
	if ok {
		m.hits.Add(1)
		return v, nil
	}

	// singleflight collapses racing first accesses so compute runs at most
	// once per key even with concurrent callers.
	res, err, _ := m.group.Do(key.String(), func() (any, error) {
		m.mu.RLock()
		v, ok := m.items[key]
		m.mu.RUnlock()
		if ok {
			m.hits.Add(1)
			return v, nil
		}

		m.misses.Add(1)
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.items[key] = v
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(vector.Array), nil
}

func (m *Memory) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

func (m *Memory) Close() error { return nil }
