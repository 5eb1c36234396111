// Package cache keeps the fetch validators between cycles, and optionally
// between restarts.
package cache

import (
	"context"
	"sync"

	"catalog-watcher/fetcher"
)

// ValidatorCache stores the last validator tokens seen for the watched URL
type ValidatorCache interface {
	Load(ctx context.Context) (fetcher.Validators, error)
	Store(ctx context.Context, v fetcher.Validators) error
}

// Memory is the default in-process cache. A restart forces one unconditional fetch.
type Memory struct {
	mu sync.Mutex
	v  fetcher.Validators
}

var _ ValidatorCache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) (fetcher.Validators, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v, nil
}

func (m *Memory) Store(ctx context.Context, v fetcher.Validators) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v = v
	return nil
}
