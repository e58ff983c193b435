package store

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memory is a Store in memory, values optionally expire.
type Memory struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemory returns a Memory store whose values never expire.
func NewMemory() *Memory {
	return &Memory{cache: cache.New(cache.NoExpiration, 0), ttl: cache.NoExpiration}
}

// NewExpiringMemory returns a Memory store whose values expire after ttl.
func NewExpiringMemory(ttl time.Duration) *Memory {
	return &Memory{cache: cache.New(ttl, 2*ttl), ttl: ttl}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v.([]byte)), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.cache.Set(key, slices.Clone(value), m.ttl)
	return nil
}
