package mock

import (
	"context"
	"sync"

	"github.com/fwojciec/catalogqa"
)

var _ catalogqa.Cache = (*Cache)(nil)

// Cache is a mock implementation of catalogqa.Cache.
type Cache struct {
	GetFn    func(ctx context.Context, key, field string) ([]byte, error)
	SetFn    func(ctx context.Context, key, field string, value []byte) error
	GetAllFn func(ctx context.Context, key string) (map[string][]byte, error)
}

func (c *Cache) Get(ctx context.Context, key, field string) ([]byte, error) {
	return c.GetFn(ctx, key, field)
}

func (c *Cache) Set(ctx context.Context, key, field string, value []byte) error {
	return c.SetFn(ctx, key, field, value)
}

func (c *Cache) GetAll(ctx context.Context, key string) (map[string][]byte, error) {
	return c.GetAllFn(ctx, key)
}

var _ catalogqa.Cache = (*MemoryCache)(nil)

// MemoryCache is an in-memory catalogqa.Cache that records writes.
type MemoryCache struct {
	mu     sync.Mutex
	data   map[string]map[string][]byte
	writes int
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, key, field string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.data[key][field]
	if !ok {
		return nil, catalogqa.Errorf(catalogqa.ENOTFOUND, "cache field %s/%s not found", key, field)
	}
	return append([]byte(nil), value...), nil
}

func (c *MemoryCache) Set(_ context.Context, key, field string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data[key] == nil {
		c.data[key] = make(map[string][]byte)
	}
	c.data[key][field] = append([]byte(nil), value...)
	c.writes++
	return nil
}

func (c *MemoryCache) GetAll(_ context.Context, key string) (map[string][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := make(map[string][]byte, len(c.data[key]))
	for field, value := range c.data[key] {
		fields[field] = append([]byte(nil), value...)
	}
	return fields, nil
}

// Writes returns the number of Set calls so far.
func (c *MemoryCache) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Keys returns the number of keys holding at least one field.
func (c *MemoryCache) Keys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
