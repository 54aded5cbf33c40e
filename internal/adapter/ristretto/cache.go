// Package ristretto implements the cache port using dgraph-io/ristretto as
// the in-process raw-response cache. Admission is probabilistic, which is
// fine here: a rejected entry only costs a repeat tool invocation.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const (
	// defaultMaxCost bounds the cache when no budget is configured.
	defaultMaxCost = 64 << 20

	// avgResponseSize is the assumed mean size of a cached tool response,
	// used to size the admission counters at ~10x the expected item count.
	avgResponseSize = 256
)

// Cache stores raw tool responses keyed by request digest. Entry cost is the
// payload length, so the configured budget is a byte budget.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache holding at most maxCostBytes of payload. Non-positive
// selects defaultMaxCost.
func New(maxCostBytes int64) (*Cache, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = defaultMaxCost
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / avgResponseSize * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get returns the payload stored under key, if admitted and not expired.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores the payload under key with the given TTL. Admission is
// asynchronous and not guaranteed.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	return nil
}

// Delete drops the payload stored under key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Wait blocks until buffered writes have been applied. Only useful in tests;
// production callers tolerate the asynchronous admission.
func (c *Cache) Wait() {
	c.c.Wait()
}

// Close stops the cache's internal goroutines and releases its memory.
func (c *Cache) Close() {
	c.c.Close()
}
