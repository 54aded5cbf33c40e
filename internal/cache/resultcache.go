// Package cache provides bounded, TTL-based memoization of analysis results
// keyed by content hash. A changed file hashes differently and is a miss even
// under the same path, so staleness never requires explicit invalidation —
// bounded size and TTL exist to cap memory, not to enforce freshness.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Defaults applied when the corresponding constructor argument is zero.
const (
	DefaultMaxEntries = 500
	DefaultTTL        = 30 * time.Minute
)

// Key identifies one cached analysis result. Equality requires an exact
// match on every component, including ContentHash.
type Key struct {
	Path        string
	Kind        string
	ContentHash string
	ConfigHash  string
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
}

// ResultCache memoizes analysis results with LRU displacement at capacity
// and time-based expiry on read. There is no single-flight de-duplication:
// two concurrent misses for the same key both compute and both Set; the last
// writer wins.
type ResultCache struct {
	lru     *expirable.LRU[Key, json.RawMessage]
	maxSize int

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// New creates a cache holding at most maxEntries results, each readable for
// at most ttl after insertion. Zero arguments select the defaults.
func New(maxEntries int, ttl time.Duration) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		lru:     expirable.NewLRU[Key, json.RawMessage](maxEntries, nil, ttl),
		maxSize: maxEntries,
	}
}

// Get returns the cached value for the key, counting a hit or miss. Expired
// entries are misses even when size-based eviction has not reached them.
func (c *ResultCache) Get(path, kind, contentHash, configHash string) (json.RawMessage, bool) {
	val, ok := c.lru.Get(Key{path, kind, contentHash, configHash})

	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	return val, ok
}

// Set stores a value, displacing the least-recently-used entry at capacity.
func (c *ResultCache) Set(path, kind, contentHash, configHash string, value json.RawMessage) {
	c.lru.Add(Key{path, kind, contentHash, configHash}, value)
}

// Has reports whether the key holds a live entry, without updating recency
// or the hit/miss counters.
func (c *ResultCache) Has(path, kind, contentHash, configHash string) bool {
	_, ok := c.lru.Peek(Key{path, kind, contentHash, configHash})
	return ok
}

// Invalidate removes every entry for the given path, across all kinds and
// hashes, and returns how many were dropped.
func (c *ResultCache) Invalidate(path string) int {
	dropped := 0
	for _, k := range c.lru.Keys() {
		if k.Path == path && c.lru.Remove(k) {
			dropped++
		}
	}
	return dropped
}

// Clear empties the cache and resets the hit/miss counters.
func (c *ResultCache) Clear() {
	c.lru.Purge()
	c.mu.Lock()
	c.hits, c.misses = 0, 0
	c.mu.Unlock()
}

// GetStats returns a snapshot of the counters and current occupancy.
func (c *ResultCache) GetStats() Stats {
	c.mu.Lock()
	hits, misses := c.hits, c.misses
	c.mu.Unlock()

	s := Stats{
		Hits:    hits,
		Misses:  misses,
		Size:    c.lru.Len(),
		MaxSize: c.maxSize,
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// HashBytes returns the hex SHA-256 of data, the content hash used in keys.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex SHA-256 of the file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path resolved by caller
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
