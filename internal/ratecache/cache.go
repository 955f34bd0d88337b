// Package ratecache provides a process-local TTL cache for rate responses.
package ratecache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Cache is an in-memory TTL cache keyed by a request fingerprint. Entries
// expire lazily on read; nothing is persisted across restarts.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	results   []*carrier.RateResponse
	expiresAt time.Time
}

// New creates a cache with the given entry lifetime. A non-positive TTL
// disables caching: Get always misses and Set is a no-op.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Key derives a stable fingerprint for a request against a carrier set.
func Key(carriers []string, req *carrier.RateRequest) string {
	sorted := append([]string(nil), carriers...)
	sort.Strings(sorted)

	payload, _ := json.Marshal(struct {
		Carriers []string
		Request  *carrier.RateRequest
	}{sorted, req})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached results for key, if present and unexpired.
func (c *Cache) Get(key string) ([]*carrier.RateResponse, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.results, true
}

// Set stores results under key for the cache TTL.
func (c *Cache) Set(key string, results []*carrier.RateResponse) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		results:   results,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Purge removes all entries.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
