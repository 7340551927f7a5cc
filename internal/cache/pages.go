// Package cache provides a bounded-TTL cache for fetched page payloads,
// keyed by URL hash. Re-verifying an answer's links inside the TTL window
// reuses page text instead of refetching the page.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// PageCache is an in-memory TTL cache for serialized fetch results. It is an
// explicit service object: construct one and hand it to the fetcher rather
// than sharing process-wide state.
type PageCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewPageCache creates a page cache with the given TTL and cleanup interval.
// Returns nil when ttl is zero or negative, which callers treat as caching
// disabled.
func NewPageCache(ttl, cleanupInterval time.Duration) *PageCache {
	if ttl <= 0 {
		return nil
	}
	if cleanupInterval <= 0 {
		cleanupInterval = ttl
	}
	return &PageCache{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
	}
}

// Get returns the cached payload for a URL.
func (c *PageCache) Get(url string) ([]byte, bool) {
	if val, found := c.cache.Get(Key(url)); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores the payload for a URL under the cache's TTL.
func (c *PageCache) Set(url string, payload []byte) {
	c.cache.Set(Key(url), payload, c.ttl)
}

// Flush drops every cached page.
func (c *PageCache) Flush() {
	c.cache.Flush()
}

// Key derives the cache key for a URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "linkproof:v1:" + hex.EncodeToString(hash[:])
}
