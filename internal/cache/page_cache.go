// Package cache keeps rendered pages for a fixed time. Entries are never
// invalidated by writes; readers accept staleness up to the TTL.
package cache

import (
	"fmt"
	"time"

	"github.com/anonto42/yatube/internal/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL is how long the index feed is served from cache.
const DefaultTTL = 20 * time.Second

// defaultSize bounds the number of distinct pages kept.
const defaultSize = 1024

// PageCache maps a page key to the bytes rendered for it.
type PageCache struct {
	name    string
	entries *expirable.LRU[string, []byte]
}

// NewPageCache creates a cache whose entries expire ttl after being stored.
func NewPageCache(name string, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PageCache{
		name:    name,
		entries: expirable.NewLRU[string, []byte](defaultSize, nil, ttl),
	}
}

// Key builds the key of a page as seen by viewer (0 for anonymous).
func (c *PageCache) Key(viewerID uint, requestURI string) string {
	return fmt.Sprintf("%s:%d:%s", c.name, viewerID, requestURI)
}

// Get returns the stored page if it has not expired.
func (c *PageCache) Get(key string) ([]byte, bool) {
	body, ok := c.entries.Get(key)
	if ok {
		metrics.CacheHit(c.name)
	} else {
		metrics.CacheMiss(c.name)
	}
	return body, ok
}

// Set stores body under key, restarting its TTL.
func (c *PageCache) Set(key string, body []byte) {
	c.entries.Add(key, body)
}

// Clear drops every entry.
func (c *PageCache) Clear() {
	c.entries.Purge()
}

// Len counts entries, expired ones included until they are reaped.
func (c *PageCache) Len() int {
	return c.entries.Len()
}
