// Package cache holds rendered query responses for the HTTP server. It
// uses patrickmn/go-cache for TTL expiry. Every entry is bound to the
// catalog it was rendered from, so a hit after a publish is treated as a
// miss even if the entry has not been cleared yet.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/pricemap/pkg/pricing"
)

// Cache maps request keys to rendered bodies.
type Cache struct {
	store *gocache.Cache
}

type entry struct {
	catalog *pricing.Catalog
	body    []byte
}

// New creates a cache with the given TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns the body stored under key if it was rendered from catalog.
func (c *Cache) Get(key string, catalog *pricing.Catalog) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	e, ok := v.(entry)
	if !ok || e.catalog != catalog {
		return nil, false
	}
	return e.body, true
}

// Set stores body for key, rendered from catalog.
func (c *Cache) Set(key string, catalog *pricing.Catalog, body []byte) {
	c.store.Set(key, entry{catalog: catalog, body: body}, gocache.DefaultExpiration)
}

// Clear removes all items.
func (c *Cache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of items, including expired ones not yet
// cleaned up.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
