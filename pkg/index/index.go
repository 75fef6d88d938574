// Package index caches reverse lookups from objects to their index paths.
package index

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aretw0/collist/pkg/core"
)

// Cache remembers IndexPathOf answers for the current snapshot of one collection.
// A zero size disables caching and every lookup scans the snapshot.
// Owners must call Reset whenever they replace their snapshot.
type Cache[T comparable] struct {
	lru *lru.Cache[T, lookup]
}

type lookup struct {
	path  core.IndexPath
	found bool
}

// New creates a cache holding up to size entries.
func New[T comparable](size int) *Cache[T] {
	c := &Cache[T]{}
	if size > 0 {
		// lru.New only fails for a non-positive size.
		c.lru, _ = lru.New[T, lookup](size)
	}
	return c
}

// Lookup returns the position of obj in snap, consulting the cache first.
func (c *Cache[T]) Lookup(snap core.Snapshot[T], obj T) (core.IndexPath, bool) {
	if c == nil || c.lru == nil {
		return snap.IndexPathOf(obj)
	}
	if hit, ok := c.lru.Get(obj); ok {
		return hit.path, hit.found
	}
	path, found := snap.IndexPathOf(obj)
	c.lru.Add(obj, lookup{path: path, found: found})
	return path, found
}

// Reset drops every cached entry.
func (c *Cache[T]) Reset() {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Purge()
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
