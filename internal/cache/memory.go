// Package cache implements the in-memory tile blob cache (C4) and the
// two-tier scratch cache used during block generation (C6).
package cache

import "sync"

// MemoryTileCache is a concurrent, unbounded, insertion-wins cache from
// tile identity key to encoded blob. A stored value is never mutated or
// replaced; a concurrent Store racing an existing entry is a no-op, and
// reads never block writers.
type MemoryTileCache struct {
	entries sync.Map // string -> []byte
}

// NewMemoryTileCache builds an empty cache.
func NewMemoryTileCache() *MemoryTileCache {
	return &MemoryTileCache{}
}

// Get returns the cached blob for key, if present.
func (c *MemoryTileCache) Get(key string) ([]byte, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// StoreIfAbsent inserts blob under key unless an entry already exists,
// returning the blob that is now authoritative for key (either the one
// just stored, or the one a racing caller stored first).
func (c *MemoryTileCache) StoreIfAbsent(key string, blob []byte) []byte {
	actual, _ := c.entries.LoadOrStore(key, blob)
	return actual.([]byte)
}
