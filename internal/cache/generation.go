package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lexcube/lexcube-go/internal/tile"
)

// GenerationCache is the C6 scratch store used while building a block
// file: it holds every tile generated for one (dataset, parameter, axis,
// slice_index) across all LoDs until BlockFile's build path drains it in
// canonical order. Both variants share this interface so the build
// driver does not care which one backs a given worker.
type GenerationCache interface {
	Get(id tile.Identity) ([]byte, bool)
	Put(id tile.Identity, blob []byte) error
}

// MemoryGenerationCache holds every generated tile in a map; used when
// the full tile set for one block comfortably fits in memory.
type MemoryGenerationCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryGenerationCache builds an empty MemoryGenerationCache.
func NewMemoryGenerationCache() *MemoryGenerationCache {
	return &MemoryGenerationCache{entries: make(map[string][]byte)}
}

func (c *MemoryGenerationCache) Get(id tile.Identity) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[id.Key()]
	return v, ok
}

func (c *MemoryGenerationCache) Put(id tile.Identity, blob []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id.Key()] = blob
	return nil
}

// DiskGenerationCache spills each tile to its own file under root, named
// "{dataset}/{parameter}/{axis}/{slice}.{lod}.{x}.{y}.tile". Used when
// the in-memory set would not fit - typically during bulk block builds
// spanning many slices.
type DiskGenerationCache struct {
	root string
}

// NewDiskGenerationCache builds a DiskGenerationCache rooted at root.
func NewDiskGenerationCache(root string) *DiskGenerationCache {
	return &DiskGenerationCache{root: root}
}

func (c *DiskGenerationCache) tilePath(id tile.Identity) string {
	dir := filepath.Join(c.root, id.DatasetID, id.Parameter, id.Axis.String())
	name := fmt.Sprintf("%d.%d.%d.%d.tile", id.SliceIndex, id.LoD, id.TX, id.TY)
	return filepath.Join(dir, name)
}

func (c *DiskGenerationCache) Get(id tile.Identity) ([]byte, bool) {
	data, err := os.ReadFile(c.tilePath(id))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *DiskGenerationCache) Put(id tile.Identity, blob []byte) error {
	path := c.tilePath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: creating directory for %s: %w", path, err)
	}
	return os.WriteFile(path, blob, 0o644)
}
