package cache

import (
	"path/filepath"
	"testing"

	"github.com/lexcube/lexcube-go/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTileCacheInsertionWins(t *testing.T) {
	c := NewMemoryTileCache()
	actual := c.StoreIfAbsent("k", []byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, actual)

	actual = c.StoreIfAbsent("k", []byte{9, 9, 9})
	assert.Equal(t, []byte{1, 2, 3}, actual, "second store must not replace the first")

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestMemoryGenerationCache(t *testing.T) {
	c := NewMemoryGenerationCache()
	id := tile.Identity{DatasetID: "d", Parameter: "p", Axis: tile.AxisZ, SliceIndex: 0, LoD: 0, TX: 1, TY: 2}

	_, ok := c.Get(id)
	assert.False(t, ok)

	require.NoError(t, c.Put(id, []byte{1, 2}))
	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2}, got)
}

func TestDiskGenerationCache(t *testing.T) {
	root := t.TempDir()
	c := NewDiskGenerationCache(root)
	id := tile.Identity{DatasetID: "d", Parameter: "p", Axis: tile.AxisY, SliceIndex: 3, LoD: 1, TX: 0, TY: 0}

	_, ok := c.Get(id)
	assert.False(t, ok)

	require.NoError(t, c.Put(id, []byte{5, 6, 7}))
	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Equal(t, []byte{5, 6, 7}, got)

	expected := filepath.Join(root, "d", "p", "y", "3.1.0.0.tile")
	assert.FileExists(t, expected)
}
