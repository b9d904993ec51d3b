package cube

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBucketRangeRead(t *testing.T) {
	b := newMockBucket(map[string][]byte{
		"0.0.0.bin": {1, 2, 3, 4, 5, 6, 7, 8},
	})

	rc, err := b.NewRangeReader(context.Background(), "0.0.0.bin", 2, 4)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5, 6}, got)
}

func TestMockBucketMissingKey(t *testing.T) {
	b := newMockBucket(nil)
	_, err := b.NewRangeReader(context.Background(), "missing.bin", 0, 1)
	assert.Error(t, err)
}

func TestMockBucketOutOfRange(t *testing.T) {
	b := newMockBucket(map[string][]byte{"a": {1, 2, 3}})
	_, err := b.NewRangeReader(context.Background(), "a", 0, 10)
	assert.Error(t, err)
}

func TestChunkKey(t *testing.T) {
	assert.Equal(t, "1.2.3.bin", chunkKey("", 1, 2, 3))
	assert.Equal(t, "raw/1.2.3.bin", chunkKey("raw", 1, 2, 3))
	assert.Equal(t, "raw/1.2.3.bin", chunkKey("raw/", 1, 2, 3))
}
