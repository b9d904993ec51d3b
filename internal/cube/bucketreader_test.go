package cube

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeChunk(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func TestBucketReaderReadChunk(t *testing.T) {
	grid := NewUniformChunkGrid([3]int{4, 4, 4}, [3]int{2, 2, 2})
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	bucket := newMockBucket(map[string][]byte{
		"raw/0.0.0.bin": encodeChunk(values),
	})
	reader := NewBucketReader(bucket, "raw", grid, Float64)

	chunk, err := reader.ReadChunk(context.Background(), 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, chunk.Z)
	assert.Equal(t, values, chunk.Data)
}

func TestBucketReaderMissingChunk(t *testing.T) {
	grid := NewUniformChunkGrid([3]int{2, 2, 2}, [3]int{2, 2, 2})
	bucket := newMockBucket(nil)
	reader := NewBucketReader(bucket, "", grid, Float64)

	_, err := reader.ReadChunk(context.Background(), 0, 0, 0)
	assert.Error(t, err)
}
