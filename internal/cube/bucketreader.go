package cube

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// BucketReader is a ChunkReader that fetches raw chunk bodies from a
// Bucket, one object per chunk, named "{cz}.{cy}.{cx}.bin" under an
// optional prefix. Each object holds chunkZ*chunkY*chunkX little-endian
// values in row-major order, float64 when the reader's dtype is Float64
// and float32 otherwise; the reader does not assume a fixed
// chunk shape so that a ragged final chunk along any axis can be smaller.
type BucketReader struct {
	bucket   Bucket
	prefix   string
	grid     ChunkGrid
	dataType Dtype
}

// NewBucketReader builds a BucketReader over bucket, rooted at prefix,
// describing chunks laid out per grid.
func NewBucketReader(bucket Bucket, prefix string, grid ChunkGrid, dtype Dtype) *BucketReader {
	return &BucketReader{bucket: bucket, prefix: prefix, grid: grid, dataType: dtype}
}

func (r *BucketReader) chunkShape(cz, cy, cx int) [3]int {
	return [3]int{
		r.grid.Z[cz+1] - r.grid.Z[cz],
		r.grid.Y[cy+1] - r.grid.Y[cy],
		r.grid.X[cx+1] - r.grid.X[cx],
	}
}

// ReadChunk implements ChunkReader.
func (r *BucketReader) ReadChunk(ctx context.Context, cz, cy, cx int) (*Matrix3D, error) {
	shape := r.chunkShape(cz, cy, cx)
	n := shape[0] * shape[1] * shape[2]
	if n == 0 {
		return NewMatrix3D(shape[0], shape[1], shape[2]), nil
	}

	key := chunkKey(r.prefix, cz, cy, cx)
	elemSize := 4
	if r.dataType == Float64 {
		elemSize = 8
	}
	rc, err := r.bucket.NewRangeReader(ctx, key, 0, int64(n*elemSize))
	if err != nil {
		return nil, fmt.Errorf("cube: fetching chunk %s: %w", key, err)
	}
	defer rc.Close()

	raw := make([]byte, n*elemSize)
	if _, err := io.ReadFull(rc, raw); err != nil {
		return nil, fmt.Errorf("cube: reading chunk %s: %w", key, err)
	}

	data := make([]float64, n)
	if r.dataType == Float64 {
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			data[i] = math.Float64frombits(bits)
		}
	} else {
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			data[i] = float64(math.Float32frombits(bits))
		}
	}
	return &Matrix3D{Z: shape[0], Y: shape[1], X: shape[2], Data: data}, nil
}
