package cube

import "context"

// SliceReader is a ChunkReader backed by a single in-memory Matrix3D,
// sliced on demand per requested chunk. It exists for tests and for small
// datasets that fit comfortably in memory without a backing store.
type SliceReader struct {
	data *Matrix3D
	grid ChunkGrid
}

// NewSliceReader wraps data as a ChunkReader, chunked per grid. data's
// shape must equal grid.Shape().
func NewSliceReader(data *Matrix3D, grid ChunkGrid) *SliceReader {
	return &SliceReader{data: data, grid: grid}
}

// ReadChunk implements ChunkReader.
func (r *SliceReader) ReadChunk(_ context.Context, cz, cy, cx int) (*Matrix3D, error) {
	z0, z1 := r.grid.Z[cz], r.grid.Z[cz+1]
	y0, y1 := r.grid.Y[cy], r.grid.Y[cy+1]
	x0, x1 := r.grid.X[cx], r.grid.X[cx+1]
	out := NewMatrix3D(z1-z0, y1-y0, x1-x0)
	out.CopyFrom(r.data, [3]int{z0, y0, x0}, [3]int{0, 0, 0}, [3]int{z1 - z0, y1 - y0, x1 - x0})
	return out, nil
}
