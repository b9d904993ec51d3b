package cube

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingReader wraps a SliceReader and counts all ReadChunk calls, so
// tests can assert the proxy never re-fetches a cached chunk.
type countingReader struct {
	inner *SliceReader
	calls int64
}

func (r *countingReader) ReadChunk(ctx context.Context, cz, cy, cx int) (*Matrix3D, error) {
	atomic.AddInt64(&r.calls, 1)
	return r.inner.ReadChunk(ctx, cz, cy, cx)
}

func fullGrid(z, y, x, chunkZ, chunkY, chunkX int) ChunkGrid {
	return NewUniformChunkGrid([3]int{z, y, x}, [3]int{chunkZ, chunkY, chunkX})
}

func sequentialMatrix(z, y, x int) *Matrix3D {
	m := NewMatrix3D(z, y, x)
	v := 0.0
	for i := range m.Data {
		m.Data[i] = v
		v++
	}
	return m
}

func TestDataSourceProxyReadMatchesSource(t *testing.T) {
	grid := fullGrid(4, 10, 10, 2, 4, 4)
	truth := sequentialMatrix(4, 10, 10)
	reader := &countingReader{inner: NewSliceReader(truth, grid)}
	proxy := NewDataSourceProxy(NewUnlabeled(reader, grid, Float64))

	got, err := proxy.Read(context.Background(), Range{1, 3}, Range{2, 8}, Range{0, 5})
	require.NoError(t, err)

	want, err := proxy.Read(context.Background(), Range{0, 4}, Range{0, 10}, Range{0, 10})
	require.NoError(t, err)
	_ = want

	for z := 1; z < 3; z++ {
		for y := 2; y < 8; y++ {
			for x := 0; x < 5; x++ {
				assert.Equal(t, truth.At(z, y, x), got.At(z-1, y-2, x-0))
			}
		}
	}
}

func TestDataSourceProxyCachesChunks(t *testing.T) {
	grid := fullGrid(4, 10, 10, 2, 4, 4)
	truth := sequentialMatrix(4, 10, 10)
	reader := &countingReader{inner: NewSliceReader(truth, grid)}
	proxy := NewDataSourceProxy(NewUnlabeled(reader, grid, Float64))

	_, err := proxy.Read(context.Background(), Range{0, 2}, Range{0, 4}, Range{0, 4})
	require.NoError(t, err)
	firstCalls := atomic.LoadInt64(&reader.calls)
	assert.Equal(t, int64(1), firstCalls)

	_, err = proxy.Read(context.Background(), Range{0, 2}, Range{0, 4}, Range{0, 4})
	require.NoError(t, err)
	assert.Equal(t, firstCalls, atomic.LoadInt64(&reader.calls), "a repeated request must not re-fetch cached chunks")
}

func TestDataSourceProxyDegenerateRange(t *testing.T) {
	grid := fullGrid(4, 10, 10, 2, 4, 4)
	truth := sequentialMatrix(4, 10, 10)
	reader := &countingReader{inner: NewSliceReader(truth, grid)}
	proxy := NewDataSourceProxy(NewUnlabeled(reader, grid, Float64))

	got, err := proxy.Read(context.Background(), Single(2), Range{0, 10}, Range{0, 10})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Z)
	slice := got.Squeeze2D(0)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			assert.Equal(t, truth.At(2, y, x), slice.At(y, x))
		}
	}
}

func TestDataSourceProxyMalformedRangeErrors(t *testing.T) {
	grid := fullGrid(4, 10, 10, 2, 4, 4)
	truth := sequentialMatrix(4, 10, 10)
	reader := &countingReader{inner: NewSliceReader(truth, grid)}
	proxy := NewDataSourceProxy(NewUnlabeled(reader, grid, Float64))

	_, err := proxy.Read(context.Background(), Range{3, 1}, Range{0, 1}, Range{0, 1})
	require.Error(t, err)
	var invalid *InvalidRangeError
	assert.ErrorAs(t, err, &invalid)
}

func TestDataSourceProxyClampsOutOfBoundsRanges(t *testing.T) {
	grid := fullGrid(4, 10, 10, 2, 4, 4)
	truth := sequentialMatrix(4, 10, 10)
	reader := &countingReader{inner: NewSliceReader(truth, grid)}
	proxy := NewDataSourceProxy(NewUnlabeled(reader, grid, Float64))

	got, err := proxy.Read(context.Background(), Range{-5, 2}, Range{0, 1}, Range{8, 100})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Z)
	assert.Equal(t, 2, got.X, "request x range [8,100) clamps to [8,10)")
}

type flakyReader struct {
	inner *SliceReader
	fails int
}

func (r *flakyReader) ReadChunk(ctx context.Context, cz, cy, cx int) (*Matrix3D, error) {
	if r.fails > 0 {
		r.fails--
		return nil, assertErr
	}
	return r.inner.ReadChunk(ctx, cz, cy, cx)
}

var assertErr = &SourceReadFailedError{Axis: -1, Err: context.DeadlineExceeded}

func TestDataSourceProxyRetriesOnce(t *testing.T) {
	grid := fullGrid(2, 2, 2, 2, 2, 2)
	truth := sequentialMatrix(2, 2, 2)
	reader := &flakyReader{inner: NewSliceReader(truth, grid), fails: 1}
	proxy := NewDataSourceProxy(NewUnlabeled(reader, grid, Float64))

	got, err := proxy.Read(context.Background(), Range{0, 2}, Range{0, 2}, Range{0, 2})
	require.NoError(t, err)
	assert.Equal(t, truth.Data, got.Data)
}

func TestDataSourceProxyFailsAfterTwoConsecutiveErrors(t *testing.T) {
	grid := fullGrid(2, 2, 2, 2, 2, 2)
	truth := sequentialMatrix(2, 2, 2)
	reader := &flakyReader{inner: NewSliceReader(truth, grid), fails: 2}
	proxy := NewDataSourceProxy(NewUnlabeled(reader, grid, Float64))

	_, err := proxy.Read(context.Background(), Range{0, 2}, Range{0, 2}, Range{0, 2})
	require.Error(t, err)
	var srcErr *SourceReadFailedError
	assert.ErrorAs(t, err, &srcErr)
}
