package cube

import (
	"context"
	"sort"
	"sync"
)

// chunkKey3 identifies one native chunk by its per-axis chunk index.
type chunkKey3 struct{ cz, cy, cx int }

// DataSourceProxy is the hardest-working piece of the tile engine: it
// turns arbitrary pixel-window reads into a small number of native-chunk
// reads, caches every chunk it has ever fetched, and serves overlapping
// future requests out of that cache. Chunk boundaries never move once a
// DataSourceProxy is constructed, so the cache never needs invalidation -
// only insertion-wins de-duplication of concurrent fetches of the same
// chunk.
type DataSourceProxy struct {
	source DataSource

	cache sync.Map // chunkKey3 -> *Matrix3D
	// inflight de-duplicates concurrent fetches of the same chunk so N
	// goroutines that need the same missing chunk issue one read, not N.
	inflight   sync.Map // chunkKey3 -> *inflightFetch
	inflightMu sync.Mutex
}

type inflightFetch struct {
	done chan struct{}
	data *Matrix3D
	err  error
}

// NewDataSourceProxy wraps source with a chunk cache.
func NewDataSourceProxy(source DataSource) *DataSourceProxy {
	return &DataSourceProxy{source: source}
}

// Shape returns the underlying source's element shape.
func (p *DataSourceProxy) Shape() [3]int { return p.source.Shape() }

// Source returns the wrapped DataSource (dimension names, coordinates,
// dtype) for callers that need axis metadata alongside pixel data.
func (p *DataSourceProxy) Source() DataSource { return p.source }

// Read extracts the rank-3 window [rz, ry, rx) from the underlying
// source, fetching and caching whichever native chunks intersect it.
// Ranges are clamped to [0, Ni) on each axis rather than rejected - only
// Start > Stop (a malformed request, not an out-of-bounds one) is an
// error. A degenerate (length-1) range is allowed on any axis.
func (p *DataSourceProxy) Read(ctx context.Context, rz, ry, rx Range) (*Matrix3D, error) {
	shape := p.source.Shape()
	if err := checkRange(0, rz); err != nil {
		return nil, err
	}
	if err := checkRange(1, ry); err != nil {
		return nil, err
	}
	if err := checkRange(2, rx); err != nil {
		return nil, err
	}
	rz = clampRange(rz, shape[0])
	ry = clampRange(ry, shape[1])
	rx = clampRange(rx, shape[2])

	out := NewMatrix3D(rz.Len(), ry.Len(), rx.Len())
	if out.Z == 0 || out.Y == 0 || out.X == 0 {
		return out, nil
	}

	grid := p.source.Grid
	zLo, zHi := chunkRange(grid.Z, rz)
	yLo, yHi := chunkRange(grid.Y, ry)
	xLo, xHi := chunkRange(grid.X, rx)

	for cz := zLo; cz < zHi; cz++ {
		for cy := yLo; cy < yHi; cy++ {
			for cx := xLo; cx < xHi; cx++ {
				chunk, err := p.getChunk(ctx, cz, cy, cx)
				if err != nil {
					return nil, err
				}
				p.copyIntersection(out, chunk, grid, cz, cy, cx, rz, ry, rx)
			}
		}
	}
	return out, nil
}

// checkRange rejects only a malformed range (Start > Stop); being
// outside [0, length) is handled by clampRange, not an error, per the
// "requests outside the array shape are clamped, never errors" policy.
func checkRange(axis int, r Range) error {
	if r.Stop < r.Start {
		return &InvalidRangeError{Axis: axis, Range: r, Length: -1}
	}
	return nil
}

// clampRange clamps r to [0, length], preserving 0 <= Start <= Stop <=
// length (inclusive upper bound on the range endpoint, per spec: a
// request range's Stop may equal length).
func clampRange(r Range, length int) Range {
	start := r.Start
	if start < 0 {
		start = 0
	}
	if start > length {
		start = length
	}
	stop := r.Stop
	if stop < start {
		stop = start
	}
	if stop > length {
		stop = length
	}
	return Range{Start: start, Stop: stop}
}

// chunkRange returns the half-open range of chunk indices [lo, hi) along
// one axis whose chunks intersect req, found via binary search over the
// axis's cumulative chunk-boundary slice (boundaries are sorted, so this
// is a direct application of sort.Search rather than a linear scan).
func chunkRange(boundaries []int, req Range) (lo, hi int) {
	numChunks := len(boundaries) - 1
	// lo: first chunk whose end boundary exceeds req.Start.
	lo = sort.Search(numChunks, func(i int) bool { return boundaries[i+1] > req.Start })
	// hi: first chunk whose start boundary is >= req.Stop.
	hi = sort.Search(numChunks, func(i int) bool { return boundaries[i] >= req.Stop })
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func (p *DataSourceProxy) getChunk(ctx context.Context, cz, cy, cx int) (*Matrix3D, error) {
	key := chunkKey3{cz, cy, cx}
	if v, ok := p.cache.Load(key); ok {
		return v.(*Matrix3D), nil
	}

	p.inflightMu.Lock()
	if v, ok := p.inflight.Load(key); ok {
		p.inflightMu.Unlock()
		f := v.(*inflightFetch)
		<-f.done
		return f.data, f.err
	}
	f := &inflightFetch{done: make(chan struct{})}
	p.inflight.Store(key, f)
	p.inflightMu.Unlock()

	data, err := p.fetchWithRetry(ctx, cz, cy, cx)
	f.data, f.err = data, err
	close(f.done)
	p.inflight.Delete(key)

	if err != nil {
		return nil, err
	}
	// Insertion wins: if another goroutine raced us and already stored
	// this chunk (shouldn't happen given the inflight gate above, but a
	// cache is allowed to be populated by other means), keep the first.
	actual, _ := p.cache.LoadOrStore(key, data)
	return actual.(*Matrix3D), nil
}

// fetchWithRetry reads one chunk, retrying exactly once on failure. A
// second consecutive failure is surfaced as a SourceReadFailedError; the
// retry absorbs the transient-backend-hiccup case without masking a
// genuinely broken chunk.
func (p *DataSourceProxy) fetchWithRetry(ctx context.Context, cz, cy, cx int) (*Matrix3D, error) {
	data, err := p.source.Reader.ReadChunk(ctx, cz, cy, cx)
	if err == nil {
		return data, nil
	}
	data, err = p.source.Reader.ReadChunk(ctx, cz, cy, cx)
	if err != nil {
		return nil, &SourceReadFailedError{Axis: -1, ChunkIndex: cz, Err: err}
	}
	return data, nil
}

// copyIntersection copies the part of chunk (cz,cy,cx) that overlaps the
// request window into out, at the correct offset within out.
func (p *DataSourceProxy) copyIntersection(out, chunk *Matrix3D, grid ChunkGrid, cz, cy, cx int, rz, ry, rx Range) {
	zStart, zStop := intersect(grid.Z[cz], grid.Z[cz+1], rz)
	yStart, yStop := intersect(grid.Y[cy], grid.Y[cy+1], ry)
	xStart, xStop := intersect(grid.X[cx], grid.X[cx+1], rx)
	if zStart >= zStop || yStart >= yStop || xStart >= xStop {
		return
	}
	srcOrigin := [3]int{zStart - grid.Z[cz], yStart - grid.Y[cy], xStart - grid.X[cx]}
	dstOrigin := [3]int{zStart - rz.Start, yStart - ry.Start, xStart - rx.Start}
	shape := [3]int{zStop - zStart, yStop - yStart, xStop - xStart}
	out.CopyFrom(chunk, srcOrigin, dstOrigin, shape)
}

func intersect(chunkStart, chunkStop int, req Range) (start, stop int) {
	start = max(chunkStart, req.Start)
	stop = min(chunkStop, req.Stop)
	return start, stop
}
