package cube

import (
	"context"
	"fmt"
)

// ChunkReader reads exactly one native chunk of a data source, identified
// by its chunk indices along each axis. Implementations must be safe for
// concurrent use.
type ChunkReader interface {
	ReadChunk(ctx context.Context, cz, cy, cx int) (*Matrix3D, error)
}

// ChunkGrid describes how a data source is physically divided: the chunk
// boundaries along each axis, expressed as cumulative element offsets
// starting at 0 and ending at the axis length. A source with uniform
// chunking of size 64 over a 200-length axis has boundaries
// [0, 64, 128, 192, 200].
type ChunkGrid struct {
	Z, Y, X []int
}

func uniformBoundaries(length, chunkSize int) []int {
	if chunkSize <= 0 {
		return []int{0, length}
	}
	bounds := []int{0}
	for b := chunkSize; b < length; b += chunkSize {
		bounds = append(bounds, b)
	}
	bounds = append(bounds, length)
	return bounds
}

// NewUniformChunkGrid builds a ChunkGrid for a data source that is
// chunked uniformly along each axis (the common case for zarr/HDF5/NetCDF
// arrays with a fixed chunk shape).
func NewUniformChunkGrid(shape [3]int, chunkShape [3]int) ChunkGrid {
	return ChunkGrid{
		Z: uniformBoundaries(shape[0], chunkShape[0]),
		Y: uniformBoundaries(shape[1], chunkShape[1]),
		X: uniformBoundaries(shape[2], chunkShape[2]),
	}
}

func (g ChunkGrid) axis(i int) []int {
	switch i {
	case 0:
		return g.Z
	case 1:
		return g.Y
	case 2:
		return g.X
	default:
		panic(fmt.Sprintf("cube: invalid axis %d", i))
	}
}

// NumChunks returns the number of chunks along axis i (0=Z,1=Y,2=X).
func (g ChunkGrid) NumChunks(i int) int {
	return len(g.axis(i)) - 1
}

// Shape returns the overall element shape described by the grid.
func (g ChunkGrid) Shape() [3]int {
	last := func(b []int) int { return b[len(b)-1] }
	return [3]int{last(g.Z), last(g.Y), last(g.X)}
}

// DataSource is a labeled or unlabeled dense rank-3 array backed by a
// ChunkReader. It is the thing a DataSourceProxy wraps; the distinction
// between Unlabeled and Labeled only matters to the metadata store
// (dimension names, coordinate values), not to tile extraction.
type DataSource struct {
	Reader ChunkReader
	Grid   ChunkGrid
	Dtype  Dtype

	// Labeled sources carry per-axis dimension names (e.g. "time",
	// "lat", "lon") and, optionally, coordinate values used to render
	// axis labels. An unlabeled source leaves DimNames empty.
	DimNames   [3]string
	CoordZ     []any
	CoordY     []any
	CoordX     []any
}

// NewUnlabeled builds a DataSource with no axis metadata: tiles can be
// served from it, but it carries no dimension names or coordinate values.
func NewUnlabeled(reader ChunkReader, grid ChunkGrid, dtype Dtype) DataSource {
	return DataSource{Reader: reader, Grid: grid, Dtype: dtype}
}

// NewLabeled builds a DataSource carrying dimension names and, optionally,
// coordinate values per axis.
func NewLabeled(reader ChunkReader, grid ChunkGrid, dtype Dtype, dimNames [3]string, coordZ, coordY, coordX []any) DataSource {
	return DataSource{
		Reader:   reader,
		Grid:     grid,
		Dtype:    dtype,
		DimNames: dimNames,
		CoordZ:   coordZ,
		CoordY:   coordY,
		CoordX:   coordX,
	}
}

// IsLabeled reports whether the source carries dimension names.
func (ds DataSource) IsLabeled() bool {
	return ds.DimNames[0] != "" || ds.DimNames[1] != "" || ds.DimNames[2] != ""
}

// Shape returns the source's overall element shape.
func (ds DataSource) Shape() [3]int {
	return ds.Grid.Shape()
}
