// Package cube implements the data-source proxy (C1): a rank-3
// random-access view over a dense array, with native-chunk caching.
package cube

import (
	"fmt"
	"math"
)

// Dtype is the native element width of a data source. It never changes
// the tile wire format (tiles are always float64 internally) but lets a
// ChunkReader avoid boxing every read through interface{}.
type Dtype int

const (
	Float32 Dtype = iota
	Float64
)

// Range is a half-open interval [Start, Stop) along one axis.
type Range struct {
	Start, Stop int
}

// Len returns the number of indices covered by the range.
func (r Range) Len() int {
	if r.Stop <= r.Start {
		return 0
	}
	return r.Stop - r.Start
}

// Single returns a Range covering exactly one index.
func Single(i int) Range { return Range{Start: i, Stop: i + 1} }

// Matrix3D is a dense row-major (z, y, x) matrix of float64 values; NaN
// marks a missing value.
type Matrix3D struct {
	Z, Y, X int
	Data    []float64
}

// NewMatrix3D allocates a matrix of the given shape, filled with NaN.
func NewMatrix3D(z, y, x int) *Matrix3D {
	data := make([]float64, z*y*x)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Matrix3D{Z: z, Y: y, X: x, Data: data}
}

func (m *Matrix3D) index(iz, iy, ix int) int {
	return (iz*m.Y+iy)*m.X + ix
}

// At returns the value at (iz, iy, ix).
func (m *Matrix3D) At(iz, iy, ix int) float64 {
	return m.Data[m.index(iz, iy, ix)]
}

// Set assigns the value at (iz, iy, ix).
func (m *Matrix3D) Set(iz, iy, ix int, v float64) {
	m.Data[m.index(iz, iy, ix)] = v
}

// CopyFrom copies the overlapping region of src into m, offsetting src
// reads by srcOrigin and m writes by dstOrigin, for shape (z, y, x).
func (m *Matrix3D) CopyFrom(src *Matrix3D, srcOrigin, dstOrigin [3]int, shape [3]int) {
	for z := 0; z < shape[0]; z++ {
		for y := 0; y < shape[1]; y++ {
			for x := 0; x < shape[2]; x++ {
				v := src.At(srcOrigin[0]+z, srcOrigin[1]+y, srcOrigin[2]+x)
				m.Set(dstOrigin[0]+z, dstOrigin[1]+y, dstOrigin[2]+x, v)
			}
		}
	}
}

// Squeeze2D returns a (height, width) view dropping a single degenerate
// axis, per spec: a request with one singleton range collapses to 2D on
// return. axis is the index (0=Z,1=Y,2=X) that was degenerate.
func (m *Matrix3D) Squeeze2D(axis int) *Matrix2D {
	switch axis {
	case 0:
		return &Matrix2D{H: m.Y, W: m.X, Data: m.Data}
	case 1:
		return &Matrix2D{H: m.Z, W: m.X, Data: m.Data}
	case 2:
		return &Matrix2D{H: m.Z, W: m.Y, Data: m.Data}
	default:
		panic(fmt.Sprintf("cube: invalid squeeze axis %d", axis))
	}
}

// Matrix2D is a dense row-major (height, width) matrix of float64 values.
type Matrix2D struct {
	H, W int
	Data []float64
}

// NewMatrix2D allocates a matrix of the given shape, filled with NaN.
func NewMatrix2D(h, w int) *Matrix2D {
	data := make([]float64, h*w)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Matrix2D{H: h, W: w, Data: data}
}

func (m *Matrix2D) At(row, col int) float64 {
	return m.Data[row*m.W+col]
}
