// Package tile implements the tile model (C3): the mapping from
// (slice axis, slice index, LoD, tile x, tile y) to a 2D data window, its
// resampling to tile pixel size, and the bit-exact encoding/decoding of
// the resulting binary blob.
package tile

import (
	"fmt"
	"math"
)

// Axis is one of the three cube axes that can be held fixed to produce a
// 2D slice.
type Axis int

const (
	AxisZ Axis = iota
	AxisY
	AxisX
)

func (a Axis) String() string {
	switch a {
	case AxisZ:
		return "z"
	case AxisY:
		return "y"
	case AxisX:
		return "x"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Identity is the tuple that uniquely determines a tile's payload, given
// fixed source data and codec configuration: two tiles with equal
// Identity must be byte-equal.
type Identity struct {
	DatasetID  string
	Parameter  string
	Axis       Axis
	SliceIndex int
	LoD        int
	TX, TY     int
}

// Key returns a stable string encoding of the identity, suitable for use
// as a cache key or generation-cache file stem.
func (id Identity) Key() string {
	return fmt.Sprintf("%s/%s/%s/%d/%d/%d/%d", id.DatasetID, id.Parameter, id.Axis, id.SliceIndex, id.LoD, id.TX, id.TY)
}

// Scale returns 2^lod.
func Scale(lod int) int {
	return 1 << uint(lod)
}

// MaxLoD computes the maximum level of detail for a cube of the given
// shape and tile size T, per
// max_lod = min(ceil(-log2(T/max(Nz,Ny,Nx))), floor(log2(min(Nz,Ny,Nx)))).
func MaxLoD(shape [3]int, tileSize int) int {
	maxN := shape[0]
	for _, n := range shape[1:] {
		if n > maxN {
			maxN = n
		}
	}
	minN := shape[0]
	for _, n := range shape[1:] {
		if n < minN {
			minN = n
		}
	}
	if maxN <= 0 || minN <= 0 || tileSize <= 0 {
		return 0
	}
	byMax := int(math.Ceil(-math.Log2(float64(tileSize) / float64(maxN))))
	byMin := int(math.Floor(math.Log2(float64(minN))))
	lod := byMax
	if byMin < lod {
		lod = byMin
	}
	if lod < 0 {
		lod = 0
	}
	return lod
}

// GridSize returns the number of tiles (gw, gh) covering the free axes of
// size (Nu, Nv) at the given lod.
func GridSize(nu, nv, tileSize, lod int) (gw, gh int) {
	cell := tileSize * Scale(lod)
	gw = (nu + cell - 1) / cell
	gh = (nv + cell - 1) / cell
	return gw, gh
}

// freeAxes returns the (horizontal, vertical) axes that form the 2D tile
// grid when axis is held fixed, per spec §3: Z fixed -> (X, Y);
// Y fixed -> (X, Z); X fixed -> (Y, Z).
func freeAxes(axis Axis) (horizontal, vertical Axis) {
	switch axis {
	case AxisZ:
		return AxisX, AxisY
	case AxisY:
		return AxisX, AxisZ
	case AxisX:
		return AxisY, AxisZ
	default:
		panic(fmt.Sprintf("tile: invalid axis %v", axis))
	}
}

// FreeAxisLengths returns the (horizontal, vertical) extents of the tile
// grid's free axes when axis is held fixed.
func FreeAxisLengths(shape [3]int, axis Axis) (nu, nv int) {
	h, v := freeAxes(axis)
	return axisLength(shape, h), axisLength(shape, v)
}

func axisLength(shape [3]int, a Axis) int {
	switch a {
	case AxisZ:
		return shape[0]
	case AxisY:
		return shape[1]
	case AxisX:
		return shape[2]
	default:
		panic(fmt.Sprintf("tile: invalid axis %v", a))
	}
}

// Window describes the pixel window, in source coordinates, covered by
// one tile before downsampling: horizontal range maps to tx, vertical
// range maps to ty.
type Window struct {
	HStart, HStop int
	VStart, VStop int
}

// PixelWindow computes the (possibly out-of-bounds, unclamped) source
// window for tile (lod, tx, ty).
func PixelWindow(lod, tx, ty, tileSize int) Window {
	cell := tileSize * Scale(lod)
	return Window{
		HStart: tx * cell, HStop: (tx + 1) * cell,
		VStart: ty * cell, VStop: (ty + 1) * cell,
	}
}
