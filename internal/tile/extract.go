package tile

import (
	"context"

	"github.com/lexcube/lexcube-go/internal/cube"
)

// extractWindow reads the raw (unresampled, undownsampled) source window
// for tile (axis, sliceIndex, lod, tx, ty) from proxy, clamped to the
// array's bounds on the free axes per DataSourceProxy's own clamping
// policy. The held-fixed axis is a single index. The returned Matrix2D
// has shape (Sh, Sw) with Sh, Sw <= Scale(lod)*tileSize; it is strictly
// smaller than that when the window runs past the array edge.
func extractWindow(ctx context.Context, proxy *cube.DataSourceProxy, axis Axis, sliceIndex, lod, tx, ty, tileSize int) (*cube.Matrix2D, error) {
	win := PixelWindow(lod, tx, ty, tileSize)

	var rz, ry, rx cube.Range
	var squeezeAxis int
	switch axis {
	case AxisZ:
		rz = cube.Single(sliceIndex)
		ry = cube.Range{Start: win.VStart, Stop: win.VStop}
		rx = cube.Range{Start: win.HStart, Stop: win.HStop}
		squeezeAxis = 0
	case AxisY:
		ry = cube.Single(sliceIndex)
		rz = cube.Range{Start: win.VStart, Stop: win.VStop}
		rx = cube.Range{Start: win.HStart, Stop: win.HStop}
		squeezeAxis = 1
	case AxisX:
		rx = cube.Single(sliceIndex)
		rz = cube.Range{Start: win.VStart, Stop: win.VStop}
		ry = cube.Range{Start: win.HStart, Stop: win.HStop}
		squeezeAxis = 2
	}

	m3, err := proxy.Read(ctx, rz, ry, rx)
	if err != nil {
		return nil, err
	}
	return m3.Squeeze2D(squeezeAxis), nil
}
