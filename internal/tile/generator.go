package tile

import (
	"context"
	"math"

	"github.com/lexcube/lexcube-go/internal/codec"
	"github.com/lexcube/lexcube-go/internal/cube"
)

// Generator is the C3 component: it turns a tile Identity plus a
// resample-resolution hint into an encoded blob, pulling pixel data
// through a DataSourceProxy and compressing it via a TileCompressor.
type Generator struct {
	Proxy      *cube.DataSourceProxy
	Compressor *codec.TileCompressor
	TileSize   int
	Lossless   bool
}

// NewGenerator builds a Generator.
func NewGenerator(proxy *cube.DataSourceProxy, compressor *codec.TileCompressor, tileSize int, lossless bool) *Generator {
	return &Generator{Proxy: proxy, Compressor: compressor, TileSize: tileSize, Lossless: lossless}
}

// Generate materializes, resamples, and encodes the tile identified by
// id. resampleResolution is the parameter's native coarse-resolution
// hint (1 if none); isAnomaly selects the lossy tolerance.
func (g *Generator) Generate(ctx context.Context, id Identity, resampleResolution int, isAnomaly bool) ([]byte, error) {
	rawWin, err := extractWindow(ctx, g.Proxy, id.Axis, id.SliceIndex, id.LoD, id.TX, id.TY, g.TileSize)
	if err != nil {
		return nil, err
	}

	rPrime := EffectiveResampleResolution(resampleResolution, id.LoD)
	win := applyResampleResolution(rawWin, rPrime)

	var tileWin *cube.Matrix2D
	if win.H <= g.TileSize && win.W <= g.TileSize {
		tileWin = padToTile(win, g.TileSize)
	} else if g.useStrided(id.Axis) {
		tileWin = stridedResize(win, g.TileSize)
	} else {
		tileWin = bilinearResize(win, g.TileSize)
	}

	if allNaN(tileWin.Data) {
		return EncodeNaNTile(uint32(resampleResolution)), nil
	}

	stats := computeStats(tileWin.Data)

	if g.Lossless {
		body := g.Compressor.EncodeLossless(tileWin.Data)
		return EncodeDataTile(uint32(resampleResolution), stats, true, 0, nil, body), nil
	}

	mask := make([]float32, len(tileWin.Data))
	values := make([]float64, len(tileWin.Data))
	for i, v := range tileWin.Data {
		if math.IsNaN(v) {
			mask[i] = float32(math.NaN())
			values[i] = 0
		} else {
			values[i] = v
		}
	}
	body, maxErr := g.Compressor.EncodeLossy(values, isAnomaly)
	maskBlob := codec.EncodeMask(mask)
	return EncodeDataTile(uint32(resampleResolution), stats, false, maxErr, maskBlob, body), nil
}

// useStrided decides, per axis, whether the downsampling fallback
// (stride-sampling) should replace bilinear interpolation: true when
// the backing array has more native chunks along either free axis than
// the tile has pixels along a side, so that a full bilinear read would drag many chunks
// into memory only to discard most of their contents.
func (g *Generator) useStrided(axis Axis) bool {
	grid := g.Proxy.Source().Grid
	h, v := freeAxes(axis)
	return grid.NumChunks(int(h)) > g.TileSize || grid.NumChunks(int(v)) > g.TileSize
}

// Decode reconstructs the TileSize x TileSize float64 matrix described by
// an encoded blob.
func (g *Generator) Decode(data []byte) (*cube.Matrix2D, error) {
	blob, err := DecodeBlob(data)
	if err != nil {
		return nil, err
	}
	n := g.TileSize * g.TileSize
	if blob.IsNaNTile {
		return cube.NewMatrix2D(g.TileSize, g.TileSize), nil
	}
	if blob.IsLossless {
		values, err := g.Compressor.DecodeLossless(blob.Body, n)
		if err != nil {
			return nil, err
		}
		return &cube.Matrix2D{H: g.TileSize, W: g.TileSize, Data: values}, nil
	}

	values, err := g.Compressor.DecodeLossy(blob.Body, n)
	if err != nil {
		return nil, err
	}
	mask, err := codec.DecodeMask(blob.NaNMask, n)
	if err != nil {
		return nil, err
	}
	for i := range values {
		values[i] += float64(mask[i]) // IEEE 754: x + NaN = NaN restores missing pixels
	}
	return &cube.Matrix2D{H: g.TileSize, W: g.TileSize, Data: values}, nil
}
