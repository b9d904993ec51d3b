package tile

import (
	"context"
	"math"
	"testing"

	"github.com/lexcube/lexcube-go/internal/codec"
	"github.com/lexcube/lexcube-go/internal/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unchunkedSource(m *cube.Matrix3D) cube.DataSource {
	grid := cube.NewUniformChunkGrid([3]int{m.Z, m.Y, m.X}, [3]int{m.Z, m.Y, m.X})
	reader := cube.NewSliceReader(m, grid)
	return cube.NewUnlabeled(reader, grid, cube.Float64)
}

func newTestGenerator(t *testing.T, m *cube.Matrix3D, tileSize int, lossless bool) *Generator {
	t.Helper()
	compressor, err := codec.NewTileCompressor(0.5, 0.01)
	require.NoError(t, err)
	t.Cleanup(compressor.Close)
	proxy := cube.NewDataSourceProxy(unchunkedSource(m))
	return NewGenerator(proxy, compressor, tileSize, lossless)
}

// S1: an all-NaN source produces the 24-byte NaN-tile blob.
func TestGenerateNaNTile(t *testing.T) {
	m := cube.NewMatrix3D(4, 4, 4)
	gen := newTestGenerator(t, m, 2, false)

	blob, err := gen.Generate(context.Background(), Identity{Axis: AxisZ, SliceIndex: 0, LoD: 0, TX: 0, TY: 0}, 1, false)
	require.NoError(t, err)
	assert.Len(t, blob, 24)

	decoded, err := DecodeBlob(blob)
	require.NoError(t, err)
	assert.True(t, decoded.IsNaNTile)
}

// S2: lossless roundtrip is bit-exact.
func TestGenerateLosslessRoundtrip(t *testing.T) {
	m := cube.NewMatrix3D(2, 2, 2)
	// z=0 plane: [[0,1],[2,3]]; z=1 plane: [[4,5],[6,7]]
	vals := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	copy(m.Data, vals)

	gen := newTestGenerator(t, m, 2, true)
	blob, err := gen.Generate(context.Background(), Identity{Axis: AxisZ, SliceIndex: 0, LoD: 0, TX: 0, TY: 0}, 1, false)
	require.NoError(t, err)

	decodedMatrix, err := gen.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, decodedMatrix.Data)
}

// S3: a source smaller than the tile pads the remainder with NaN.
func TestGeneratePadsShortWindow(t *testing.T) {
	m := cube.NewMatrix3D(3, 3, 3)
	for i := range m.Data {
		m.Data[i] = float64(i)
	}
	gen := newTestGenerator(t, m, 4, true)

	blob, err := gen.Generate(context.Background(), Identity{Axis: AxisZ, SliceIndex: 0, LoD: 0, TX: 0, TY: 0}, 1, false)
	require.NoError(t, err)
	decoded, err := gen.Decode(blob)
	require.NoError(t, err)

	assert.Equal(t, 4, decoded.H)
	assert.Equal(t, 4, decoded.W)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			assert.False(t, math.IsNaN(decoded.At(r, c)))
		}
	}
	for c := 0; c < 4; c++ {
		assert.True(t, math.IsNaN(decoded.At(3, c)))
	}
	for r := 0; r < 4; r++ {
		assert.True(t, math.IsNaN(decoded.At(r, 3)))
	}
}

// S4: LoD downsampling bilinear-averages a 2x2 source block into one
// output pixel.
func TestGenerateBilinearDownsample(t *testing.T) {
	m := cube.NewMatrix3D(4, 4, 4)
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				m.Set(z, y, x, float64(x))
			}
		}
	}
	gen := newTestGenerator(t, m, 2, true)

	blob, err := gen.Generate(context.Background(), Identity{Axis: AxisZ, SliceIndex: 0, LoD: 1, TX: 0, TY: 0}, 1, false)
	require.NoError(t, err)
	decoded, err := gen.Decode(blob)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, decoded.At(0, 0), 1e-9)
	assert.InDelta(t, 2.5, decoded.At(0, 1), 1e-9)
}

func TestGenerateLossyRoundtripWithinTolerance(t *testing.T) {
	m := cube.NewMatrix3D(2, 2, 2)
	m.Set(0, 0, 0, 1.0)
	m.Set(0, 0, 1, math.NaN())
	m.Set(0, 1, 0, 3.5)
	m.Set(0, 1, 1, -2.25)
	gen := newTestGenerator(t, m, 2, false)

	blob, err := gen.Generate(context.Background(), Identity{Axis: AxisZ, SliceIndex: 0, LoD: 0, TX: 0, TY: 0}, 1, false)
	require.NoError(t, err)

	decoded, err := DecodeBlob(blob)
	require.NoError(t, err)
	require.False(t, decoded.IsLossless)

	result, err := gen.Decode(blob)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(result.At(0, 1)))
	assert.InDelta(t, 1.0, result.At(0, 0), decoded.MaxError)
	assert.InDelta(t, 3.5, result.At(1, 0), decoded.MaxError)
	assert.InDelta(t, -2.25, result.At(1, 1), decoded.MaxError)
}
