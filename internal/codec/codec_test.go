package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLosslessCodecRoundtrip(t *testing.T) {
	c, err := NewLosslessCodec()
	require.NoError(t, err)
	defer c.Close()

	values := []float64{0, 1, 2, 3, 4.5, -6.25, math.Pi}
	enc := c.Encode(values)
	dec, err := c.Decode(enc, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, dec)
}

func TestLosslessCodecWrongLength(t *testing.T) {
	c, err := NewLosslessCodec()
	require.NoError(t, err)
	defer c.Close()

	enc := c.Encode([]float64{1, 2, 3})
	_, err = c.Decode(enc, 99)
	assert.Error(t, err)
}

func TestMaskCodecRoundtrip(t *testing.T) {
	mask := []float32{0, 0, float32(math.NaN()), 0, float32(math.NaN())}
	enc := EncodeMask(mask)
	dec, err := DecodeMask(enc, len(mask))
	require.NoError(t, err)
	for i := range mask {
		if math.IsNaN(float64(mask[i])) {
			assert.True(t, math.IsNaN(float64(dec[i])))
		} else {
			assert.Equal(t, mask[i], dec[i])
		}
	}
}

func TestToleranceCompressorBoundsError(t *testing.T) {
	tc := NewToleranceCompressor()
	values := []float64{0, 1, 2, 3, 4, 5.5, 10}
	tolerance := 0.1
	blob, maxErr := tc.EncodeAt(values, tolerance)
	dec, err := tc.Decode(blob, len(values))
	require.NoError(t, err)

	for i := range values {
		assert.LessOrEqual(t, math.Abs(dec[i]-values[i]), maxErr)
	}
	assert.LessOrEqual(t, maxErr, tolerance/2+addedError+1e-12)
}

func TestTileCompressorPicksToleranceByAnomalyFlag(t *testing.T) {
	tc, err := NewTileCompressor(0.5, 0.01)
	require.NoError(t, err)
	defer tc.Close()

	assert.Equal(t, 0.5, tc.ToleranceFor(false))
	assert.Equal(t, 0.01, tc.ToleranceFor(true))
}

func TestTileCompressorLossyRoundtrip(t *testing.T) {
	tc, err := NewTileCompressor(0.25, 0.01)
	require.NoError(t, err)
	defer tc.Close()

	values := []float64{1, 2, 3, 4}
	blob, maxErr := tc.EncodeLossy(values, false)
	dec, err := tc.DecodeLossy(blob, len(values))
	require.NoError(t, err)
	for i := range values {
		assert.LessOrEqual(t, math.Abs(dec[i]-values[i]), maxErr)
	}
}

func TestTileCompressorLosslessRoundtrip(t *testing.T) {
	tc, err := NewTileCompressor(0.25, 0.01)
	require.NoError(t, err)
	defer tc.Close()

	values := []float64{1, 2, 3, 4, 5}
	blob := tc.EncodeLossless(values)
	dec, err := tc.DecodeLossless(blob, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, dec)
}
