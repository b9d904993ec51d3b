package tile

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeNaNTileExactBytes(t *testing.T) {
	blob := EncodeNaNTile(0)
	require.Len(t, blob, 24)
	assert.Equal(t, "lexc", string(blob[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(blob[4:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(blob[8:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(blob[12:]))
	assert.Equal(t, -1.0, math.Float64frombits(binary.LittleEndian.Uint64(blob[16:])))
}

func TestDecodeNaNTile(t *testing.T) {
	blob := EncodeNaNTile(3)
	decoded, err := DecodeBlob(blob)
	require.NoError(t, err)
	assert.True(t, decoded.IsNaNTile)
	assert.Equal(t, uint32(3), decoded.ResampleResolution)
}

func TestEncodeDecodeLosslessDataTile(t *testing.T) {
	stats := Stats{Min: 0, Max: 3, Mean: 1.5, Var: 1.25}
	body := []byte{1, 2, 3, 4}
	blob := EncodeDataTile(1, stats, true, 0, nil, body)

	decoded, err := DecodeBlob(blob)
	require.NoError(t, err)
	assert.False(t, decoded.IsNaNTile)
	assert.True(t, decoded.IsLossless)
	assert.Equal(t, stats, decoded.Stats)
	assert.Equal(t, body, decoded.Body)
	assert.Empty(t, decoded.NaNMask)
}

func TestEncodeDecodeLossyDataTile(t *testing.T) {
	stats := Stats{Min: -1, Max: 9, Mean: 2, Var: 4}
	mask := []byte{9, 9, 9}
	body := []byte{1, 2, 3, 4, 5}
	blob := EncodeDataTile(2, stats, false, 0.05, mask, body)

	decoded, err := DecodeBlob(blob)
	require.NoError(t, err)
	assert.False(t, decoded.IsLossless)
	assert.Equal(t, 0.05, decoded.MaxError)
	assert.Equal(t, mask, decoded.NaNMask)
	assert.Equal(t, body, decoded.Body)
}

func TestDecodeBlobBadMagic(t *testing.T) {
	blob := EncodeNaNTile(0)
	blob[0] = 'x'
	_, err := DecodeBlob(blob)
	require.Error(t, err)
	var formatErr *TileFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestDecodeBlobBadVersion(t *testing.T) {
	blob := EncodeNaNTile(0)
	binary.LittleEndian.PutUint32(blob[4:], 99)
	_, err := DecodeBlob(blob)
	require.Error(t, err)
}
