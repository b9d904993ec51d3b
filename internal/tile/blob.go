package tile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Sentinel values for the max_error header field.
const (
	NaNTileError      = -1.0
	LosslessTileError = -2.0
	APIVersion        = 5
	TileFormatVersion = 2
)

var magic = [4]byte{'l', 'e', 'x', 'c'}

const (
	headerFixedLen  = 56 // through the var field, before any mask/body
	nanTileBlobLen  = 24 // magic+version+resample+masklen+max_error, nothing else
)

// TileFormatError reports a magic/version mismatch on decode. Per the
// error taxonomy this is fatal to the caller of decode.
type TileFormatError struct {
	Reason string
}

func (e *TileFormatError) Error() string {
	return fmt.Sprintf("tile: format error: %s", e.Reason)
}

// Blob is the decoded structure of a tile's binary payload, independent
// of whether it originated as a NaN tile, a lossless tile, or a lossy
// tile.
type Blob struct {
	ResampleResolution uint32
	Stats              Stats
	IsNaNTile          bool
	IsLossless         bool
	MaxError           float64 // meaningless when IsNaNTile
	NaNMask            []byte  // compressed; empty unless lossy
	Body               []byte  // compressed; empty when IsNaNTile
}

// EncodeNaNTile produces the 24-byte blob for an all-NaN tile.
func EncodeNaNTile(resampleResolution uint32) []byte {
	out := make([]byte, nanTileBlobLen)
	copy(out[0:4], magic[:])
	binary.LittleEndian.PutUint32(out[4:], TileFormatVersion)
	binary.LittleEndian.PutUint32(out[8:], resampleResolution)
	binary.LittleEndian.PutUint32(out[12:], 0)
	binary.LittleEndian.PutUint64(out[16:], math.Float64bits(NaNTileError))
	return out
}

// EncodeDataTile produces the full header+mask+body blob for a tile that
// has at least one non-NaN value.
func EncodeDataTile(resampleResolution uint32, stats Stats, isLossless bool, maxError float64, nanMask, body []byte) []byte {
	errField := maxError
	if isLossless {
		errField = LosslessTileError
	}
	maskLen := uint32(0)
	if !isLossless {
		maskLen = uint32(len(nanMask))
	}

	out := make([]byte, headerFixedLen)
	copy(out[0:4], magic[:])
	binary.LittleEndian.PutUint32(out[4:], TileFormatVersion)
	binary.LittleEndian.PutUint32(out[8:], resampleResolution)
	binary.LittleEndian.PutUint32(out[12:], maskLen)
	binary.LittleEndian.PutUint64(out[16:], math.Float64bits(errField))
	binary.LittleEndian.PutUint64(out[24:], math.Float64bits(stats.Min))
	binary.LittleEndian.PutUint64(out[32:], math.Float64bits(stats.Max))
	binary.LittleEndian.PutUint64(out[40:], math.Float64bits(stats.Mean))
	binary.LittleEndian.PutUint64(out[48:], math.Float64bits(stats.Var))

	if !isLossless {
		out = append(out, nanMask...)
	}
	out = append(out, body...)
	return out
}

// DecodeBlob parses header, stats, mask, and body framing (but does not
// decompress body/mask - that's the caller's job, via codec.TileCompressor).
func DecodeBlob(data []byte) (Blob, error) {
	if len(data) < nanTileBlobLen {
		return Blob{}, &TileFormatError{Reason: "blob shorter than fixed header"}
	}
	if string(data[0:4]) != string(magic[:]) {
		return Blob{}, &TileFormatError{Reason: "bad magic"}
	}
	version := binary.LittleEndian.Uint32(data[4:])
	if version != TileFormatVersion {
		return Blob{}, &TileFormatError{Reason: fmt.Sprintf("unsupported tile version %d", version)}
	}
	resampleResolution := binary.LittleEndian.Uint32(data[8:])
	maskLen := binary.LittleEndian.Uint32(data[12:])
	maxError := math.Float64frombits(binary.LittleEndian.Uint64(data[16:]))

	if maxError == NaNTileError {
		return Blob{
			ResampleResolution: resampleResolution,
			IsNaNTile:          true,
		}, nil
	}

	if len(data) < headerFixedLen {
		return Blob{}, &TileFormatError{Reason: "blob shorter than stats header"}
	}
	stats := Stats{
		Min:  math.Float64frombits(binary.LittleEndian.Uint64(data[24:])),
		Max:  math.Float64frombits(binary.LittleEndian.Uint64(data[32:])),
		Mean: math.Float64frombits(binary.LittleEndian.Uint64(data[40:])),
		Var:  math.Float64frombits(binary.LittleEndian.Uint64(data[48:])),
	}

	isLossless := maxError == LosslessTileError
	rest := data[headerFixedLen:]

	blob := Blob{
		ResampleResolution: resampleResolution,
		Stats:              stats,
		IsLossless:         isLossless,
		MaxError:           maxError,
	}
	if isLossless {
		blob.Body = rest
		return blob, nil
	}
	if uint32(len(rest)) < maskLen {
		return Blob{}, &TileFormatError{Reason: "blob shorter than declared nan_mask_length"}
	}
	blob.NaNMask = rest[:maskLen]
	blob.Body = rest[maskLen:]
	return blob, nil
}
