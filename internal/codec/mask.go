package codec

import (
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/s2"
)

// EncodeMask compresses a NaN mask: a slice with 0 at valid positions and
// NaN at missing positions, stored as little-endian float32 prior to
// compression. s2 is chosen over zstd here because the mask is almost
// always mostly zero bytes and the codec runs once per tile on the hot
// generation path, where s2's lower latency matters more than its lower
// ratio.
func EncodeMask(mask []float32) []byte {
	raw := make([]byte, 4*len(mask))
	for i, v := range mask {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return s2.Encode(nil, raw)
}

// DecodeMask decompresses an encoded mask back into n float32 values.
func DecodeMask(compressed []byte, n int) ([]float32, error) {
	raw, err := s2.Decode(nil, compressed)
	if err != nil {
		return nil, &Error{Op: "mask: decode", Err: err}
	}
	if len(raw) != n*4 {
		return nil, &Error{Op: "mask: decode", Err: errShortBody}
	}
	mask := make([]float32, n)
	for i := range mask {
		mask[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return mask, nil
}
