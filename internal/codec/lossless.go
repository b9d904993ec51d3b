package codec

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/klauspost/compress/zstd"
)

var errShortBody = errors.New("decoded body length does not match expected element count")

// LosslessCodec encodes a float64 matrix exactly, via zstd over its raw
// little-endian byte representation. Decoding is bit-exact.
type LosslessCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewLosslessCodec builds a LosslessCodec with a persistent encoder and
// decoder pair; both are safe for concurrent use by multiple goroutines
// (per the zstd package's own concurrency contract).
func NewLosslessCodec() (*LosslessCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, &Error{Op: "lossless: new encoder", Err: err}
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, &Error{Op: "lossless: new decoder", Err: err}
	}
	return &LosslessCodec{encoder: enc, decoder: dec}, nil
}

// Close releases the decoder's background goroutines.
func (c *LosslessCodec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// Encode compresses values, which are encoded as little-endian float64
// prior to compression.
func (c *LosslessCodec) Encode(values []float64) []byte {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return c.encoder.EncodeAll(raw, nil)
}

// Decode decompresses compressed back into n float64 values.
func (c *LosslessCodec) Decode(compressed []byte, n int) ([]float64, error) {
	raw, err := c.decoder.DecodeAll(compressed, make([]byte, 0, n*8))
	if err != nil {
		return nil, &Error{Op: "lossless: decode", Err: err}
	}
	if len(raw) != n*8 {
		return nil, &Error{Op: "lossless: decode", Err: errShortBody}
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return values, nil
}
