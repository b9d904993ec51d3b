package codec

import (
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/s2"
)

// addedError is folded into every reported max_error as a safety margin
// over the measured round-trip error, so that floating-point rounding in
// the reconstruction step can never make the reported bound optimistic.
const addedError = 1e-9

// ToleranceCompressor is the lossy tile body codec: a fixed-accuracy
// quantizer. Every value is binned to round((x-min)/tolerance) and the
// resulting non-negative step stream is varint- then s2-packed. There is
// no off-the-shelf fixed-accuracy float compressor in the dependency
// pack (see DESIGN.md); this stands in for the original's zfp codec.
type ToleranceCompressor struct{}

// NewToleranceCompressor constructs a ToleranceCompressor. It holds no
// state; the type exists for symmetry with LosslessCodec and to give the
// TileCompressor a named collaborator.
func NewToleranceCompressor() *ToleranceCompressor {
	return &ToleranceCompressor{}
}

// EncodeAt quantizes values at the given absolute-error tolerance and
// returns the encoded blob along with the reported maximum error, which
// is always >= the true reconstruction error.
func (c *ToleranceCompressor) EncodeAt(values []float64, tolerance float64) (blob []byte, maxError float64) {
	if tolerance <= 0 {
		tolerance = 1e-6
	}
	base := values[0]
	for _, v := range values {
		if v < base {
			base = v
		}
	}

	steps := make([]uint64, len(values))
	var observed float64
	for i, v := range values {
		step := math.Round((v - base) / tolerance)
		steps[i] = uint64(step)
		recon := base + step*tolerance
		if d := math.Abs(recon - v); d > observed {
			observed = d
		}
	}

	varints := make([]byte, 0, len(steps)*2)
	buf := make([]byte, binary.MaxVarintLen64)
	for _, s := range steps {
		n := binary.PutUvarint(buf, s)
		varints = append(varints, buf[:n]...)
	}
	packed := s2.Encode(nil, varints)

	header := make([]byte, 16)
	binary.LittleEndian.PutUint64(header[0:], math.Float64bits(base))
	binary.LittleEndian.PutUint64(header[8:], math.Float64bits(tolerance))

	blob = append(header, packed...)
	return blob, observed + addedError
}

// Decode reconstructs n values from an EncodeAt blob.
func (c *ToleranceCompressor) Decode(blob []byte, n int) ([]float64, error) {
	if len(blob) < 16 {
		return nil, &Error{Op: "tolerance: decode", Err: errShortBody}
	}
	base := math.Float64frombits(binary.LittleEndian.Uint64(blob[0:]))
	tolerance := math.Float64frombits(binary.LittleEndian.Uint64(blob[8:]))

	varints, err := s2.Decode(nil, blob[16:])
	if err != nil {
		return nil, &Error{Op: "tolerance: decode", Err: err}
	}

	values := make([]float64, n)
	offset := 0
	for i := 0; i < n; i++ {
		step, width := binary.Uvarint(varints[offset:])
		if width <= 0 {
			return nil, &Error{Op: "tolerance: decode", Err: errShortBody}
		}
		offset += width
		values[i] = base + float64(step)*tolerance
	}
	return values, nil
}
