package codec

// TileCompressor is the C2 component: it picks, per encode call, between
// the lossless and lossy tile body codecs, and carries the two
// tolerances the lossy path chooses between.
type TileCompressor struct {
	lossless   *LosslessCodec
	tolerance  *ToleranceCompressor
	defaultTol float64
	anomalyTol float64
}

// NewTileCompressor builds a TileCompressor. defaultTolerance applies to
// ordinary parameters; anomalyTolerance applies when the caller marks a
// tile as belonging to an anomaly-class (derived) parameter.
func NewTileCompressor(defaultTolerance, anomalyTolerance float64) (*TileCompressor, error) {
	lossless, err := NewLosslessCodec()
	if err != nil {
		return nil, err
	}
	return &TileCompressor{
		lossless:   lossless,
		tolerance:  NewToleranceCompressor(),
		defaultTol: defaultTolerance,
		anomalyTol: anomalyTolerance,
	}, nil
}

// Close releases the lossless codec's background resources.
func (c *TileCompressor) Close() {
	c.lossless.Close()
}

// ToleranceFor returns the tolerance that applies to isAnomaly tiles.
func (c *TileCompressor) ToleranceFor(isAnomaly bool) float64 {
	if isAnomaly {
		return c.anomalyTol
	}
	return c.defaultTol
}

// EncodeLossless compresses values exactly.
func (c *TileCompressor) EncodeLossless(values []float64) []byte {
	return c.lossless.Encode(values)
}

// DecodeLossless decompresses n exact values.
func (c *TileCompressor) DecodeLossless(compressed []byte, n int) ([]float64, error) {
	return c.lossless.Decode(compressed, n)
}

// EncodeLossy quantizes values at the tolerance selected by isAnomaly,
// returning the encoded body and the reported maximum error.
func (c *TileCompressor) EncodeLossy(values []float64, isAnomaly bool) (blob []byte, maxError float64) {
	return c.tolerance.EncodeAt(values, c.ToleranceFor(isAnomaly))
}

// DecodeLossy reconstructs n values from a lossy-encoded blob.
func (c *TileCompressor) DecodeLossy(blob []byte, n int) ([]float64, error) {
	return c.tolerance.Decode(blob, n)
}
