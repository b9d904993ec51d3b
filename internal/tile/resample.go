package tile

import "github.com/lexcube/lexcube-go/internal/cube"

// EffectiveResampleResolution computes R' = max(1, R * 2^-lod), honoring
// the "non-integer reverts to 1" rule literally: only an integral R' > 1
// triggers stride-sampling.
func EffectiveResampleResolution(resampleResolution, lod int) int {
	if resampleResolution <= 1 {
		return 1
	}
	scale := Scale(lod)
	if resampleResolution%scale != 0 {
		return 1
	}
	rPrime := resampleResolution / scale
	if rPrime <= 1 {
		return 1
	}
	return rPrime
}

// applyResampleResolution stride-samples win by rPrime along both axes,
// replicating the last available row/column where the window's extent
// past what was actually read runs out, so that every rPrime-cell block
// aligns. When rPrime is 1 this is a no-op (returns win unchanged).
func applyResampleResolution(win *cube.Matrix2D, rPrime int) *cube.Matrix2D {
	if rPrime <= 1 {
		return win
	}
	outH := (win.H + rPrime - 1) / rPrime
	outW := (win.W + rPrime - 1) / rPrime
	out := &cube.Matrix2D{H: outH, W: outW, Data: make([]float64, outH*outW)}
	for i := 0; i < outH; i++ {
		row := i * rPrime
		if row >= win.H {
			row = win.H - 1
		}
		for j := 0; j < outW; j++ {
			col := j * rPrime
			if col >= win.W {
				col = win.W - 1
			}
			out.Data[i*outW+j] = win.At(row, col)
		}
	}
	return out
}
