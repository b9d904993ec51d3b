package tile

import (
	"math"

	"github.com/lexcube/lexcube-go/internal/cube"
)

// padToTile embeds win into the top-left of a tileSize x tileSize matrix,
// padding the right and bottom edges with NaN (invariant I3: a generated
// tile is always exactly T x T).
func padToTile(win *cube.Matrix2D, tileSize int) *cube.Matrix2D {
	if win.H == tileSize && win.W == tileSize {
		return win
	}
	out := cube.NewMatrix2D(tileSize, tileSize)
	for r := 0; r < win.H && r < tileSize; r++ {
		for c := 0; c < win.W && c < tileSize; c++ {
			out.Data[r*tileSize+c] = win.At(r, c)
		}
	}
	return out
}

// bilinearResize resizes win to outSize x outSize via NaN-aware bilinear
// interpolation: every NaN neighbor is excluded from the weighted
// average and the remaining weights are renormalized; if all four
// neighbors are NaN (or only NaN neighbors carry weight) the output
// pixel is NaN.
func bilinearResize(win *cube.Matrix2D, outSize int) *cube.Matrix2D {
	out := &cube.Matrix2D{H: outSize, W: outSize, Data: make([]float64, outSize*outSize)}
	if win.H == 0 || win.W == 0 {
		for i := range out.Data {
			out.Data[i] = math.NaN()
		}
		return out
	}
	rowRatio := float64(win.H) / float64(outSize)
	colRatio := float64(win.W) / float64(outSize)
	for i := 0; i < outSize; i++ {
		srcR := (float64(i)+0.5)*rowRatio - 0.5
		r0 := int(math.Floor(srcR))
		r1 := r0 + 1
		fr := srcR - float64(r0)
		r0 = clampIdx(r0, win.H)
		r1 = clampIdx(r1, win.H)
		for j := 0; j < outSize; j++ {
			srcC := (float64(j)+0.5)*colRatio - 0.5
			c0 := int(math.Floor(srcC))
			c1 := c0 + 1
			fc := srcC - float64(c0)
			c0 = clampIdx(c0, win.W)
			c1 = clampIdx(c1, win.W)

			out.Data[i*outSize+j] = bilinearBlend(
				win.At(r0, c0), win.At(r0, c1), win.At(r1, c0), win.At(r1, c1),
				fr, fc,
			)
		}
	}
	return out
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func bilinearBlend(v00, v01, v10, v11, fr, fc float64) float64 {
	type sample struct {
		v, w float64
	}
	samples := [4]sample{
		{v00, (1 - fr) * (1 - fc)},
		{v01, (1 - fr) * fc},
		{v10, fr * (1 - fc)},
		{v11, fr * fc},
	}
	var sum, weight float64
	for _, s := range samples {
		if math.IsNaN(s.v) {
			continue
		}
		sum += s.v * s.w
		weight += s.w
	}
	if weight == 0 {
		return math.NaN()
	}
	return sum / weight
}

// stridedResize resizes win to outSize x outSize by nearest-neighbor
// stride sampling, the fallback used when the source is chunked finely
// enough that a full bilinear read would drag many chunks into memory
// just to be discarded.
func stridedResize(win *cube.Matrix2D, outSize int) *cube.Matrix2D {
	out := &cube.Matrix2D{H: outSize, W: outSize, Data: make([]float64, outSize*outSize)}
	if win.H == 0 || win.W == 0 {
		for i := range out.Data {
			out.Data[i] = math.NaN()
		}
		return out
	}
	rowRatio := float64(win.H) / float64(outSize)
	colRatio := float64(win.W) / float64(outSize)
	for i := 0; i < outSize; i++ {
		r := clampIdx(int(float64(i)*rowRatio), win.H)
		for j := 0; j < outSize; j++ {
			c := clampIdx(int(float64(j)*colRatio), win.W)
			out.Data[i*outSize+j] = win.At(r, c)
		}
	}
	return out
}
