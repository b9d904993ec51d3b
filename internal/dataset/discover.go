package dataset

import (
	"context"
	"math"
	"sort"

	"github.com/lexcube/lexcube-go/internal/cube"
)

const maxQuantileSamples = 20

// DiscoverParameterStats implements the expanding-step first/last-valid-
// slice search and the approximate min/max/quantile scan from the
// original metadata-discovery pipeline, serially, for one parameter per
// call. It does no fan-out across parameters; the CLI's build command
// calls it once per configured dataset, one dataset after another.
//
// The Z axis is taken to be the discovery axis (the dataset's time
// dimension after any dimension-order patching has already been
// applied by the loader).
func DiscoverParameterStats(ctx context.Context, proxy *cube.DataSourceProxy) (ParameterMetadata, error) {
	shape := proxy.Shape()

	first, ok, err := findFirstValidSlice(ctx, proxy, shape)
	if err != nil {
		return ParameterMetadata{}, err
	}
	if !ok {
		return ParameterMetadata{MinMaxValuesApproximateOnly: true}, nil
	}
	last, err := findLastValidSlice(ctx, proxy, shape, first)
	if err != nil {
		return ParameterMetadata{}, err
	}

	min, max, q1, q99, err := sampleMinMaxQuantiles(ctx, proxy, shape, first, last)
	if err != nil {
		return ParameterMetadata{}, err
	}

	resample := detectResampleResolution(ctx, proxy, shape, first)

	return ParameterMetadata{
		FirstValidTimeSlice:         first,
		LastValidTimeSlice:          last,
		MinimumValue:                min,
		MaximumValue:                max,
		MedianOf1Quantiles:          q1,
		MedianOf99Quantiles:         q99,
		ResampleResolution:          resample,
		MinMaxValuesApproximateOnly: true,
	}, nil
}

func isSliceAllNaN(ctx context.Context, proxy *cube.DataSourceProxy, shape [3]int, z int) (bool, error) {
	m, err := proxy.Read(ctx, cube.Single(z), cube.Range{Start: 0, Stop: shape[1]}, cube.Range{Start: 0, Stop: shape[2]})
	if err != nil {
		return false, err
	}
	for _, v := range m.Data {
		if !math.IsNaN(v) {
			return false, nil
		}
	}
	return true, nil
}

// findFirstValidSlice does an exponentially expanding forward search for
// the first non-all-NaN slice, then binary-searches the boundary it
// crossed - cheaper than a linear scan when valid data starts deep into
// a mostly-empty prefix.
func findFirstValidSlice(ctx context.Context, proxy *cube.DataSourceProxy, shape [3]int) (int, bool, error) {
	nz := shape[0]
	if nz == 0 {
		return 0, false, nil
	}

	lo := -1 // last confirmed-invalid index, -1 if none
	step := 1
	z := 0
	for {
		invalid, err := isSliceAllNaN(ctx, proxy, shape, z)
		if err != nil {
			return 0, false, err
		}
		if !invalid {
			break
		}
		lo = z
		z += step
		step *= 2
		if z >= nz {
			z = nz - 1
			invalid, err := isSliceAllNaN(ctx, proxy, shape, z)
			if err != nil {
				return 0, false, err
			}
			if invalid {
				return 0, false, nil
			}
			break
		}
	}

	hi := z
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		invalid, err := isSliceAllNaN(ctx, proxy, shape, mid)
		if err != nil {
			return 0, false, err
		}
		if invalid {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, true, nil
}

// findLastValidSlice mirrors findFirstValidSlice from the end of the
// array back toward first.
func findLastValidSlice(ctx context.Context, proxy *cube.DataSourceProxy, shape [3]int, first int) (int, error) {
	nz := shape[0]
	step := 1
	z := nz - 1
	lastInvalidUpper := nz // first confirmed-invalid index from the top, exclusive
	for z >= first {
		invalid, err := isSliceAllNaN(ctx, proxy, shape, z)
		if err != nil {
			return 0, err
		}
		if !invalid {
			break
		}
		lastInvalidUpper = z
		z -= step
		step *= 2
		if z < first {
			return first, nil
		}
	}
	lo, hiIdx := z, lastInvalidUpper
	for hiIdx-lo > 1 {
		mid := (lo + hiIdx) / 2
		invalid, err := isSliceAllNaN(ctx, proxy, shape, mid)
		if err != nil {
			return 0, err
		}
		if invalid {
			hiIdx = mid
		} else {
			lo = mid
		}
	}
	return lo, nil
}

// sampleMinMaxQuantiles samples up to maxQuantileSamples slices evenly
// spaced across [first, last] and computes approximate global min, max,
// and the median of per-slice 1st/99th percentiles.
func sampleMinMaxQuantiles(ctx context.Context, proxy *cube.DataSourceProxy, shape [3]int, first, last int) (min, max, q1, q99 float64, err error) {
	count := last - first + 1
	step := 1
	if count > maxQuantileSamples {
		step = count / maxQuantileSamples
	}

	min, max = math.Inf(1), math.Inf(-1)
	var q1s, q99s []float64
	for z := first; z <= last; z += step {
		m, rerr := proxy.Read(ctx, cube.Single(z), cube.Range{Start: 0, Stop: shape[1]}, cube.Range{Start: 0, Stop: shape[2]})
		if rerr != nil {
			return 0, 0, 0, 0, rerr
		}
		values := nonNaN(m.Data)
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)
		if values[0] < min {
			min = values[0]
		}
		if values[len(values)-1] > max {
			max = values[len(values)-1]
		}
		q1s = append(q1s, percentile(values, 0.01))
		q99s = append(q99s, percentile(values, 0.99))
	}
	if math.IsInf(min, 1) {
		min, max = 0, 0
	}
	return min, max, median(q1s), median(q99s), nil
}

func nonNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// maxResampleCandidate mirrors tile_server.py's detect_resample_resolution,
// which searches range(32, 1, -1): every integer blocksize from 32 down
// to 2.
const maxResampleCandidate = 32

// detectResampleResolution reads one representative slice in full and
// searches every candidate block size from maxResampleCandidate down to
// 2, returning the first (largest) size at which the slice is constant
// within every block - the true native resample resolution, since a
// block constant at size R is trivially also constant at every smaller
// divisor of R and an ascending search would stop at the smallest such
// divisor instead. Falls back to 1 (no resampling) if nothing matches,
// matching the original's final `return 1`.
func detectResampleResolution(ctx context.Context, proxy *cube.DataSourceProxy, shape [3]int, sliceIndex int) int {
	m, err := proxy.Read(ctx, cube.Single(sliceIndex), cube.Range{Start: 0, Stop: shape[1]}, cube.Range{Start: 0, Stop: shape[2]})
	if err != nil {
		return 1
	}
	slice := m.Squeeze2D(0)
	if slice.H < 2 || slice.W < 2 {
		return 1
	}

	maxCandidate := maxResampleCandidate
	if slice.H < maxCandidate {
		maxCandidate = slice.H
	}
	if slice.W < maxCandidate {
		maxCandidate = slice.W
	}
	for block := maxCandidate; block >= 2; block-- {
		if isConstantBlocks2D(slice, block) {
			return block
		}
	}
	return 1
}

// isConstantBlocks2D reports whether every block-by-block tile of the
// slice (row and column strides of size block, with a short final block
// at each edge) shares a single value, NaN-aware.
func isConstantBlocks2D(slice *cube.Matrix2D, block int) bool {
	for y0 := 0; y0 < slice.H; y0 += block {
		y1 := y0 + block
		if y1 > slice.H {
			y1 = slice.H
		}
		for x0 := 0; x0 < slice.W; x0 += block {
			x1 := x0 + block
			if x1 > slice.W {
				x1 = slice.W
			}
			first := slice.At(y0, x0)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					v := slice.At(y, x)
					if v != first && !(math.IsNaN(v) && math.IsNaN(first)) {
						return false
					}
				}
			}
		}
	}
	return true
}
