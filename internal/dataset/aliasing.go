package dataset

import "strings"

// DimensionKind classifies a dimension name for the aliasing rules in
// spec.md §6.
type DimensionKind int

const (
	DimensionOther DimensionKind = iota
	DimensionLongitude
	DimensionLatitude
	DimensionTime
)

var (
	longitudeAliases = map[string]bool{"longitude": true, "lon": true}
	latitudeAliases  = map[string]bool{"latitude": true, "lat": true}
	timeAliases      = map[string]bool{"time": true}
)

// ClassifyDimension reports which alias set name (case-insensitively)
// belongs to, or DimensionOther if none.
func ClassifyDimension(name string) DimensionKind {
	lower := strings.ToLower(name)
	switch {
	case longitudeAliases[lower]:
		return DimensionLongitude
	case latitudeAliases[lower]:
		return DimensionLatitude
	case timeAliases[lower]:
		return DimensionTime
	default:
		return DimensionOther
	}
}

// ShouldSwapLonLat reports whether dimension order (dim0, dim1, dim2)
// matches (time, lon, lat) and therefore needs its latter two swapped.
func ShouldSwapLonLat(dimNames [3]string) bool {
	return ClassifyDimension(dimNames[0]) == DimensionTime &&
		ClassifyDimension(dimNames[1]) == DimensionLongitude &&
		ClassifyDimension(dimNames[2]) == DimensionLatitude
}

// SwapLonLat returns dimNames with its last two entries swapped.
func SwapLonLat(dimNames [3]string) [3]string {
	return [3]string{dimNames[0], dimNames[2], dimNames[1]}
}

// ShouldFlipLatitude reports whether an ascending latitude coordinate
// vector needs to be flipped descending (the convention this system
// expects for display).
func ShouldFlipLatitude(coords []float64) bool {
	return len(coords) >= 2 && coords[0] < coords[len(coords)-1]
}

// FlipFloat64 returns a reversed copy of values.
func FlipFloat64(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

// PatchDimensionNames applies the ordering-swap rule to dimNames and
// returns the patched names along with whether a swap occurred.
func PatchDimensionNames(dimNames [3]string) (patched [3]string, swapped bool) {
	if ShouldSwapLonLat(dimNames) {
		return SwapLonLat(dimNames), true
	}
	return dimNames, false
}
