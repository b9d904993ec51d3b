package dataset

// AxisLabelInput carries one axis's raw dimension name and coordinate
// values (numeric, ISO-8601 strings, or opaque strings - display only),
// as reported by the data source before any aliasing adjustment.
type AxisLabelInput struct {
	DimensionName string
	Coords        []any
}

// BuildAxisLabels applies the dimension-name ordering swap and the
// latitude-flip rule from spec.md §6 to the three raw axis inputs
// (already in Z, Y, X cube-axis order) and returns the resulting
// dimension names and axis_labels map ready to embed in Metadata.
func BuildAxisLabels(z, y, x AxisLabelInput) (dimNames [3]string, axisLabels map[string][]any) {
	names := [3]string{z.DimensionName, y.DimensionName, x.DimensionName}
	coords := [3][]any{z.Coords, y.Coords, x.Coords}

	patchedNames, swapped := PatchDimensionNames(names)
	if swapped {
		coords[1], coords[2] = coords[2], coords[1]
	}

	for axis, name := range patchedNames {
		if ClassifyDimension(name) != DimensionLatitude {
			continue
		}
		floats, ok := asFloat64Slice(coords[axis])
		if !ok || !ShouldFlipLatitude(floats) {
			continue
		}
		coords[axis] = reverseAny(coords[axis])
	}

	return patchedNames, map[string][]any{
		"z": coords[0],
		"y": coords[1],
		"x": coords[2],
	}
}

func asFloat64Slice(values []any) ([]float64, bool) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func reverseAny(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}
