// Package dataset implements the metadata store (C8): persisted
// dataset-level and per-parameter metadata, dimension-name aliasing, and
// the parameter statistics discovery scan.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata is the persisted per-dataset JSON document: axis labels, axis
// sizes, dimension names, and opaque source attributes.
type Metadata struct {
	AxisLabels      map[string][]any `json:"axis_labels"`
	XMax            int              `json:"x_max"`
	YMax            int              `json:"y_max"`
	ZMax            int              `json:"z_max"`
	XDimensionName  string           `json:"x_dimension_name"`
	YDimensionName  string           `json:"y_dimension_name"`
	ZDimensionName  string           `json:"z_dimension_name"`
	DatasetDict     map[string]any   `json:"dataset_dict"`
}

// ParameterMetadata is the persisted per-parameter JSON document.
type ParameterMetadata struct {
	FirstValidTimeSlice         int     `json:"first_valid_time_slice"`
	LastValidTimeSlice          int     `json:"last_valid_time_slice"`
	MinimumValue                float64 `json:"minimum_value"`
	MaximumValue                float64 `json:"maximum_value"`
	MedianOf1Quantiles          float64 `json:"median_of_1quantiles"`
	MedianOf99Quantiles         float64 `json:"median_of_99quantiles"`
	ResampleResolution          int     `json:"resample_resolution"`
	MinMaxValuesApproximateOnly bool    `json:"min_max_values_approximate_only"`
}

// writeJSONAtomic marshals v and writes it to path by writing to a temp
// file in the same directory and renaming over the target, so a reader
// never observes a partially written file. Grounded on the teacher's own
// edit-in-place pattern (write to temp, os.Rename over the original).
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: marshaling %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("dataset: creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("dataset: writing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("dataset: closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("dataset: renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("dataset: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("dataset: parsing %s: %w", path, err)
	}
	return nil
}

// SaveMetadata persists m to path atomically.
func SaveMetadata(path string, m Metadata) error {
	return writeJSONAtomic(path, m)
}

// LoadMetadata reads a Metadata document from path.
func LoadMetadata(path string) (Metadata, error) {
	var m Metadata
	err := readJSON(path, &m)
	return m, err
}

// SaveParameterMetadata persists pm to path atomically.
func SaveParameterMetadata(path string, pm ParameterMetadata) error {
	return writeJSONAtomic(path, pm)
}

// LoadParameterMetadata reads a ParameterMetadata document from path.
func LoadParameterMetadata(path string) (ParameterMetadata, error) {
	var pm ParameterMetadata
	err := readJSON(path, &pm)
	return pm, err
}
