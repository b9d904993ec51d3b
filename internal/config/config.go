// Package config loads the server/dataset JSON configuration that ties
// a bucket path, chunk layout, tile size, and compression tolerances
// together into a runnable dataset - the ambient counterpart to the
// original's ServerConfig file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DatasetConfig describes one servable (dataset, parameter) pair: where
// its chunks live, how it is shaped and chunked, and how its tiles
// should be compressed.
type DatasetConfig struct {
	DatasetID string `json:"dataset_id"`
	Parameter string `json:"parameter"`

	BucketURL    string `json:"bucket_url"`
	ChunkPrefix  string `json:"chunk_prefix"`
	DataType     string `json:"data_type"` // "float32" | "float64"

	Shape      [3]int `json:"shape"`
	ChunkShape [3]int `json:"chunk_shape"`

	ZDimensionName string `json:"z_dimension_name"`
	YDimensionName string `json:"y_dimension_name"`
	XDimensionName string `json:"x_dimension_name"`

	TileSize            int     `json:"tile_size"`
	DefaultTolerance     float64 `json:"default_tolerance"`
	AnomalyTolerance     float64 `json:"anomaly_tolerance"`
	IsAnomalyParameter   bool    `json:"is_anomaly_parameter"`
	Lossless             bool    `json:"lossless"`
	PreGenerationSparsity int    `json:"pre_generation_sparsity"`
}

// ServerConfig is the top-level config file: server-wide options plus
// the list of datasets it serves.
type ServerConfig struct {
	Port           string          `json:"port"`
	CORSOrigin     string          `json:"cors_origin"`
	Workers        int             `json:"workers"`
	GenerationCacheDir string      `json:"generation_cache_dir"`
	Datasets       []DatasetConfig `json:"datasets"`
}

// Load reads and parses a ServerConfig from path.
func Load(path string) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg ServerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	for i := range c.Datasets {
		if c.Datasets[i].TileSize <= 0 {
			c.Datasets[i].TileSize = 256
		}
		if c.Datasets[i].PreGenerationSparsity <= 0 {
			c.Datasets[i].PreGenerationSparsity = 1
		}
	}
}
