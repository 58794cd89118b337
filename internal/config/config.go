// Package config loads the YAML accelerator configuration from
// SPEC_FULL.md §6.1, in the same struct-tag/yaml.Unmarshal style the
// teacher's core.LoadProgramFileFromYAML uses for its own YAML-driven
// instruction programs (core/program.go).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MemoryConfig describes the backing memory and its pipeline.
type MemoryConfig struct {
	Words         uint32 `yaml:"words"`
	WordBytes     uint32 `yaml:"word_bytes"`
	PipelineDepth int    `yaml:"pipeline_depth"`
	Grain         uint32 `yaml:"grain"`
	Trace         bool   `yaml:"trace"`
}

// Config is the decoded form of the YAML document SPEC_FULL.md §6.1
// describes.
type Config struct {
	Accelerator  string       `yaml:"accelerator"`
	NumTileRows  int          `yaml:"num_tile_rows"`
	NumTileCols  int          `yaml:"num_tile_cols"`
	Memory       MemoryConfig `yaml:"memory"`
	CacheEntries int          `yaml:"cache_entries"`
}

// Load reads and decodes the YAML configuration at path, then
// validates it. An unsupported accelerator name or a non-positive tile
// grid dimension is a configuration error — fatal at setup time, per
// spec.md §7 — and is returned as an error for the CLI to report and
// exit on, rather than panicking mid-load.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Accelerator != "nio" {
		return fmt.Errorf("config: unsupported accelerator %q", c.Accelerator)
	}
	if c.NumTileRows <= 0 || c.NumTileCols <= 0 {
		return fmt.Errorf("config: tile grid must be positive, got %dx%d", c.NumTileRows, c.NumTileCols)
	}
	if c.Memory.Words == 0 {
		return fmt.Errorf("config: memory.words must be positive")
	}
	if c.Memory.WordBytes == 0 {
		c.Memory.WordBytes = 4
	}
	if c.Memory.PipelineDepth == 0 {
		c.Memory.PipelineDepth = 2
	}
	if c.Memory.Grain == 0 {
		c.Memory.Grain = c.Memory.WordBytes
	}
	if c.CacheEntries == 0 {
		c.CacheEntries = 64
	}
	return nil
}
