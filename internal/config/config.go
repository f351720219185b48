// Package config loads fusionscope settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = ".fusionscope.toml"

// Config holds file-level settings. Command-line flags override them.
type Config struct {
	Output OutputConfig `toml:"output"`
	DOT    DOTConfig    `toml:"dot"`
	Store  StoreConfig  `toml:"store"`
}

// OutputConfig controls report output.
type OutputConfig struct {
	// Format is "text" or "json".
	Format string `toml:"format"`
	// Color enables colored banners in text output.
	Color bool `toml:"color"`
}

// DOTConfig overrides DOT rendering defaults.
type DOTConfig struct {
	RankDir   string `toml:"rankdir"`
	NodeShape string `toml:"node_shape"`
	GraphName string `toml:"graph_name"`
}

// StoreConfig locates the capture archive.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Output: OutputConfig{Format: "text", Color: true},
		DOT:    DOTConfig{RankDir: "TB", NodeShape: "box", GraphName: "OperationGraph"},
	}
}

var (
	validFormats  = []string{"text", "json"}
	validRankDirs = []string{"TB", "BT", "LR", "RL"}
)

// Load reads path over the defaults. An empty path falls back to
// DefaultFile, and a missing DefaultFile yields the defaults. A missing
// explicit path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	if !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("[output].format must be one of %s, got %q", strings.Join(validFormats, ", "), c.Output.Format)
	}
	if c.DOT.RankDir != "" && !slices.Contains(validRankDirs, c.DOT.RankDir) {
		return fmt.Errorf("[dot].rankdir must be one of %s, got %q", strings.Join(validRankDirs, ", "), c.DOT.RankDir)
	}
	if strings.ContainsAny(c.DOT.NodeShape, " \t\n\"") {
		return fmt.Errorf("[dot].node_shape must be a single word, got %q", c.DOT.NodeShape)
	}
	return nil
}
