// Package config loads the YAML configuration of the mgindex command.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	mgerrors "github.com/tamirms/mgindex/errors"
	"github.com/tamirms/mgindex/sketch"
)

// IndexConfig holds index construction parameters.
type IndexConfig struct {
	K          int    `yaml:"k"`
	W          int    `yaml:"w"`
	BucketBits int    `yaml:"bucket_bits"`
	Workers    int    `yaml:"workers"`
	Hasher     string `yaml:"hasher"`
}

// MapConfig holds query-time parameters.
type MapConfig struct {
	// MaxOccFrac is the fraction of most frequent distinct minimizers to
	// filter out; 0 disables filtering.
	MaxOccFrac float64 `yaml:"max_occ_frac"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Config is the full command configuration.
type Config struct {
	Index IndexConfig `yaml:"index"`
	Map   MapConfig   `yaml:"map"`
	Log   LogConfig   `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			K:          17,
			W:          11,
			BucketBits: 14,
			Workers:    runtime.NumCPU(),
			Hasher:     sketch.HasherInvertible,
		},
		Map: MapConfig{
			MaxOccFrac: 2e-4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load decodes YAML from r on top of the defaults. A nil or empty reader
// yields the defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	if r == nil {
		return cfg, nil
	}
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads the configuration file at path. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// Validate checks every field for range errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Index.K < 1 || c.Index.K > sketch.MaxK {
		errs = append(errs, fmt.Errorf("index.k=%d outside [1, %d]", c.Index.K, sketch.MaxK))
	}
	if c.Index.W < 1 || c.Index.W > sketch.MaxW {
		errs = append(errs, fmt.Errorf("index.w=%d outside [1, %d]", c.Index.W, sketch.MaxW))
	}
	if c.Index.BucketBits < 0 || c.Index.BucketBits > 28 {
		errs = append(errs, fmt.Errorf("index.bucket_bits=%d outside [0, 28]", c.Index.BucketBits))
	}
	if c.Index.Workers < 0 {
		errs = append(errs, fmt.Errorf("index.workers=%d is negative", c.Index.Workers))
	}
	if _, err := sketch.HasherByName(c.Index.Hasher); err != nil {
		errs = append(errs, err)
	}
	if math.IsNaN(c.Map.MaxOccFrac) || c.Map.MaxOccFrac < 0 || c.Map.MaxOccFrac >= 1 {
		errs = append(errs, fmt.Errorf("map.max_occ_frac=%v outside [0, 1)", c.Map.MaxOccFrac))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format=%q is not text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", mgerrors.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses Log.Level ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
