package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/voxfield/pkg/fieldio"
	"github.com/chazu/voxfield/pkg/graph"
)

// Defaults applied when neither the config, the flags nor the scene's
// (grid ...) form choose a value.
const (
	DefaultCell    = graph.DefaultCell
	DefaultPadding = 1
)

// Config holds bake settings. It is loaded from an optional YAML file and
// then overridden by command-line flags.
type Config struct {
	// Cell is the voxel edge length in scene units. 0 defers to the scene.
	Cell float64 `yaml:"cell"`
	// Padding is the number of free voxels around the scene bounds.
	// -1 defers to the scene.
	Padding int `yaml:"padding"`
	// Width is the distance element size in bits: 8, 16 or 32.
	Width int `yaml:"width"`
	// Cap lowers the saturation cap. 0 uses the largest useful cap.
	Cap int `yaml:"cap"`
	// Workers bounds the goroutines used per pass. 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Compression is the payload codec: none, lz4 or zstd.
	Compression fieldio.Compression `yaml:"compression"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Cell:        0,
		Padding:     -1,
		Width:       8,
		Cap:         0,
		Workers:     0,
		Compression: fieldio.CompressionZstd,
		LogLevel:    "info",
	}
}

// LoadConfig reads path over DefaultConfig. An empty path returns the
// defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the bake pipeline cannot honour.
func (c Config) Validate() error {
	var errs []error
	if c.Cell < 0 || math.IsNaN(c.Cell) || math.IsInf(c.Cell, 0) {
		errs = append(errs, fmt.Errorf("cell must be positive (or 0 for the scene default), got %g", c.Cell))
	}
	if c.Padding < -1 {
		errs = append(errs, fmt.Errorf("padding must be non-negative (or -1 for the scene default), got %d", c.Padding))
	}
	switch c.Width {
	case 8, 16, 32:
	default:
		errs = append(errs, fmt.Errorf("width must be 8, 16 or 32, got %d", c.Width))
	}
	if c.Cap < 0 {
		errs = append(errs, fmt.Errorf("cap must not be negative, got %d", c.Cap))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	switch c.Compression {
	case fieldio.CompressionNone, fieldio.CompressionLZ4, fieldio.CompressionZstd:
	default:
		errs = append(errs, fmt.Errorf("unknown compression %s", c.Compression))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// workers resolves the Workers setting.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
