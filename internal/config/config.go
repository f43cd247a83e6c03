// Package config defines the daemon configuration file schema.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alnah/go-renderpool/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Config holds all file-based configuration for the render daemon.
// Zero values mean "not set"; env vars and flags fill the gaps.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Pool   PoolConfig   `yaml:"pool"`
	Render RenderConfig `yaml:"render"`
	Batch  BatchConfig  `yaml:"batch"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"` // listen address, e.g. ":8082"
}

// PoolConfig bounds the browser pool.
type PoolConfig struct {
	Min         int           `yaml:"min"`
	Max         int           `yaml:"max"`
	MaxAge      time.Duration `yaml:"maxAge"`
	IdleTimeout time.Duration `yaml:"idleTimeout"`
	Headless    *bool         `yaml:"headless"` // pointer: false is a real value
}

// RenderConfig defines render defaults.
type RenderConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	ViewportWidth  int           `yaml:"viewportWidth"`
	ViewportHeight int           `yaml:"viewportHeight"`
	ScaleFactor    float64       `yaml:"scaleFactor"`
	Quality        int           `yaml:"quality"`
}

// BatchConfig bounds batch fan-out.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Load reads and strictly parses a YAML config file.
// Returns an error if the file is missing (no silent fallback).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return &cfg, nil
}
