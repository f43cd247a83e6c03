package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring a YAML file.
type envConfig struct {
	// Pool
	PoolMin     int           // BROWSER_POOL_MIN
	PoolMax     int           // BROWSER_POOL_MAX
	MaxAge      time.Duration // BROWSER_MAX_AGE
	IdleTimeout time.Duration // BROWSER_IDLE_TIMEOUT
	Headless    *bool         // BROWSER_HEADLESS

	// Render
	Timeout        time.Duration // BROWSER_TIMEOUT
	ViewportWidth  int           // DEFAULT_VIEWPORT_WIDTH
	ViewportHeight int           // DEFAULT_VIEWPORT_HEIGHT
	ScaleFactor    float64       // DEVICE_SCALE_FACTOR
	Quality        int           // SCREENSHOT_QUALITY

	// Service
	BatchConcurrency int    // BATCH_CONCURRENCY
	Addr             string // RENDERPOOL_ADDR
	ConfigPath       string // RENDERPOOL_CONFIG
}

// knownEnvVars lists valid RENDERPOOL_* environment variables.
// Used to detect typos and warn operators about unknown variables.
// BROWSER_* and the viewport/quality names are shared with sibling services,
// so typo detection only covers the RENDERPOOL_ prefix.
var knownEnvVars = map[string]bool{
	"RENDERPOOL_ADDR":   true,
	"RENDERPOOL_CONFIG": true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		Addr:       os.Getenv("RENDERPOOL_ADDR"),
		ConfigPath: os.Getenv("RENDERPOOL_CONFIG"),
	}

	cfg.PoolMin = envInt("BROWSER_POOL_MIN")
	cfg.PoolMax = envInt("BROWSER_POOL_MAX")
	cfg.MaxAge = envDuration("BROWSER_MAX_AGE")
	cfg.IdleTimeout = envDuration("BROWSER_IDLE_TIMEOUT")
	cfg.Timeout = envDuration("BROWSER_TIMEOUT")
	cfg.ViewportWidth = envInt("DEFAULT_VIEWPORT_WIDTH")
	cfg.ViewportHeight = envInt("DEFAULT_VIEWPORT_HEIGHT")
	cfg.Quality = envInt("SCREENSHOT_QUALITY")
	cfg.BatchConcurrency = envInt("BATCH_CONCURRENCY")

	if v := os.Getenv("DEVICE_SCALE_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.ScaleFactor = f
		}
	}
	if v := os.Getenv("BROWSER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Headless = &b
		}
	}

	return cfg
}

// envInt parses a positive integer env var; invalid values are ignored.
func envInt(name string) int {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// envDuration parses a Go duration env var; invalid values are ignored.
func envDuration(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// warnUnknownEnvVars logs warnings for unrecognized RENDERPOOL_* variables.
// Helps catch typos like RENDERPOOL_ADRESS instead of RENDERPOOL_ADDR.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "RENDERPOOL_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}
