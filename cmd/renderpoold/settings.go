package main

import (
	"time"

	renderpool "github.com/alnah/go-renderpool"
	"github.com/alnah/go-renderpool/internal/config"
)

// defaultAddr is the daemon's listen address when nothing else is set.
const defaultAddr = ":8082"

// settings are the fully resolved runtime parameters.
// Precedence: CLI flags > env vars > config file > defaults.
type settings struct {
	addr             string
	pool             renderpool.PoolConfig
	timeout          time.Duration
	viewportWidth    int
	viewportHeight   int
	scaleFactor      float64
	quality          int
	batchConcurrency int
}

// resolveSettings merges the three configuration sources over the defaults.
// file may be nil (no config file in use).
func resolveSettings(flags *cliFlags, env *envConfig, file *config.Config) settings {
	s := settings{
		addr:             defaultAddr,
		pool:             renderpool.DefaultPoolConfig(),
		timeout:          renderpool.DefaultTimeout,
		viewportWidth:    renderpool.DefaultViewportWidth,
		viewportHeight:   renderpool.DefaultViewportHeight,
		scaleFactor:      renderpool.DefaultScaleFactor,
		quality:          renderpool.DefaultJPEGQuality,
		batchConcurrency: renderpool.DefaultBatchConcurrency,
	}

	// Config file (lowest non-default tier)
	if file != nil {
		if file.Server.Addr != "" {
			s.addr = file.Server.Addr
		}
		if file.Pool.Min > 0 {
			s.pool.MinInstances = file.Pool.Min
		}
		if file.Pool.Max > 0 {
			s.pool.MaxInstances = file.Pool.Max
		}
		if file.Pool.MaxAge > 0 {
			s.pool.MaxAge = file.Pool.MaxAge
		}
		if file.Pool.IdleTimeout > 0 {
			s.pool.IdleTimeout = file.Pool.IdleTimeout
		}
		if file.Pool.Headless != nil {
			s.pool.Headless = *file.Pool.Headless
		}
		if file.Render.Timeout > 0 {
			s.timeout = file.Render.Timeout
		}
		if file.Render.ViewportWidth > 0 {
			s.viewportWidth = file.Render.ViewportWidth
		}
		if file.Render.ViewportHeight > 0 {
			s.viewportHeight = file.Render.ViewportHeight
		}
		if file.Render.ScaleFactor > 0 {
			s.scaleFactor = file.Render.ScaleFactor
		}
		if file.Render.Quality > 0 {
			s.quality = file.Render.Quality
		}
		if file.Batch.Concurrency > 0 {
			s.batchConcurrency = file.Batch.Concurrency
		}
	}

	// Environment variables
	if env.Addr != "" {
		s.addr = env.Addr
	}
	if env.PoolMin > 0 {
		s.pool.MinInstances = env.PoolMin
	}
	if env.PoolMax > 0 {
		s.pool.MaxInstances = env.PoolMax
	}
	if env.MaxAge > 0 {
		s.pool.MaxAge = env.MaxAge
	}
	if env.IdleTimeout > 0 {
		s.pool.IdleTimeout = env.IdleTimeout
	}
	if env.Headless != nil {
		s.pool.Headless = *env.Headless
	}
	if env.Timeout > 0 {
		s.timeout = env.Timeout
	}
	if env.ViewportWidth > 0 {
		s.viewportWidth = env.ViewportWidth
	}
	if env.ViewportHeight > 0 {
		s.viewportHeight = env.ViewportHeight
	}
	if env.ScaleFactor > 0 {
		s.scaleFactor = env.ScaleFactor
	}
	if env.Quality > 0 {
		s.quality = env.Quality
	}
	if env.BatchConcurrency > 0 {
		s.batchConcurrency = env.BatchConcurrency
	}

	// CLI flags (highest tier)
	if flags.addr != "" {
		s.addr = flags.addr
	}
	if flags.poolMin > 0 {
		s.pool.MinInstances = flags.poolMin
	}
	if flags.poolMax > 0 {
		s.pool.MaxInstances = flags.poolMax
	}
	if flags.timeout > 0 {
		s.timeout = flags.timeout
	}
	if flags.changed("headless") {
		s.pool.Headless = flags.headless
	}

	return s
}
