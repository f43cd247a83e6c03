package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	renderpool "github.com/alnah/go-renderpool"
	"github.com/alnah/go-renderpool/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// errUsage marks command-line errors for exit-code mapping.
var errUsage = errors.New("usage error")

// shutdownGrace bounds how long in-flight requests may drain on SIGTERM.
const shutdownGrace = 15 * time.Second

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCodeFor(err))
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if flags.version {
		fmt.Println(Version)
		return nil
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	env := loadEnvConfig()
	warnUnknownEnvVars(os.Stderr)

	var fileCfg *config.Config
	configPath := flags.config
	if configPath == "" {
		configPath = env.ConfigPath
	}
	if configPath != "" {
		fileCfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	s := resolveSettings(flags, env, fileCfg)

	pool, err := renderpool.NewPool(s.pool, renderpool.WithPoolLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := pool.Shutdown(); err != nil {
			logger.Warn("pool shutdown reported errors", "error", err)
		}
	}()

	gate := renderpool.NewContentGate()
	renderer := renderpool.NewRenderer(pool,
		renderpool.WithTimeout(s.timeout),
		renderpool.WithViewport(s.viewportWidth, s.viewportHeight),
		renderpool.WithDeviceScaleFactor(s.scaleFactor),
		renderpool.WithQuality(s.quality),
		renderpool.WithGate(gate),
		renderpool.WithLogger(logger),
	)
	batch := renderpool.NewBatchRenderer(renderer, s.batchConcurrency)
	health := renderpool.NewHealthReporter(pool, renderpool.WithScoreSource(gate))

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           newServer(renderer, batch, health, logger, Version).routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", s.addr,
			"poolMin", s.pool.MinInstances, "poolMax", s.pool.MaxInstances)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Warn("server drain incomplete", "error", err)
	}
	return nil
}
