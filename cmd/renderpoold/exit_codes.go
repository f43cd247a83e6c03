package main

import (
	"errors"
	"os"

	renderpool "github.com/alnah/go-renderpool"
	"github.com/alnah/go-renderpool/internal/config"
)

// Exit codes for renderpoold.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Clean shutdown
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags or config
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, renderpool.ErrBrowserLaunch) ||
		errors.Is(err, renderpool.ErrBrowserConnect) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage/config errors (exit 2)
	if errors.Is(err, errUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, renderpool.ErrPoolConfig) {
		return ExitUsage
	}

	return ExitGeneral
}
