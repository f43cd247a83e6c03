package main

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

// cliFlags holds command-line options for the daemon.
// Flags beat environment variables, which beat the config file.
type cliFlags struct {
	addr     string
	config   string
	poolMin  int
	poolMax  int
	timeout  time.Duration
	verbose  bool
	version  bool
	headless bool

	set *flag.FlagSet
}

// parseFlags parses args (including the program name at args[0]).
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	fs.StringVar(&f.addr, "addr", "", "HTTP listen address (default :8082)")
	fs.StringVar(&f.config, "config", "", "path to YAML config file")
	fs.IntVar(&f.poolMin, "pool-min", 0, "minimum browser instances kept warm")
	fs.IntVar(&f.poolMax, "pool-max", 0, "maximum browser instances")
	fs.DurationVar(&f.timeout, "timeout", 0, "render timeout per phase (e.g. 30s)")
	fs.BoolVar(&f.headless, "headless", true, "run browsers headless")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	f.set = fs
	return f, nil
}

// changed reports whether the named flag was explicitly set.
func (f *cliFlags) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}
