package profile

import (
	"log/slog"

	"github.com/ardnew/recomp/log"
)

// Config returns the profiler mode, the output directory, and whether the
// profiler's own console messages are suppressed.
type Config func() (mode, path string, quiet bool)

// Option replaces one field of a [Config].
type Option func(Config) Config

// Make returns a Config with every option applied to an empty one.
func Make(opts ...Option) Config {
	var c Config = func() (string, string, bool) { return "", "", false }

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// Start starts the profiler and returns a handle for stopping it.
//
// If the pprof build tag or the mode is unset, or the mode is unknown,
// Start returns a no-op. Both Start and Stop are always safely callable.
func (c Config) Start() interface{ Stop() } {
	mode, path, quiet := c()

	if mode == "" {
		return ignore{}
	}

	log.Debug("profiler start",
		slog.String("mode", mode),
		slog.String("path", path),
	)

	return start(mode, path, quiet)
}

// WithMode sets the profiler mode, one of [Modes].
func WithMode(mode string) Option {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithPath sets the directory profiles are written to.
func WithPath(path string) Option {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithQuiet suppresses the profiler's own console messages.
func WithQuiet(quiet bool) Option {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

type ignore struct{}

func (ignore) Stop() {}
