// Package proc runs external filter commands.
package proc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/recomp/log"
)

type config struct {
	logger log.Logger
	path   []string
	env    []string
	dir    string
}

// Option configures [Output].
type Option func(config) config

// WithPathPrefix places dirs at the front of the command's PATH.
// The command itself is also looked up there.
func WithPathPrefix(dirs ...string) Option {
	return func(c config) config {
		c.path = append(c.path[:len(c.path):len(c.path)], dirs...)

		return c
	}
}

// WithEnv adds KEY=VALUE pairs to the command's environment.
func WithEnv(kv ...string) Option {
	return func(c config) config {
		c.env = append(c.env[:len(c.env):len(c.env)], kv...)

		return c
	}
}

// WithDir sets the command's working directory.
func WithDir(dir string) Option {
	return func(c config) config {
		c.dir = dir

		return c
	}
}

// WithLogger sets the logger that receives command diagnostics.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// Output runs args[0] with the remaining arguments, writes input to its
// standard input, and returns everything it wrote to standard output.
// Standard error is passed through to the caller's standard error.
//
// If the command exits with a non-zero status, a warning is logged and the
// captured output is returned together with an error matching
// [ErrCommandFailed].
func Output(
	ctx context.Context,
	args []string,
	input []byte,
	opts ...Option,
) ([]byte, error) {
	if len(args) == 0 || args[0] == "" {
		return nil, ErrNoCommand
	}

	cfg := config{logger: log.Default()}
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	env := os.Environ()

	if len(cfg.path) > 0 {
		path := searchPath(os.Getenv("PATH"), cfg.path...)
		env = append(env, "PATH="+path)

		if name, ok := lookPath(args[0], path); ok {
			args = append([]string{name}, args[1:]...)
		}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(env, cfg.env...)
	cmd.Dir = cfg.dir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer

	cmd.Stdout = &stdout

	attrs := []slog.Attr{
		slog.String("command", strings.Join(args, " ")),
		slog.Int("input", len(input)),
	}

	cfg.logger.DebugContext(ctx, "running command", attrs...)

	err := cmd.Run()

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		cfg.logger.TraceContext(ctx, "command finished",
			append(attrs, slog.Int("output", stdout.Len()))...)

		return stdout.Bytes(), nil

	case errors.As(err, &exitErr):
		fail := ErrCommandFailed.Wrap(err).With(
			append(attrs, slog.Int("status", exitErr.ExitCode()))...)
		cfg.logger.WarnContext(ctx, "command failed with status",
			slog.Any("error", fail))

		return stdout.Bytes(), fail

	default:
		return nil, ErrStart.Wrap(err).With(attrs...)
	}
}

// searchPath returns path with dirs placed in front, using the platform's
// list separator.
func searchPath(path string, dirs ...string) string {
	return mung.Make(
		mung.WithSubjectItems(path),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(dirs...),
	).String()
}

// lookPath resolves name against the directories in path, returning false if
// name contains a separator or is not found there.
func lookPath(name, path string) (string, bool) {
	if strings.ContainsRune(name, os.PathSeparator) {
		return "", false
	}

	for dir := range strings.SplitSeq(path, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}

		candidate := dir + string(os.PathSeparator) + name

		if info, err := os.Stat(candidate); err == nil &&
			info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			return candidate, true
		}
	}

	return "", false
}
