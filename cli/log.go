package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/recomp/log"
)

// logFormat configures the logger format as a side effect of parsing, so
// that errors reported while parsing the rest of the command line already
// use it.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevel}"  enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"${logFormat}" enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"${logTime}"                          help:"Set timestamp format (name such as RFC3339 or kitchen, a Go layout, or none)."`
	Caller     bool      `default:"false"                               help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"false"                               help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":      log.DefaultLevel.String(),
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":     log.DefaultFormat.String(),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
		"logTime":       "RFC3339",
	}
}

func (*logConfig) groups() []kong.Group {
	return []kong.Group{{Key: "log", Title: "Logging options"}}
}

// start applies every parsed logging flag and returns a function that logs
// the elapsed run time.
func (f *logConfig) start(ctx context.Context) (stop func()) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	began := time.Now()

	return func() {
		log.TraceContext(ctx, "run finished",
			slog.Duration("elapsed", time.Since(began)))
	}
}

// logFlag describes how [logConfig.scan] applies one command-line flag.
type logFlag struct {
	name string
	// set applies a value; boolean flags receive "true" when no value is
	// assigned with "=".
	set     func(f *logConfig, value string)
	boolean bool
}

var logFlags = []logFlag{
	{name: "level", set: func(f *logConfig, v string) { _ = f.Level.UnmarshalText([]byte(v)) }},
	{name: "format", set: func(f *logConfig, v string) { _ = f.Format.UnmarshalText([]byte(v)) }},
	{name: "time-layout", set: func(f *logConfig, v string) {
		f.TimeLayout = v
		log.Config(log.WithTimeLayout(v))
	}},
	{name: "caller", boolean: true, set: func(f *logConfig, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Caller = b
			log.Config(log.WithCaller(b))
		}
	}},
	{name: "pretty", boolean: true, set: func(f *logConfig, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Pretty = b
			log.Config(log.WithPretty(b))
		}
	}},
}

// scan applies logging flags found in args before kong parses them, so the
// logger is configured regardless of where the flags appear.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		name, negate := strings.CutPrefix(arg, "--no-log-")
		if !negate {
			var ok bool
			if name, ok = strings.CutPrefix(arg, "--log-"); !ok {
				continue
			}
		}

		name, value, assigned := strings.Cut(name, "=")

		for _, flag := range logFlags {
			if flag.name != name || (negate && !flag.boolean) {
				continue
			}

			switch {
			case flag.boolean && !assigned:
				value = "true"
			case !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-"):
				i++
				value = args[i]
			}

			if negate {
				b, err := strconv.ParseBool(value)
				if err != nil {
					break
				}

				value = strconv.FormatBool(!b)
			}

			flag.set(f, value)

			break
		}
	}
}
