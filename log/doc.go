// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Loggers are configured at creation time with functional options and
// accept only typed [slog.Attr] values:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithCaller(true))
//
//	logger.Debug("rendered tree", slog.Int("nodes", 42))
//
// # Package-level logger
//
// The package-level functions ([Info], [Warn], and so on) write through a
// shared logger that starts at [DefaultLevel] on standard error and is
// reconfigured with [Config]. Context-unaware functions use
// [DefaultContextProvider] for their context.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and prints as "TRACE". Levels parse
// from text with [ParseLevel], which also accepts the slog offset syntax,
// such as "warn+2".
//
// # Output
//
// [FormatText] and [FormatJSON] select the standard slog handlers. With
// [WithPretty], both are replaced by a colorized handler meant for
// terminals. [WithTimeLayout] accepts any named [time] layout, a short
// alias such as "ms", or a custom layout; "none" disables timestamps.
package log
