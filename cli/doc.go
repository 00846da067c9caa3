// Package cli contains the command line interface for recomp.
//
// # Usage
//
//	recomp [flags] [SOURCE ...]            render markup (default command)
//	recomp render -o out.xml -d EXPR doc.yaml
//	recomp check doc.yaml
//	recomp tree doc.yaml
//	recomp fmt json -i 2 doc.yaml
//	recomp init --force
//
// Each SOURCE is a YAML, JSON, or TOML tree document, selected by file
// extension unless --format is given, or "-" for stdin.
//
// # Configuration
//
// Flag defaults are read from config.yaml and config.json in the user
// configuration directory (for example ~/.config/recomp). The YAML file
// accepts nested mappings and either hyphens or underscores in keys:
//
//	log:
//	  level: debug
//	indent: 4
//
// "recomp init" writes the current global flag values to config.yaml.
// Command-line flags override configuration values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, kitchen, none, ...)
//   - --[no-]log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o recomp .
//
//   - --pprof-mode: Enable profiling (see --help for the modes)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/recomp/pprof)
package cli
