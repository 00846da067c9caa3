// Package profile provides optional runtime profiling for the recomp
// command.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] behind the "pprof" build
// tag. Without the tag every operation is a no-op, [Modes] is empty, and the
// command exposes no profiling flags.
//
// # Available Profiling Modes
//
// The following modes are supported when built with the pprof tag:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Using File-Based Profiling
//
// A profiler is described by a [Config] and started with [Config.Start]:
//
//	var cfg profile.Config = func() (string, string, bool) {
//	    return "cpu", "/tmp/profiles", true
//	}
//	defer cfg.Start().Stop()
//
// Profile files are written to the given directory with names matching the
// profiling mode (e.g., cpu.pprof, mem.pprof).
//
// # Command-Line Usage
//
//	go build -tags pprof .
//
//	# Profile rendering a large document
//	./recomp --pprof-mode cpu render big.yaml -o /dev/null
//
//	# Heap profiling with a custom output directory
//	./recomp --pprof-mode heap --pprof-dir ./profiles check big.yaml
//
// The default output directory is the "pprof" subdirectory of the user cache
// directory, e.g. $XDG_CACHE_HOME/recomp/pprof.
//
// # Analyzing Profile Data
//
//	go tool pprof ./recomp /tmp/profiles/cpu.pprof
//	go tool pprof -http=: /tmp/profiles/cpu.pprof
//
// Importing this package with the pprof tag also registers the
// [net/http/pprof] handlers on the default HTTP mux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
