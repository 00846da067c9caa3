package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/pkg"
	"github.com/ardnew/recomp/tree"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type outputKey struct{}

// WithOutput returns a new context.Context whose commands write their
// results to w instead of standard output.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// stdioPath is the special path naming stdin or stdout.
const stdioPath = "-"

// Input selects the tree documents a command reads.
type Input struct {
	Format string `default:"" enum:",yaml,json,toml" help:"Document format (default: by file extension, else yaml)." placeholder:"FORMAT" short:"F"`

	Sources []string `arg:"" default:"-" help:"Tree documents or '-' for stdin." name:"source" optional:""`
}

// load decodes every source into one tree and validates it.
// Top-level statements of later sources follow those of earlier ones.
// The caller must destroy the returned tree.
func (in *Input) load(ctx context.Context) (*tree.Block, error) {
	srcs, err := openSources(in.Sources)
	if err != nil {
		return nil, err
	}
	defer srcs.close()

	var stmts []tree.Statement

	for _, src := range srcs {
		f := tree.FormatOf(src.name)
		if in.Format != "" {
			f, err = tree.ParseFormat(in.Format)
			if err != nil {
				return nil, err
			}
		}

		part, err := tree.ReadStatements(ctx, src, f)
		if err != nil {
			return nil, tree.WrapError(err).With(slog.String("source", src.name))
		}

		log.TraceContext(ctx, "read source",
			slog.String("source", src.name),
			slog.String("format", f.String()),
			slog.Int("statements", len(part)),
		)

		stmts = append(stmts, part...)
	}

	root, err := tree.Build(tree.NewBuilder(nil), stmts)
	if err != nil {
		return nil, ErrInvalidTree.Wrap(err)
	}

	if err := tree.Validate(root); err != nil {
		root.Destroy()

		return nil, ErrInvalidTree.Wrap(err)
	}

	return root, nil
}

// source is an open tree document.
type source struct {
	io.Reader

	name  string
	close func() error
}

type sources []source

func (s sources) close() {
	for _, src := range s {
		if src.close != nil {
			_ = src.close()
		}
	}
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// openSources opens each path once, in order.
//
// Paths naming the same file (through symlinks, relative paths, or
// /dev/stdin) are read only the first time they appear. All occurrences of
// "-" are replaced with a single stdin reader placed last so it reads after
// all regular files.
func openSources(paths []string) (sources, error) {
	if len(paths) == 0 {
		paths = []string{stdioPath}
	}

	var (
		srcs     = make(sources, 0, len(paths))
		seen     = make(map[fileKey]struct{})
		hasStdin bool
	)

	stdinKey, stdinOK := fileKey{}, false
	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, stdinOK = makeFileKey(info)
	}

	for _, path := range paths {
		if path == stdioPath {
			hasStdin = true

			continue
		}

		file, key, err := openFile(path)
		if err != nil {
			srcs.close()

			return nil, err
		}

		if stdinOK && key == stdinKey {
			hasStdin = true
			_ = file.Close()

			continue
		}

		if _, dup := seen[key]; dup {
			_ = file.Close()

			continue
		}

		seen[key] = struct{}{}
		srcs = append(srcs, source{Reader: file, name: path, close: file.Close})
	}

	if hasStdin {
		srcs = append(srcs, source{Reader: os.Stdin, name: stdioPath})
	}

	return srcs, nil
}

// openFile opens the file at path after resolving symlinks and returns its
// identity.
func openFile(path string) (*os.File, fileKey, error) {
	fail := func(err error) (*os.File, fileKey, error) {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fileKey{}, ErrNoSuchSource.Wrap(err).
				With(slog.String("source", path))
		}

		return nil, fileKey{}, ErrOpenSource.Wrap(err).
			With(slog.String("source", path))
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fail(err)
	}

	file, err := os.Open(resolved)
	if err != nil {
		return fail(err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()

		return fail(err)
	}

	if err := checkFileType(info); err != nil {
		_ = file.Close()

		return fail(err)
	}

	key, _ := makeFileKey(info)

	return file, key, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// checkFileType accepts regular files, FIFOs, and character devices.
func checkFileType(info os.FileInfo) error {
	m := info.Mode()
	if m.IsRegular() || m&(os.ModeNamedPipe|os.ModeCharDevice) != 0 {
		return nil
	}

	return pkg.ErrInvalidFileType.Wrapf("%s", m.Type())
}

// closeOutput closes out and reports a failure through err unless err
// already holds one.
func closeOutput(out io.Closer, err *error) {
	if cerr := out.Close(); cerr != nil && *err == nil {
		*err = pkg.ErrWriteOutput.Wrap(cerr)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, truncating it. An empty path or "-"
// selects the context's output writer.
func openOutput(ctx context.Context, path string) (io.WriteCloser, error) {
	if path == "" || path == stdioPath {
		return nopCloser{outputFrom(ctx)}, nil
	}

	fail := func(err error) (io.WriteCloser, error) {
		return nil, ErrOpenOutput.Wrap(err).With(slog.String("output", path))
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fail(err)
	}

	info, err := file.Stat()
	if err == nil {
		err = checkFileType(info)
	}

	if err != nil {
		_ = file.Close()

		return fail(err)
	}

	return file, nil
}
