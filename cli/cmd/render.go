package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ardnew/recomp/argv"
	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/markup"
	"github.com/ardnew/recomp/pkg"
	"github.com/ardnew/recomp/proc"
	"github.com/ardnew/recomp/tree"
)

// Render decodes tree documents and writes their markup.
type Render struct {
	Input `embed:""`

	Output   string   `default:"-" help:"Output file or '-' for stdout." placeholder:"FILE" short:"o"`
	Indent   int      `default:"2" help:"Indent width for markup."       short:"i"`
	Drop     string   `help:"Drop nodes for which EXPR is true (over Kind, Tag, Name, Text, Chance, Comment, Depth)." placeholder:"EXPR" short:"d"`
	Pipe     string   `help:"Filter the markup through CMD (split on whitespace)."                                     placeholder:"CMD"`
	ToolPath []string `help:"Directories searched before PATH for the pipe command."                                   placeholder:"DIR"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	root, err := r.load(ctx)
	if err != nil {
		return err
	}
	defer root.Destroy()

	if r.Drop != "" {
		pred, err := compileDrop(r.Drop)
		if err != nil {
			return err
		}

		log.DebugContext(ctx, "dropped nodes",
			slog.String("expr", r.Drop),
			slog.Int("count", tree.Prune(root, pred)),
		)
	}

	enc := markup.New(markup.WithIndent(r.Indent), markup.WithLogger(log.Default()))

	out, err := openOutput(ctx, r.Output)
	if err != nil {
		return err
	}
	defer closeOutput(out, &err)

	if r.Pipe == "" {
		return enc.Encode(out, root)
	}

	data, err := r.pipe(ctx, []byte(enc.Render(root)))
	if err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		return pkg.ErrWriteOutput.Wrap(err)
	}

	return nil
}

// pipe runs the pipe command with markup on its stdin and returns its
// stdout. Output of a command that exits with a failure status is kept.
func (r *Render) pipe(ctx context.Context, input []byte) ([]byte, error) {
	args := argv.Fields(r.Pipe)
	if args.Len() == 0 {
		return nil, ErrPipe.Wrap(proc.ErrNoCommand)
	}

	log.TraceContext(ctx, "pipe markup",
		slog.String("argv", args.String()),
		slog.Int("bytes", len(input)),
	)

	data, err := proc.Output(ctx, args.Strings(), input,
		proc.WithPathPrefix(r.ToolPath...),
		proc.WithLogger(log.Default()),
	)
	if err != nil && !errors.Is(err, proc.ErrCommandFailed) {
		return nil, ErrPipe.Wrap(err).With(slog.String("cmd", r.Pipe))
	}

	return data, nil
}
