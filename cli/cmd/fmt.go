package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/tree"
)

// Fmt decodes tree documents, validates them, and writes them back out in
// canonical form in the chosen format.
type Fmt struct {
	YAML YAML `cmd:"" default:"withargs" help:"Format as YAML (default)."`
	JSON JSON `cmd:""                    help:"Format as JSON."`
	TOML TOML `cmd:""                    help:"Format as TOML."`
}

// YAML formats tree documents as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output (0 for flow style)." short:"i"`

	Input `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return format(ctx, &y.Input, tree.FormatYAML, y.Indent)
}

// JSON formats tree documents as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 for compact)." short:"i"`

	Input `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return format(ctx, &j.Input, tree.FormatJSON, j.Indent)
}

// TOML formats tree documents as TOML.
type TOML struct {
	Indent int `default:"2" help:"Indent width for nested TOML tables." short:"i"`

	Input `embed:""`
}

// Run executes the toml command.
func (t *TOML) Run(ctx context.Context) error {
	return format(ctx, &t.Input, tree.FormatTOML, t.Indent)
}

func format(ctx context.Context, in *Input, f tree.Format, indent int) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	root, err := in.load(ctx)
	if err != nil {
		return err
	}
	defer root.Destroy()

	log.DebugContext(ctx, "format document",
		slog.String("format", f.String()),
		slog.Int("indent", indent),
	)

	return tree.Encode(ctx, outputFrom(ctx), root, f, indent)
}
