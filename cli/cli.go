package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/recomp/cli/cmd"
	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/pkg"
)

// CLI is the top-level command-line interface for recomp.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Render  cmd.Render  `cmd:"" default:"withargs" help:"Render tree documents as script markup"`
	Check   cmd.Check   `cmd:""                    help:"Validate tree documents"`
	Tree    cmd.Tree    `cmd:""                    help:"Print an outline of tree documents"`
	Fmt     cmd.Fmt     `cmd:""                    help:"Rewrite tree documents in canonical form"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
	Version cmd.Version `cmd:""                    help:"Print version"`
}

// Run executes the recomp CLI with the given context and arguments.
// The exit function is called with the appropriate exit code when kong
// terminates early, such as after printing help.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logging flags take effect before kong reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(append(cli.Log.groups(), cli.Pprof.groups()...)),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ktx.BindTo(ctx, (*context.Context)(nil))

	defer cli.Log.start(ctx)()

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	if ktx.Selected() != nil && ktx.Selected().Name == "render" {
		suggestCommand(ctx, parser, cli.Render.Sources)
	}

	return ktx.Run(ctx, &cli)
}

// suggestCommand warns when the first source given to the default command
// does not exist but resembles a command name.
func suggestCommand(ctx context.Context, parser *kong.Kong, sources []string) {
	if len(sources) == 0 || sources[0] == "-" {
		return
	}

	if _, err := os.Stat(sources[0]); err == nil {
		return
	}

	names := make([]string, 0, len(parser.Model.Children))
	for _, child := range parser.Model.Children {
		names = append(names, child.Name)
	}

	if m := fuzzy.Find(sources[0], names); len(m) > 0 {
		log.WarnContext(ctx, "source not found, did you mean a command?",
			slog.String("source", sources[0]),
			slog.String("suggest", m[0].Str),
		)
	}
}
