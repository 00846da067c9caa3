package cmd

import (
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/tree"
)

// nodeEnv is the environment a drop expression is evaluated against.
type nodeEnv struct {
	Kind    string // kind name, e.g. "debug"
	Tag     string // rendered tag name of nodes that can open a body
	Name    string // block name, variable, or raw statement ID
	Text    string // condition, expression, comment text, or debug text
	Chance  string
	Comment string
	Depth   int
}

func envOf(n tree.Node) nodeEnv {
	h := n.Head()
	env := nodeEnv{
		Kind:    n.Kind().String(),
		Chance:  h.Chance,
		Comment: h.Comment,
		Depth:   h.Depth,
	}

	env.Tag, _ = tree.Tag(n)

	switch n := n.(type) {
	case *tree.Block:
		env.Name = n.Name
	case *tree.Comment:
		env.Text = n.Text
	case *tree.Raw:
		env.Name = n.ID
	case *tree.Assign:
		env.Name, env.Text = n.Var, n.Expr
	case *tree.If:
		env.Text = n.Cond
	case *tree.ElseIf:
		env.Text = n.Cond
	case *tree.While:
		env.Text = n.Cond
	case *tree.For:
		env.Name, env.Text = n.Var, n.Ident
	case *tree.DebugText:
		env.Name, env.Text = n.Filter, n.Text
	case *tree.Keyword:
		env.Name = n.Word
	case *tree.Undef:
		env.Name = n.Name
	}

	return env
}

// compileDrop compiles a boolean expression over [nodeEnv] into a
// [tree.Prune] predicate. A node whose evaluation fails is kept.
func compileDrop(source string) (func(tree.Node) bool, error) {
	program, err := expr.Compile(source, expr.Env(nodeEnv{}), expr.AsBool())
	if err != nil {
		return nil, ErrDropExpr.Wrap(err).With(slog.String("expr", source))
	}

	return func(n tree.Node) bool {
		return evalDrop(program, n)
	}, nil
}

func evalDrop(program *vm.Program, n tree.Node) bool {
	out, err := vm.Run(program, envOf(n))
	if err != nil {
		log.Warn("drop expression failed",
			slog.String("kind", n.Kind().String()),
			slog.Int("depth", n.Head().Depth),
			slog.Any("error", err),
		)

		return false
	}

	drop, _ := out.(bool)

	return drop
}
