package tree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"
	"github.com/valyala/bytebufferpool"

	"github.com/ardnew/recomp/arena"
	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/pkg"
)

// Statement is the document form of a node.
//
// A document is a sequence of statements. A statement of a kind that can
// open a body (see [Kind.CanOpen]) and has a non-empty Body, or sets Open,
// is decoded as an opener followed by its closing block. A block statement
// holds its Body directly.
type Statement struct {
	Kind    string      `json:"kind"              toml:"kind"              yaml:"kind"`
	Name    string      `json:"name,omitempty"    toml:"name,omitempty"    yaml:"name,omitempty"`
	ID      string      `json:"id,omitempty"      toml:"id,omitempty"      yaml:"id,omitempty"`
	Text    string      `json:"text,omitempty"    toml:"text,omitempty"    yaml:"text,omitempty"`
	Value   string      `json:"value,omitempty"   toml:"value,omitempty"   yaml:"value,omitempty"`
	Op      string      `json:"op,omitempty"      toml:"op,omitempty"      yaml:"op,omitempty"`
	Exact   string      `json:"exact,omitempty"   toml:"exact,omitempty"   yaml:"exact,omitempty"`
	Expr    string      `json:"expr,omitempty"    toml:"expr,omitempty"    yaml:"expr,omitempty"`
	Counter string      `json:"counter,omitempty" toml:"counter,omitempty" yaml:"counter,omitempty"`
	Filter  string      `json:"filter,omitempty"  toml:"filter,omitempty"  yaml:"filter,omitempty"`
	Chance  string      `json:"chance,omitempty"  toml:"chance,omitempty"  yaml:"chance,omitempty"`
	Comment string      `json:"comment,omitempty" toml:"comment,omitempty" yaml:"comment,omitempty"`
	Attrs   []Attr      `json:"attrs,omitempty"   toml:"attrs,omitempty"   yaml:"attrs,omitempty"`
	Body    []Statement `json:"body,omitempty"    toml:"body,omitempty"    yaml:"body,omitempty"`
	Reverse bool        `json:"reverse,omitempty" toml:"reverse,omitempty" yaml:"reverse,omitempty"`
	Open    bool        `json:"open,omitempty"    toml:"open,omitempty"    yaml:"open,omitempty"`
}

// tomlDocument wraps statements in the table TOML requires at top level.
type tomlDocument struct {
	Statements []Statement `toml:"statement"`
}

// Format is a document encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatTOML
)

var formatName = [...]string{
	FormatYAML: "yaml",
	FormatJSON: "json",
	FormatTOML: "toml",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatName) {
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}

	return formatName[f]
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "yml" {
		return FormatYAML, nil
	}

	if i := slices.Index(formatName[:], s); i >= 0 {
		return Format(i), nil
	}

	return 0, pkg.ErrInvalidFormat.Wrapf("%q (valid formats: %s)",
		s, strings.Join(formatName[:], ", "))
}

// FormatOf guesses the format of a file from its extension, defaulting to
// [FormatYAML].
func FormatOf(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatYAML
	}

	return f
}

type decodeConfig struct {
	logger log.Logger
	format Format
}

// DecodeOption configures [Decode].
type DecodeOption func(decodeConfig) decodeConfig

// WithFormat selects the document encoding. The default is [FormatYAML],
// which also accepts JSON documents.
func WithFormat(f Format) DecodeOption {
	return func(c decodeConfig) decodeConfig {
		c.format = f

		return c
	}
}

// WithLogger sets the logger that receives decoding diagnostics.
func WithLogger(l log.Logger) DecodeOption {
	return func(c decodeConfig) decodeConfig {
		c.logger = l

		return c
	}
}

// Decode reads a document from r and builds its tree under owner.
// Top-level statements are placed at depth 1 under an unnamed root at
// depth 0.
//
// Syntax errors and unknown fields fail with [ErrDecode]. Otherwise every
// invalid statement is reported, as a [pkg.Error] of [*Error] values, and
// no tree is returned.
func Decode(
	ctx context.Context,
	r io.Reader,
	owner *arena.Arena,
	opts ...DecodeOption,
) (*Block, error) {
	cfg := decodeConfig{logger: log.Default(), format: FormatYAML}
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	stmts, err := ReadStatements(ctx, r, cfg.format)
	if err != nil {
		return nil, err
	}

	root, err := Build(NewBuilder(owner), stmts)
	if err != nil {
		return nil, err
	}

	cfg.logger.DebugContext(ctx, "decoded document",
		slog.String("format", cfg.format.String()),
		slog.Int("statements", len(stmts)),
		slog.Int("nodes", Count(root)),
	)

	return root, nil
}

// ReadStatements reads a document in format f from r without building a
// tree. Documents read separately may be concatenated and passed to
// [Build] together. A failure reading r is reported as
// [pkg.ErrReadInput], anything else as [ErrDecode].
func ReadStatements(ctx context.Context, r io.Reader, f Format) ([]Statement, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, pkg.ErrReadInput.Wrap(err)
	}

	stmts, err := unmarshal(ctx, bytes.NewReader(buf.B), f)
	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("format", f.String()))
	}

	return stmts, nil
}

func unmarshal(ctx context.Context, r io.Reader, f Format) ([]Statement, error) {
	var stmts []Statement

	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r, yaml.DisallowUnknownField())
		if err := dec.DecodeContext(ctx, &stmts); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()

		if err := dec.Decode(&stmts); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

	case FormatTOML:
		var doc tomlDocument

		md, err := toml.NewDecoder(r).Decode(&doc)
		if err != nil {
			return nil, err
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown field %q", undecoded[0].String())
		}

		stmts = doc.Statements

	default:
		return nil, pkg.ErrInvalidFormat.Wrapf("%s", f)
	}

	return stmts, nil
}

// Build constructs a tree from statements using b. The returned root is an
// unnamed block at depth 0 that must eventually be destroyed.
func Build(b *Builder, stmts []Statement) (*Block, error) {
	root := b.Root()
	d := decoder{b: b}

	d.block(root, stmts, "")

	if err := pkg.Join(d.errs...); err != nil {
		root.Destroy()

		return nil, err
	}

	return root, nil
}

type decoder struct {
	b    *Builder
	errs []error
}

func (d *decoder) fail(err *Error, path string) {
	d.errs = append(d.errs, err.With(slog.String("path", path)))
}

// block appends the nodes for stmts to parent, one level deeper.
func (d *decoder) block(parent *Block, stmts []Statement, path string) {
	depth := parent.Depth + 1

	for i := range stmts {
		s := &stmts[i]
		at := path + "/" + strconv.Itoa(i)

		kind, ok := ParseKind(s.Kind)
		if !ok {
			d.fail(unknownKind(s.Kind), at)

			continue
		}

		n, err := d.node(kind, s, depth)
		if err != nil {
			d.fail(err, at)

			continue
		}

		parent.Append(n)

		hasBody := len(s.Body) > 0 || s.Open

		switch {
		case kind == KindBlock:
			d.block(n.(*Block), s.Body, at)

		case hasBody && kind.CanOpen():
			closer := d.b.Closing(n)
			parent.Append(closer)
			d.block(closer, s.Body, at)

		case hasBody:
			d.fail(ErrUnexpectedBody.With(slog.String("kind", kind.String())), at)
		}
	}
}

func (d *decoder) node(kind Kind, s *Statement, depth int) (Node, *Error) {
	opts := []Option{WithChance(s.Chance), WithComment(s.Comment)}
	b := d.b

	require := func(field, value string) *Error {
		if value == "" {
			return ErrMissingField.With(
				slog.String("kind", kind.String()), slog.String("field", field))
		}

		return nil
	}

	switch kind {
	case KindBlock:
		return b.Block(depth, s.Name, opts...), nil

	case KindComment:
		return b.Comment(depth, s.Text, opts...), nil

	case KindBlank:
		return b.Blank(depth), nil

	case KindRaw:
		if err := require("id", s.ID); err != nil {
			return nil, err
		}

		return b.Raw(depth, s.ID, s.Attrs, opts...), nil

	case KindAssign:
		if err := require("name", s.Name); err != nil {
			return nil, err
		}

		op, expr := AssignNormal, s.Exact

		switch {
		case s.Op != "":
			var ok bool
			if op, ok = ParseAssignOp(s.Op); !ok {
				return nil, ErrInvalidOp.With(slog.String("op", s.Op))
			}

			switch op {
			case AssignSpecial:
				expr = s.Expr
			case AssignAdd:
				expr = ""
			}

		case s.Expr != "":
			op, expr = AssignSpecial, s.Expr
		}

		return b.Assign(depth, op, s.Name, expr, opts...), nil

	case KindIf, KindElseIf, KindWhile:
		if err := require("value", s.Value); err != nil {
			return nil, err
		}

		switch kind {
		case KindIf:
			return b.If(depth, s.Value, opts...), nil
		case KindElseIf:
			return b.ElseIf(depth, s.Value, opts...), nil
		default:
			return b.While(depth, s.Value, opts...), nil
		}

	case KindElse:
		return b.Else(depth, opts...), nil

	case KindFor:
		if err := require("exact", s.Exact); err != nil {
			return nil, err
		}

		if err := require("counter", s.Counter); err != nil {
			return nil, err
		}

		return b.For(depth, s.Exact, s.Counter, s.Reverse, opts...), nil

	case KindDebug:
		if err := require("text", s.Text); err != nil {
			return nil, err
		}

		return b.Debug(depth, s.Text, s.Filter, opts...), nil

	case KindReturn:
		return b.Return(depth, opts...), nil

	case KindBreak:
		return b.Break(depth, opts...), nil

	case KindUndef:
		if err := require("name", s.Name); err != nil {
			return nil, err
		}

		return b.Undef(depth, s.Name, opts...), nil

	default:
		return nil, unknownKind(s.Kind)
	}
}

// unknownKind reports kind with the closest known kind name, if any.
func unknownKind(kind string) *Error {
	err := ErrUnknownKind.With(slog.String("kind", kind))

	if matches := fuzzy.Find(strings.ToLower(kind), slices.Collect(KindNames())); len(matches) > 0 {
		err = err.With(slog.String("suggest", matches[0].Str))
	}

	return err
}

// Statements returns the document form of the children of root.
// Openers followed by their closing block are merged into one statement.
func Statements(root *Block) []Statement {
	children := root.children.Slice()
	stmts := make([]Statement, 0, len(children))

	for i := 0; i < len(children); i++ {
		n := children[i]
		s := statement(n)

		switch {
		case i+1 < len(children) && closes(n, children[i+1]):
			i++
			s.Body = Statements(children[i].(*Block))
			s.Open = len(s.Body) == 0

		case n.Kind() == KindBlock:
			s.Body = Statements(n.(*Block))
		}

		stmts = append(stmts, s)
	}

	return stmts
}

func statement(n Node) Statement {
	h := n.Head()
	s := Statement{Kind: n.Kind().String(), Chance: h.Chance, Comment: h.Comment}

	switch n := n.(type) {
	case *Block:
		s.Name = n.Name
	case *Comment:
		s.Text = n.Text
	case *Raw:
		s.ID = n.ID
		s.Attrs = slices.Collect(n.Attrs())
	case *Assign:
		s.Name = n.Var

		switch n.Op {
		case AssignNormal:
			s.Exact = n.Expr
		case AssignSpecial:
			s.Op, s.Expr = n.Op.String(), n.Expr
		case AssignAdd:
			s.Op = n.Op.String()
		}
	case *If:
		s.Value = n.Cond
	case *ElseIf:
		s.Value = n.Cond
	case *While:
		s.Value = n.Cond
	case *For:
		s.Exact, s.Counter, s.Reverse = n.Var, n.Ident, n.Reversed
	case *DebugText:
		s.Text, s.Filter = n.Text, n.Filter
	case *Undef:
		s.Name = n.Name
	}

	return s
}

// Encode writes the tree rooted at root to w as a document in format f.
// A positive indent sets the indentation width; zero selects the most
// compact form the format allows.
func Encode(ctx context.Context, w io.Writer, root *Block, f Format, indent int) error {
	var err error

	switch f {
	case FormatYAML:
		err = EncodeYAML(ctx, w, root, indent)
	case FormatJSON:
		err = EncodeJSON(ctx, w, root, indent)
	case FormatTOML:
		err = EncodeTOML(ctx, w, root, indent)
	default:
		return pkg.ErrInvalidFormat.Wrapf("%s", f)
	}

	if err != nil {
		return ErrEncode.Wrap(err).With(slog.String("format", f.String()))
	}

	return nil
}

// EncodeYAML writes the tree rooted at root as a YAML document.
func EncodeYAML(ctx context.Context, w io.Writer, root *Block, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent), yaml.IndentSequence(true))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, Statements(root), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

// EncodeJSON writes the tree rooted at root as a JSON document.
func EncodeJSON(_ context.Context, w io.Writer, root *Block, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(Statements(root), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(Statements(root))
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// EncodeTOML writes the tree rooted at root as a TOML document of
// [[statement]] tables.
func EncodeTOML(_ context.Context, w io.Writer, root *Block, indent int) error {
	enc := toml.NewEncoder(w)
	enc.Indent = strings.Repeat(" ", max(indent, 0))

	return enc.Encode(tomlDocument{Statements: Statements(root)})
}
