package tree

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ardnew/recomp/arena"
	"github.com/ardnew/recomp/pkg"
)

const sampleDocument = `
- kind: if
  value: $count gt 1
  chance: 50
  comment: first pass
  body:
    - kind: assign
      name: $count
      exact: $count - 1
    - kind: debug
      text: counted
      filter: error
- kind: raw
  id: find_ship
  attrs:
    - {key: name, value: '"$ship"'}
- kind: comment
  text: done
- kind: blank
`

func decodeString(t *testing.T, doc string, opts ...DecodeOption) (*Block, error) {
	t.Helper()

	return Decode(context.Background(), strings.NewReader(doc), nil, opts...)
}

func TestDecode(t *testing.T) {
	root, err := decodeString(t, sampleDocument)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer root.Destroy()

	if err := Validate(root); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	if root.Depth != 0 || root.Name != "" {
		t.Errorf("root = %q at depth %d", root.Name, root.Depth)
	}

	if n := Count(root); n != 8 {
		t.Errorf("Count() = %d, want 8", n)
	}

	kids := root.Children().Slice()
	if len(kids) != 5 {
		t.Fatalf("root has %d children, want 5", len(kids))
	}

	cond, ok := kids[0].(*If)
	if !ok {
		t.Fatalf("first child is %s, want if", kids[0].Kind())
	}

	if cond.Cond != "$count gt 1" || cond.Chance != "50" ||
		cond.Comment != "first pass" || !cond.Opens || cond.Depth != 1 {
		t.Errorf("if = %+v", *cond)
	}

	closer, ok := kids[1].(*Block)
	if !ok || closer.Name != "do_if" || closer.Depth != 1 || closer.Len() != 2 {
		t.Fatalf("second child is not the do_if closer: %v", kids[1].Kind())
	}

	set, ok := closer.Children().At(0).(*Assign)
	if !ok || set.Op != AssignNormal || set.Var != "$count" ||
		set.Expr != "$count - 1" || set.Depth != 2 {
		t.Errorf("assign = %+v", closer.Children().At(0))
	}

	dbg, ok := closer.Children().At(1).(*DebugText)
	if !ok || dbg.Text != "counted" || dbg.Filter != "error" {
		t.Errorf("debug = %+v", closer.Children().At(1))
	}

	raw, ok := kids[2].(*Raw)
	if !ok || raw.ID != "find_ship" || raw.Opens {
		t.Fatalf("third child = %+v", kids[2])
	}

	var attrs []Attr
	for a := range raw.Attrs() {
		attrs = append(attrs, a)
	}

	if want := []Attr{{Key: "name", Value: `"$ship"`}}; !reflect.DeepEqual(attrs, want) {
		t.Errorf("attrs = %v, want %v", attrs, want)
	}

	if c, ok := kids[3].(*Comment); !ok || c.Text != "done" {
		t.Errorf("fourth child = %+v", kids[3])
	}

	if kids[4].Kind() != KindBlank {
		t.Errorf("fifth child = %s", kids[4].Kind())
	}
}

func TestDecodeStatements(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(t *testing.T, root *Block)
	}{
		{
			name: "empty document",
			doc:  "",
			check: func(t *testing.T, root *Block) {
				if root.Len() != 0 {
					t.Errorf("root has %d children", root.Len())
				}
			},
		},
		{
			name: "special assignment",
			doc:  `[{kind: assign, name: $x, expr: 'min="1" max="2"'}]`,
			check: func(t *testing.T, root *Block) {
				n := root.Children().At(0).(*Assign)
				if n.Op != AssignSpecial || n.Expr != `min="1" max="2"` {
					t.Errorf("assign = %+v", *n)
				}
			},
		},
		{
			name: "add assignment",
			doc:  `[{kind: assign, name: $x, op: add, exact: "1"}]`,
			check: func(t *testing.T, root *Block) {
				n := root.Children().At(0).(*Assign)
				if n.Op != AssignAdd || n.Expr != "" {
					t.Errorf("assign = %+v", *n)
				}
			},
		},
		{
			name: "empty opener",
			doc:  `[{kind: else, open: true}]`,
			check: func(t *testing.T, root *Block) {
				if root.Len() != 2 || !root.Children().At(0).Head().Opens {
					t.Errorf("root has %d children", root.Len())
				}
			},
		},
		{
			name: "reversed loop",
			doc:  `[{kind: for, exact: i, counter: list, reverse: true, body: [{kind: break}]}]`,
			check: func(t *testing.T, root *Block) {
				n := root.Children().At(0).(*For)
				if n.Var != "i" || n.Ident != "list" || !n.Reversed {
					t.Errorf("for = %+v", *n)
				}
			},
		},
		{
			name: "plain block",
			doc:  `[{kind: block, name: group, body: [{kind: return}]}]`,
			check: func(t *testing.T, root *Block) {
				n := root.Children().At(0).(*Block)
				if root.Len() != 1 || n.Name != "group" || n.Len() != 1 {
					t.Errorf("block = %q with %d children", n.Name, n.Len())
				}

				if d := n.Children().At(0).Head().Depth; d != 2 {
					t.Errorf("body depth = %d, want 2", d)
				}
			},
		},
		{
			name: "json",
			doc:  `[{"kind": "undef", "name": "$x", "chance": 10}]`,
			check: func(t *testing.T, root *Block) {
				n := root.Children().At(0).(*Undef)
				if n.Name != "$x" || n.Chance != "10" {
					t.Errorf("undef = %+v", *n)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := decodeString(t, tt.doc)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			defer root.Destroy()

			if err := Validate(root); err != nil {
				t.Fatalf("Validate() = %v", err)
			}

			tt.check(t, root)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want *Error
		text []string
	}{
		{
			name: "syntax",
			doc:  "- kind: [if",
			want: ErrDecode,
		},
		{
			name: "unknown field",
			doc:  "- kind: if\n  cond: x\n",
			want: ErrDecode,
		},
		{
			name: "unknown kind",
			doc:  "- kind: blank\n- kind: elsif\n  value: x\n",
			want: ErrUnknownKind,
			text: []string{"kind=elsif", "suggest=elseif", "path=/1"},
		},
		{
			name: "missing field",
			doc:  "- kind: for\n  exact: i\n",
			want: ErrMissingField,
			text: []string{"field=counter"},
		},
		{
			name: "body on non-opener",
			doc:  "- kind: debug\n  text: x\n  body: [{kind: break}]\n",
			want: ErrUnexpectedBody,
			text: []string{"kind=debug", "path=/0"},
		},
		{
			name: "invalid op",
			doc:  "- kind: assign\n  name: x\n  op: sub\n",
			want: ErrInvalidOp,
			text: []string{"op=sub"},
		},
		{
			name: "nested",
			doc:  "- kind: while\n  value: x\n  body:\n    - kind: raw\n",
			want: ErrMissingField,
			text: []string{"field=id", "path=/0/0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := arena.New(nil)
			defer owner.Free()

			root, err := Decode(context.Background(),
				strings.NewReader(tt.doc), owner)
			if root != nil {
				t.Errorf("Decode() returned a tree with error %v", err)
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.want)
			}

			for _, s := range tt.text {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("Decode() error = %q, want %q", err, s)
				}
			}

			if owner.Children() != 0 {
				t.Errorf("failed decode left %d arenas", owner.Children())
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"yaml", FormatYAML, false},
		{"YML", FormatYAML, false},
		{" json ", FormatJSON, false},
		{"toml", FormatTOML, false},
		{"xml", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
		}

		if err != nil && !errors.Is(err, pkg.ErrInvalidFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrInvalidFormat", tt.in, err)
		}
	}

	for path, want := range map[string]Format{
		"a.yaml": FormatYAML,
		"a.json": FormatJSON,
		"a.toml": FormatTOML,
		"a.txt":  FormatYAML,
		"-":      FormatYAML,
	} {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %s, want %s", path, got, want)
		}
	}

	if got := Format(7).String(); got != "Format(7)" {
		t.Errorf("String() = %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	root, err := decodeString(t, sampleDocument)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer root.Destroy()

	b := NewBuilder(nil)
	loop := b.For(1, "i", "list", true)
	root.Append(
		b.Assign(1, AssignSpecial, "$x", `min="1"`),
		b.Assign(1, AssignAdd, "$y", ""),
		loop,
		b.Closing(loop),
		b.Block(1, "group").Append(b.Undef(2, "$x")),
	)

	want := Statements(root)

	tests := []struct {
		format Format
		indent int
	}{
		{FormatYAML, 2},
		{FormatYAML, 4},
		{FormatJSON, 0},
		{FormatJSON, 2},
		{FormatTOML, 0},
		{FormatTOML, 2},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer

			err := Encode(context.Background(), &buf, root, tt.format, tt.indent)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			got, err := Decode(context.Background(), &buf, nil, WithFormat(tt.format))
			if err != nil {
				t.Fatalf("Decode() error = %v\n%s", err, buf.String())
			}
			defer got.Destroy()

			if stmts := Statements(got); !reflect.DeepEqual(stmts, want) {
				t.Errorf("round trip mismatch:\nwant: %+v\ngot:  %+v", want, stmts)
			}
		})
	}
}

func TestStatements(t *testing.T) {
	b := NewBuilder(nil)
	root := sample(b)
	defer root.Destroy()

	stmts := Statements(root)
	if len(stmts) != 2 {
		t.Fatalf("Statements() = %d statements, want 2", len(stmts))
	}

	cond := stmts[0]
	if cond.Kind != "if" || cond.Value != "x>1" || len(cond.Body) != 2 || cond.Open {
		t.Errorf("if statement = %+v", cond)
	}

	loop := cond.Body[1]
	if loop.Kind != "for" || !loop.Reverse || len(loop.Body) != 1 {
		t.Errorf("for statement = %+v", loop)
	}

	if stmts[1].Kind != "return" {
		t.Errorf("last statement = %+v", stmts[1])
	}
}

func TestEncodeInvalidFormat(t *testing.T) {
	root := NewBuilder(nil).Root()
	defer root.Destroy()

	err := Encode(context.Background(), &bytes.Buffer{}, root, Format(9), 0)
	if !errors.Is(err, pkg.ErrInvalidFormat) {
		t.Errorf("Encode() error = %v, want ErrInvalidFormat", err)
	}
}

func TestReadStatementsReadError(t *testing.T) {
	_, err := ReadStatements(context.Background(),
		iotest.ErrReader(errors.New("broken pipe")), FormatYAML)
	if !errors.Is(err, pkg.ErrReadInput) || errors.Is(err, ErrDecode) {
		t.Errorf("ReadStatements() error = %v, want ErrReadInput", err)
	}
}
