package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/recomp/pkg"
	"github.com/ardnew/recomp/tree"
)

const document = `
- kind: if
  value: $n gt 0
  chance: "50"
  body:
    - kind: debug
      text: positive
    - kind: assign
      name: $n
      exact: $n - 1
- kind: comment
  text: done
`

const wantMarkup = "" +
	"  <do_if value=\"$n gt 0\" chance=\"50\">\n" +
	"    <debug_text text=\"positive\"/>\n" +
	"    <set_value name=\"$n\" exact=\"$n - 1\"/>\n" +
	"  </do_if>\n" +
	"  <!--done-->\n"

func render(t *testing.T, r *Render) (string, error) {
	t.Helper()

	if r.Sources == nil {
		r.Sources = []string{writeFile(t, t.TempDir(), "doc.yaml", document)}
	}

	if r.Output == "" {
		r.Output = stdioPath
	}

	var buf bytes.Buffer

	err := r.Run(WithOutput(context.Background(), &buf))

	return buf.String(), err
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		r    Render
		want string
	}{
		{
			name: "default",
			r:    Render{Indent: 2},
			want: wantMarkup,
		},
		{
			name: "indent",
			r:    Render{Indent: 1},
			want: "" +
				" <do_if value=\"$n gt 0\" chance=\"50\">\n" +
				"  <debug_text text=\"positive\"/>\n" +
				"  <set_value name=\"$n\" exact=\"$n - 1\"/>\n" +
				" </do_if>\n" +
				" <!--done-->\n",
		},
		{
			name: "drop by kind",
			r:    Render{Indent: 2, Drop: `Kind == "debug"`},
			want: "" +
				"  <do_if value=\"$n gt 0\" chance=\"50\">\n" +
				"    <set_value name=\"$n\" exact=\"$n - 1\"/>\n" +
				"  </do_if>\n" +
				"  <!--done-->\n",
		},
		{
			name: "drop opener by tag",
			r:    Render{Indent: 2, Drop: `Tag == "do_if" && Chance == "50"`},
			want: "  <!--done-->\n",
		},
		{
			name: "drop by depth",
			r:    Render{Indent: 2, Drop: `Depth > 1 || Text contains "one"`},
			want: "" +
				"  <do_if value=\"$n gt 0\" chance=\"50\">\n" +
				"  </do_if>\n",
		},
		{
			name: "pipe",
			r:    Render{Indent: 2, Pipe: "tr a-z A-Z"},
			want: "" +
				"  <DO_IF VALUE=\"$N GT 0\" CHANCE=\"50\">\n" +
				"    <DEBUG_TEXT TEXT=\"POSITIVE\"/>\n" +
				"    <SET_VALUE NAME=\"$N\" EXACT=\"$N - 1\"/>\n" +
				"  </DO_IF>\n" +
				"  <!--DONE-->\n",
		},
		{
			name: "pipe failure keeps output",
			r:    Render{Indent: 2, Pipe: "false"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := render(t, &tt.r)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Run() wrote\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestRenderToolPath(t *testing.T) {
	dir := t.TempDir()

	script := writeFile(t, dir, "recomp-wrap", "#!/bin/sh\necho '<script>'\ncat\necho '</script>'\n")
	if err := os.Chmod(script, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := render(t, &Render{Indent: 2, Pipe: "recomp-wrap", ToolPath: []string{dir}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if want := "<script>\n" + wantMarkup + "</script>\n"; got != want {
		t.Errorf("Run() wrote\n%s\nwant\n%s", got, want)
	}
}

func TestRenderOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xml")

	got, err := render(t, &Render{Indent: 2, Output: out})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got != "" {
		t.Errorf("Run() wrote %q to the context output", got)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != wantMarkup {
		t.Errorf("output file =\n%s\nwant\n%s", data, wantMarkup)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		r    Render
		want *Error
	}{
		{
			name: "bad expression",
			r:    Render{Drop: "Kind =="},
			want: ErrDropExpr,
		},
		{
			name: "non-boolean expression",
			r:    Render{Drop: "Depth + 1"},
			want: ErrDropExpr,
		},
		{
			name: "unknown field",
			r:    Render{Drop: "Colour == 1"},
			want: ErrDropExpr,
		},
		{
			name: "missing pipe command",
			r:    Render{Pipe: "recomp-no-such-tool --flag"},
			want: ErrPipe,
		},
		{
			name: "output directory",
			r:    Render{Output: os.TempDir()},
			want: ErrOpenOutput,
		},
		{
			name: "missing source",
			r:    Render{Input: Input{Sources: []string{"no/such/file.yaml"}}},
			want: ErrNoSuchSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := render(t, &tt.r)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompileDrop(t *testing.T) {
	pred, err := compileDrop(`Name == "$n" && Text startsWith "$n"`)
	if err != nil {
		t.Fatalf("compileDrop() error = %v", err)
	}

	in := Input{Sources: []string{writeFile(t, t.TempDir(), "doc.yaml", document)}}

	root, err := in.load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer root.Destroy()

	var matched []string

	for n := range tree.All(root) {
		if pred(n) {
			matched = append(matched, n.Kind().String())
		}
	}

	if !slices.Equal(matched, []string{"assign"}) {
		t.Errorf("matched = %v, want [assign]", matched)
	}

	closer := root.Children().At(1)
	if env := envOf(closer); env.Kind != "block" || env.Name != "do_if" || env.Depth != 1 {
		t.Errorf("envOf(closer) = %+v", env)
	}

	if env := envOf(root.Children().At(0)); env.Tag != "do_if" || env.Chance != "50" {
		t.Errorf("envOf(opener) = %+v", env)
	}
}

func TestRenderOutputDeviceFull(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}

	_, err := render(t, &Render{Indent: 2, Output: "/dev/full"})
	if !errors.Is(err, pkg.ErrWriteOutput) {
		t.Errorf("Run() error = %v, want %v", err, pkg.ErrWriteOutput)
	}
}
