package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/recomp/pkg"
	"github.com/ardnew/recomp/tree"
)

func run(t *testing.T, cmd interface{ Run(context.Context) error }) (string, error) {
	t.Helper()

	var buf bytes.Buffer

	err := cmd.Run(WithOutput(context.Background(), &buf))

	return buf.String(), err
}

func TestCheck(t *testing.T) {
	src := writeFile(t, t.TempDir(), "doc.yaml", document)

	got, err := run(t, &Check{Input{Sources: []string{src}}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ok := regexp.MustCompile(`^ok nodes=5 blake3=[0-9a-f]{64}\n$`)
	if !ok.MatchString(got) {
		t.Errorf("Run() wrote %q", got)
	}

	again, err := run(t, &Check{Input{Sources: []string{src}}})
	if err != nil || again != got {
		t.Errorf("digest is not stable: %q, %q (%v)", got, again, err)
	}
}

func TestCheckProblems(t *testing.T) {
	src := writeFile(t, t.TempDir(), "bad.yaml", `
- kind: elsif
  value: $x
- kind: assign
- kind: debug
  text: fine
`)

	got, err := run(t, &Check{Input{Sources: []string{src}}})
	if !errors.Is(err, ErrInvalidTree) {
		t.Fatalf("Run() error = %v, want %v", err, ErrInvalidTree)
	}

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Run() wrote %d lines, want 2:\n%s", len(lines), got)
	}

	if !strings.Contains(lines[0], "suggest=elseif") {
		t.Errorf("line 1 = %q, want a suggestion", lines[0])
	}

	if !strings.Contains(lines[1], "field=name") {
		t.Errorf("line 2 = %q, want the missing field", lines[1])
	}
}

func TestTree(t *testing.T) {
	src := writeFile(t, t.TempDir(), "doc.yaml", document)

	got, err := run(t, &Tree{Input{Sources: []string{src}}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{
		src, "if", "$n gt 0", "chance=50",
		"debug", "positive", "$n normal $n - 1", "done",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("outline is missing %q:\n%s", want, got)
		}
	}

	// The closing block is folded into its opener.
	if strings.Contains(got, "do_if") {
		t.Errorf("outline shows the closing block:\n%s", got)
	}
}

func TestFmt(t *testing.T) {
	src := writeFile(t, t.TempDir(), "doc.yaml", document)

	want, err := tree.ReadStatements(context.Background(),
		strings.NewReader(document), tree.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		cmd    interface{ Run(context.Context) error }
		format tree.Format
	}{
		{"yaml", &YAML{Indent: 4, Input: Input{Sources: []string{src}}}, tree.FormatYAML},
		{"yaml flow", &YAML{Indent: 0, Input: Input{Sources: []string{src}}}, tree.FormatYAML},
		{"json", &JSON{Indent: 2, Input: Input{Sources: []string{src}}}, tree.FormatJSON},
		{"json compact", &JSON{Input: Input{Sources: []string{src}}}, tree.FormatJSON},
		{"toml", &TOML{Indent: 2, Input: Input{Sources: []string{src}}}, tree.FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.cmd)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			got, err := tree.ReadStatements(context.Background(),
				strings.NewReader(out), tt.format)
			if err != nil {
				t.Fatalf("re-reading output: %v\n%s", err, out)
			}

			if !reflect.DeepEqual(got, want) {
				t.Errorf("statements = %+v, want %+v", got, want)
			}
		})
	}
}

type initApp struct {
	Level   string   `default:"warn"`
	Width   int      `default:"2"`
	Empty   string   `default:""`
	Tools   []string
	Secret  string   `default:"x"  hidden:""`
	Prepend bool

	Init Init `cmd:""`
}

func parseInit(t *testing.T, path string, args ...string) (*initApp, context.Context) {
	t.Helper()

	var app initApp

	parser, err := kong.New(&app, kong.Vars{ConfigIdentifier: path})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return &app, WithContext(context.Background(), ktx)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	app, ctx := parseInit(t, path)
	if err := app.Init.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := "level: warn\nwidth: 2\nprepend: false\n"; string(data) != want {
		t.Errorf("config =\n%s\nwant\n%s", data, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config mode = %v, want 0600", perm)
	}

	app, ctx = parseInit(t, path)

	err = app.Init.Run(ctx)
	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
		t.Errorf("Run() error = %v, want %v", err, ErrFileExists)
	}

	app, ctx = parseInit(t, path, "--force")
	app.Width = 8

	if err := app.Init.Run(ctx); err != nil {
		t.Fatalf("Run(--force) error = %v", err)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), "width: 8\n") {
		t.Errorf("forced config =\n%s", data)
	}
}

func TestSettingValue(t *testing.T) {
	tests := []struct {
		in   any
		want any
		ok   bool
	}{
		{nil, nil, false},
		{"", nil, false},
		{"text", "text", true},
		{[]string{}, nil, false},
		{[]string{"a"}, []string{"a"}, true},
		{map[string]int{}, nil, false},
		{0, 0, true},
		{false, false, true},
	}

	for _, tt := range tests {
		got, ok := settingValue(tt.in)
		if ok != tt.ok || (ok && !reflect.DeepEqual(got, tt.want)) {
			t.Errorf("settingValue(%#v) = %#v, %v; want %#v, %v",
				tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestVersion(t *testing.T) {
	got, err := run(t, Version{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if want := pkg.Name + " " + pkg.Version() + "\n"; got != want {
		t.Errorf("Run() wrote %q, want %q", got, want)
	}
}

func TestProblems(t *testing.T) {
	one := errors.New("one")
	two := errors.New("two")

	if got := problems(one); len(got) != 1 || got[0] != one {
		t.Errorf("problems(single) = %v", got)
	}

	if got := problems(pkg.Join(one, two)); len(got) != 1 {
		t.Errorf("problems(not a tree error) = %v", got)
	}

	got := problems(ErrInvalidTree.Wrap(pkg.Join(one, two)))
	if len(got) != 2 || got[0] != one || got[1] != two {
		t.Errorf("problems(joined) = %v", got)
	}
}
