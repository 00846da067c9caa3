package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/recomp/pkg"
	"github.com/ardnew/recomp/tree"
)

// writeFile creates a file named name in dir with content and returns its
// path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func readAll(t *testing.T, srcs sources) []string {
	t.Helper()

	var got []string

	for _, src := range srcs {
		if src.name == stdioPath {
			got = append(got, stdioPath)

			continue
		}

		data, err := io.ReadAll(src)
		if err != nil {
			t.Fatalf("reading %s: %v", src.name, err)
		}

		got = append(got, string(data))
	}

	return got
}

func TestOpenSources(t *testing.T) {
	dir := t.TempDir()

	first := writeFile(t, dir, "first.yaml", "first")
	second := writeFile(t, dir, "second.yaml", "second")
	link := filepath.Join(dir, "link.yaml")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	rel, err := filepath.Rel(wd, first)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Symlink(first, link); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "default stdin",
			paths: nil,
			want:  []string{stdioPath},
		},
		{
			name:  "in order",
			paths: []string{second, first},
			want:  []string{"second", "first"},
		},
		{
			name:  "duplicate paths",
			paths: []string{first, first, first},
			want:  []string{"first"},
		},
		{
			name:  "symlink duplicate",
			paths: []string{link, second, first},
			want:  []string{"first", "second"},
		},
		{
			name:  "relative duplicate",
			paths: []string{rel, first},
			want:  []string{"first"},
		},
		{
			name:  "stdin last",
			paths: []string{stdioPath, first, stdioPath},
			want:  []string{"first", stdioPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srcs, err := openSources(tt.paths)
			if err != nil {
				t.Fatalf("openSources() error = %v", err)
			}
			defer srcs.close()

			got := readAll(t, srcs)
			if len(got) != len(tt.want) {
				t.Fatalf("openSources() = %q, want %q", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("source %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOpenSourcesErrors(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.yaml", "ok")

	_, err := openSources([]string{ok, filepath.Join(dir, "missing.yaml")})
	if !errors.Is(err, ErrNoSuchSource) {
		t.Errorf("missing file error = %v, want ErrNoSuchSource", err)
	}

	_, err = openSources([]string{dir})
	if !errors.Is(err, ErrOpenSource) || !errors.Is(err, pkg.ErrInvalidFileType) {
		t.Errorf("directory error = %v, want ErrOpenSource and ErrInvalidFileType", err)
	}
}

func TestOpenOutput(t *testing.T) {
	var buf bytes.Buffer

	ctx := WithOutput(context.Background(), &buf)

	for _, path := range []string{"", stdioPath} {
		w, err := openOutput(ctx, path)
		if err != nil {
			t.Fatalf("openOutput(%q) error = %v", path, err)
		}

		io.WriteString(w, "x")
		w.Close()
	}

	if buf.String() != "xx" {
		t.Errorf("context output = %q, want %q", buf.String(), "xx")
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "out.txt", "stale content")

	w, err := openOutput(ctx, path)
	if err != nil {
		t.Fatalf("openOutput(file) error = %v", err)
	}

	io.WriteString(w, "fresh")
	w.Close()

	if data, _ := os.ReadFile(path); string(data) != "fresh" {
		t.Errorf("file content = %q, want %q", data, "fresh")
	}

	if _, err := openOutput(ctx, dir); !errors.Is(err, ErrOpenOutput) {
		t.Errorf("openOutput(dir) error = %v, want ErrOpenOutput", err)
	}

	if _, err := openOutput(ctx, "/dev/null"); err != nil {
		t.Errorf("openOutput(/dev/null) error = %v", err)
	}

	if outputFrom(context.Background()) != os.Stdout {
		t.Error("default output is not stdout")
	}
}

func TestInputLoad(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.yaml", "- {kind: comment, text: a}\n")
	b := writeFile(t, dir, "b.json", `[{"kind": "break"}]`)
	c := writeFile(t, dir, "c.toml", "[[statement]]\nkind = \"return\"\n")

	in := Input{Sources: []string{a, b, c}}

	root, err := in.load(context.Background())
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	defer root.Destroy()

	var kinds []string
	for n := range root.Nodes() {
		kinds = append(kinds, n.Kind().String())
	}

	if want := []string{"comment", "break", "return"}; !slices.Equal(kinds, want) {
		t.Errorf("loaded kinds = %v, want %v", kinds, want)
	}

	// An explicit format overrides the extension.
	in = Input{Format: "yaml", Sources: []string{c}}
	if _, err := in.load(context.Background()); !errors.Is(err, tree.ErrDecode) {
		t.Errorf("load(toml as yaml) error = %v, want ErrDecode", err)
	}

	bad := writeFile(t, dir, "bad.yaml", "- {kind: loop}\n")

	in = Input{Sources: []string{bad}}
	if _, err := in.load(context.Background()); !errors.Is(err, ErrInvalidTree) ||
		!errors.Is(err, tree.ErrUnknownKind) {
		t.Errorf("load(unknown kind) error = %v", err)
	}
}

type closer struct{ err error }

func (c closer) Close() error { return c.err }

func TestCloseOutput(t *testing.T) {
	failed := errors.New("close failed")
	earlier := errors.New("earlier failure")

	tests := []struct {
		name  string
		close error
		prior error
		want  error
		cause bool
	}{
		{"clean", nil, nil, nil, false},
		{"close fails", failed, nil, pkg.ErrWriteOutput, true},
		{"prior error kept", failed, earlier, earlier, false},
		{"prior error without close failure", nil, earlier, earlier, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prior

			closeOutput(closer{tt.close}, &err)

			switch {
			case tt.want == nil && err != nil:
				t.Errorf("closeOutput() error = %v, want nil", err)
			case tt.want != nil && !errors.Is(err, tt.want):
				t.Errorf("closeOutput() error = %v, want %v", err, tt.want)
			}

			if tt.cause && !errors.Is(err, failed) {
				t.Errorf("closeOutput() error = %v, want cause %v", err, failed)
			}
		})
	}
}
