package pkg

import (
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	expected := "recomp"
	if Name != expected {
		t.Errorf("Expected Name to be %q, got %q", expected, Name)
	}
}

func TestVersion(t *testing.T) {
	// Version is embedded from VERSION file, so it should not be empty.
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version() != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version())
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Error("Expected Author to have at least one entry")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestError_IsSentinel(t *testing.T) {
	err := ErrReadInput.Wrap(io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrReadInput) {
		t.Errorf("expected %v to match ErrReadInput", err)
	}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected %v to match io.ErrUnexpectedEOF", err)
	}

	if errors.Is(err, ErrWriteOutput) {
		t.Errorf("did not expect %v to match ErrWriteOutput", err)
	}

	want := "failed to read input: unexpected EOF"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_WrapDoesNotAliasSentinel(t *testing.T) {
	a := ErrWriteOutput.Wrapf("first")
	b := ErrWriteOutput.Wrapf("second")

	if a.Error() == b.Error() {
		t.Fatalf("wrapped errors share storage: %q", a.Error())
	}

	if len(ErrWriteOutput) != 1 {
		t.Errorf("sentinel mutated: %v", ErrWriteOutput)
	}
}

func TestJoin(t *testing.T) {
	if err := Join(nil, nil); err != nil {
		t.Errorf("Join(nil, nil) = %v, want nil", err)
	}

	e1, e2 := errors.New("one"), errors.New("two")

	err := Join(e1, nil, e2)
	if err == nil {
		t.Fatal("Join returned nil for non-nil errors")
	}

	var chain Error
	if !errors.As(err, &chain) {
		t.Fatalf("Join result %T is not an Error", err)
	}

	if len(chain) != 2 {
		t.Errorf("len(chain) = %d, want 2", len(chain))
	}

	if got := err.Error(); got != "one: two" {
		t.Errorf("Error() = %q, want %q", got, "one: two")
	}
}

func TestTypeCast_Values(t *testing.T) {
	var double TypeCast[int, int] = func(v int) int { return v * 2 }

	got := slices.Collect(double.Values(1, 2, 3))
	if !slices.Equal(got, []int{2, 4, 6}) {
		t.Errorf("Values = %v, want [2 4 6]", got)
	}

	var n int
	for range double.Values(1, 2, 3) {
		if n++; n == 2 {
			break
		}
	}

	if n != 2 {
		t.Errorf("Values yielded %d values after break, want 2", n)
	}
}
