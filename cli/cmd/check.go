package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/ardnew/recomp/markup"
	"github.com/ardnew/recomp/tree"
)

// Check decodes and validates tree documents without rendering them.
type Check struct {
	Input `embed:""`
}

// Run executes the check command.
//
// A valid tree prints "ok" followed by the number of nodes below the root,
// closing blocks included, and the BLAKE3 digest of its markup at the default indent. Otherwise every problem is
// printed on its own line and the error is returned.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	out := outputFrom(ctx)

	root, err := c.load(ctx)
	if err != nil {
		for _, e := range problems(err) {
			fmt.Fprintln(out, e)
		}

		return err
	}
	defer root.Destroy()

	h := blake3.New()

	if err := markup.New().Encode(h, root); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "ok nodes=%d blake3=%x\n",
		tree.Count(root)-1, h.Sum(nil))

	return err
}

// problems splits an invalid tree error into its independent failures.
func problems(err error) []error {
	if !errors.Is(err, ErrInvalidTree) {
		return []error{err}
	}

	var chain interface{ Unwrap() []error }

	for e := err; e != nil; e = errors.Unwrap(e) {
		if c, ok := e.(interface{ Unwrap() []error }); ok {
			chain = c

			break
		}
	}

	if chain == nil {
		return []error{err}
	}

	return chain.Unwrap()
}
