// Package arena implements hierarchical ownership contexts.
//
// Every [Arena] may own child arenas and finalizers. Freeing an arena frees
// its entire subtree, children before parents, and runs each arena's
// finalizers in reverse registration order. Objects that tie their lifetime
// to an arena register a finalizer with [Arena.OnFree] and expose the arena
// through the [Owner] interface, so that containers can take ownership of
// them with [Arena.Steal].
//
// All methods are safe for concurrent use. The ownership graph is guarded by
// a single package lock; finalizers run after it is released and may use
// arenas freely.
package arena

import (
	"log/slog"
	"slices"
	"sync"
)

// Owner is implemented by values whose lifetime is bound to an arena.
type Owner interface {
	Arena() *Arena
}

// Arena is a node in an ownership tree.
// The zero value is not usable; create arenas with [New] or [Named].
type Arena struct {
	parent     *Arena
	name       string
	children   []*Arena
	finalizers []func()
	freed      bool
}

// graph guards the parent, children, finalizers, and freed fields of every
// arena.
var graph sync.Mutex

// New returns an arena owned by parent.
// A nil parent returns a root arena that is freed only explicitly.
func New(parent *Arena) *Arena {
	return Named(parent, "")
}

// Named returns an arena owned by parent and labeled with name for
// diagnostics.
func Named(parent *Arena, name string) *Arena {
	a := &Arena{name: name}

	if parent != nil {
		graph.Lock()
		defer graph.Unlock()

		parent.mustLive("New")
		parent.link(a)
	}

	return a
}

// Name returns the diagnostic label given to [Named].
func (a *Arena) Name() string { return a.name }

// Arena returns a, so that an *Arena is itself an [Owner].
func (a *Arena) Arena() *Arena { return a }

// Parent returns the arena that owns a, or nil if a is a root.
func (a *Arena) Parent() *Arena {
	graph.Lock()
	defer graph.Unlock()

	return a.parent
}

// Children returns the number of arenas directly owned by a.
func (a *Arena) Children() int {
	graph.Lock()
	defer graph.Unlock()

	return len(a.children)
}

// Freed reports whether a has been freed.
func (a *Arena) Freed() bool {
	graph.Lock()
	defer graph.Unlock()

	return a.freed
}

// Steal transfers ownership of child to a.
// Stealing an arena that a already owns is a no-op. A nil child is ignored.
// It panics if either arena is freed or if child is a or one of its
// ancestors.
func (a *Arena) Steal(child *Arena) {
	if child == nil {
		return
	}

	graph.Lock()
	defer graph.Unlock()

	a.mustLive("Steal")
	child.mustLive("Steal")

	if child.parent == a {
		return
	}

	for p := a; p != nil; p = p.parent {
		if p == child {
			panic(ErrCycle.With(
				slog.String("owner", a.label()),
				slog.String("child", child.label()),
			))
		}
	}

	child.unlink()
	a.link(child)
}

// Detach releases a from its parent, making it a root arena.
// The caller becomes responsible for freeing it.
func (a *Arena) Detach() {
	graph.Lock()
	defer graph.Unlock()

	a.mustLive("Detach")
	a.unlink()
}

// OnFree registers fn to run when a is freed.
// Finalizers run in reverse registration order. It panics if a is freed.
func (a *Arena) OnFree(fn func()) {
	if fn == nil {
		return
	}

	graph.Lock()
	defer graph.Unlock()

	a.mustLive("OnFree")
	a.finalizers = append(a.finalizers, fn)
}

// Free releases a and every arena it transitively owns.
// Descendants are finalized before their owners, and the most recently
// attached child is finalized first. Free is idempotent.
func (a *Arena) Free() {
	graph.Lock()

	if a.freed {
		graph.Unlock()

		return
	}

	a.unlink()

	var pending []func()

	a.collect(&pending)
	graph.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// collect marks a and its subtree freed and appends their finalizers to
// pending in execution order. The caller holds graph.
func (a *Arena) collect(pending *[]func()) {
	for _, c := range slices.Backward(a.children) {
		c.parent = nil
		c.collect(pending)
	}

	for _, fn := range slices.Backward(a.finalizers) {
		*pending = append(*pending, fn)
	}

	a.children = nil
	a.finalizers = nil
	a.freed = true
}

// link attaches child to a. The caller holds graph.
func (a *Arena) link(child *Arena) {
	child.parent = a
	a.children = append(a.children, child)
}

// unlink detaches a from its parent. The caller holds graph.
func (a *Arena) unlink() {
	p := a.parent
	if p == nil {
		return
	}

	if i := slices.Index(p.children, a); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}

	a.parent = nil
}

// mustLive panics if a is freed. The caller holds graph.
func (a *Arena) mustLive(op string) {
	if a.freed {
		panic(ErrFreed.With(
			slog.String("op", op),
			slog.String("arena", a.label()),
		))
	}
}

func (a *Arena) label() string {
	if a.name == "" {
		return "(anonymous)"
	}

	return a.name
}
