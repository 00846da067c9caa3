// Package list implements an owning, mutex-guarded, growable list.
//
// A [List] owns its elements: every element that implements [arena.Owner]
// is moved under the list's arena when appended, freed when removed, and
// handed back to the caller when popped or dequeued. Destroying the list, or
// freeing any arena that owns it, frees every element it still holds.
//
// Each list serializes its operations with its own mutex. The lock is never
// held while calling back into user code, and no exported method is called
// with the lock held, so the list is deliberately not reentrant.
//
// Misuse (an out-of-range index, popping an empty list, any use after
// [List.Destroy]) panics with an [*InvariantError]. A missing element is
// not an error: [List.Remove] reports it with false.
package list

import (
	"iter"
	"math/bits"
	"slices"
	"sync"

	"github.com/ardnew/recomp/arena"
)

const (
	// minCapacity is the smallest capacity a list starts with.
	minCapacity = 2

	// minReserve is the smallest capacity [List.EnsureCapacity] reserves.
	minReserve = 8
)

// List is an ordered collection of owned elements.
//
// One slot is always kept free: the element count is strictly less than the
// capacity.
type List[T comparable] struct {
	mu        sync.Mutex
	arena     *arena.Arena
	items     []T // len(items) is the capacity
	count     int
	destroyed bool
}

// New returns an empty list with capacity 2 whose arena is owned by owner.
// Freeing owner destroys the list.
func New[T comparable](owner *arena.Arena) *List[T] {
	return newList[T](owner, minCapacity)
}

// NewWithCapacity returns an empty standalone list with capacity max(n, 2).
// The caller must eventually call [List.Destroy].
func NewWithCapacity[T comparable](n int) *List[T] {
	return newList[T](nil, max(n, minCapacity))
}

func newList[T comparable](owner *arena.Arena, capacity int) *List[T] {
	l := &List[T]{
		arena: arena.Named(owner, "list"),
		items: make([]T, capacity),
	}

	l.arena.OnFree(l.release)

	return l
}

// release is the arena finalizer that drops the backing array.
func (l *List[T]) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.destroyed = true
	l.items = nil
	l.count = 0
}

// Arena returns the arena owning the list's elements.
func (l *List[T]) Arena() *arena.Arena { return l.arena }

// Len returns the number of elements.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Cap returns the allocated capacity.
func (l *List[T]) Cap() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.items)
}

// Destroyed reports whether the list has been destroyed.
func (l *List[T]) Destroyed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.destroyed
}

// EnsureCapacity grows the list so that it can hold at least n elements.
// When growth is needed, the new capacity is the least power of two not
// less than n, and never less than 8. It panics if n <= 0.
func (l *List[T]) EnsureCapacity(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkLocked("EnsureCapacity")

	if n <= 0 {
		l.failLocked("EnsureCapacity", "requested capacity must be positive")
	}

	if len(l.items) >= n {
		return
	}

	l.resizeLocked(reserveSize(n))
}

// reserveSize returns the least power of two >= max(n, minReserve).
func reserveSize(n int) int {
	n = max(n, minReserve)

	return 1 << bits.Len(uint(n-1))
}

// Append adds item to the end of the list and takes ownership of it.
// The capacity doubles when only the reserved slot remains.
func (l *List[T]) Append(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkLocked("Append")
	l.appendLocked(item, true)
}

func (l *List[T]) appendLocked(item T, own bool) {
	if own {
		if a := ownedArena(item); a != nil {
			l.arena.Steal(a)
		}
	}

	if l.count == len(l.items)-1 {
		l.resizeLocked(len(l.items) * 2)
	}

	l.items[l.count] = item
	l.count++
}

// Remove frees the first element equal to item and closes the gap.
// It reports false, leaving the list unchanged, if no element matches.
func (l *List[T]) Remove(item T) bool {
	removed, ok := func() (T, bool) {
		l.mu.Lock()
		defer l.mu.Unlock()

		l.checkLocked("Remove")

		i := slices.Index(l.items[:l.count], item)
		if i < 0 {
			var zero T

			return zero, false
		}

		return l.removeLocked(i), true
	}()

	if ok {
		free(removed)
	}

	return ok
}

// RemoveAt frees the element at index i and closes the gap.
// It panics if i is out of range.
func (l *List[T]) RemoveAt(i int) {
	free(l.take("RemoveAt", func() int { return i }))
}

// Pop removes and returns the last element. Ownership of the element passes
// to the caller. It panics if the list is empty.
func (l *List[T]) Pop() T {
	item := l.take("Pop", func() int { return l.count - 1 })
	disown(item)

	return item
}

// Dequeue removes and returns the first element. Ownership of the element
// passes to the caller. It panics if the list is empty.
func (l *List[T]) Dequeue() T {
	item := l.take("Dequeue", func() int { return 0 })
	disown(item)

	return item
}

// take removes and returns the element at the index computed by at, which
// runs with the lock held.
func (l *List[T]) take(op string, at func() int) T {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkLocked(op)

	if l.count == 0 {
		l.failLocked(op, "list is empty")
	}

	i := at()
	l.checkIndexLocked(op, i)

	return l.removeLocked(i)
}

// At returns the element at index i. It panics if i is out of range.
func (l *List[T]) At(i int) T {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkIndexLocked("At", i)

	return l.items[i]
}

// Slice returns a copy of the elements in order.
func (l *List[T]) Slice() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.items[:l.count])
}

// All returns an iterator over the index and value of each element.
// It iterates a snapshot taken when iteration starts, so the loop body may
// modify the list.
func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range l.Slice() {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values returns an iterator over the elements, like [List.All].
func (l *List[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range l.Slice() {
			if !yield(v) {
				return
			}
		}
	}
}

// Copy returns a new standalone list with capacity max(Len, 2) holding
// dup(v) for each element v, in order.
//
// Elements are snapshotted before dup is called and the source lock is not
// held while it runs, so dup may use the source list. The copy takes
// ownership of each duplicate unless dup returned its argument unchanged, in
// which case the element stays owned by the source and is shared.
func (l *List[T]) Copy(dup func(T) T) *List[T] {
	snapshot := func() []T {
		l.mu.Lock()
		defer l.mu.Unlock()

		l.checkLocked("Copy")

		return slices.Clone(l.items[:l.count])
	}()

	c := NewWithCapacity[T](len(snapshot))

	for _, v := range snapshot {
		d := dup(v)

		c.mu.Lock()
		c.appendLocked(d, d != v)
		c.mu.Unlock()
	}

	return c
}

// Destroy frees the list and every element it owns. Destroy is idempotent.
//
// The arena handle is captured and the list is marked destroyed under the
// lock; the arena is freed only after the lock is released.
func (l *List[T]) Destroy() {
	l.mu.Lock()

	if l.destroyed {
		l.mu.Unlock()

		return
	}

	a := l.arena
	l.destroyed = true
	l.mu.Unlock()

	a.Free()
}

// removeLocked deletes index i, shifting later elements down, and returns
// the deleted element. The caller holds l.mu and has validated i.
func (l *List[T]) removeLocked(i int) T {
	var zero T

	item := l.items[i]
	copy(l.items[i:l.count], l.items[i+1:l.count])
	l.count--
	l.items[l.count] = zero

	return item
}

// resizeLocked reallocates the backing array with the given capacity.
func (l *List[T]) resizeLocked(capacity int) {
	items := make([]T, capacity)
	copy(items, l.items[:l.count])
	l.items = items
}

// checkLocked panics if the list is destroyed or its bookkeeping is
// inconsistent.
func (l *List[T]) checkLocked(op string) {
	switch {
	case l.destroyed:
		l.failLocked(op, "list is destroyed")
	case l.count < 0 || l.count >= len(l.items):
		l.failLocked(op, "count must be less than capacity")
	}
}

func (l *List[T]) checkIndexLocked(op string, i int) {
	if i < 0 || i >= l.count {
		l.failLocked(op, "index out of range")
	}
}

// failLocked panics with an [InvariantError]. The caller holds l.mu.
func (l *List[T]) failLocked(op, reason string) {
	panic(&InvariantError{
		Op:     op,
		Reason: reason,
		Len:    l.count,
		Cap:    len(l.items),
	})
}

func ownedArena(v any) *arena.Arena {
	if o, ok := v.(arena.Owner); ok {
		return o.Arena()
	}

	return nil
}

// free releases an element removed from the list.
func free(v any) {
	if a := ownedArena(v); a != nil {
		a.Free()
	}
}

// disown returns ownership of an element to the caller.
func disown(v any) {
	if a := ownedArena(v); a != nil && !a.Freed() {
		a.Detach()
	}
}
