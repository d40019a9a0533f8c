package core

import (
	"context"
)

// Callback is a subscriber implemented in Go.
//
// Callbacks are compared by pointer, so register the same *Callback
// to get set semantics.
type Callback struct {
	// Func is called with the changed path.
	Func func(ctx context.Context, path string) error

	// Collection, if not nil, is called for Array mutations
	// instead of Func.
	Collection func(ctx context.Context, path string, delta *Delta) error
}

// ContextCallback hears about every change in a binding context.
type ContextCallback struct {
	Func func(ctx context.Context, path string, newValue, oldValue interface{}) error
}

// Subscriber is either an element handle or a Callback.
type Subscriber struct {
	Handle   string
	Callback *Callback
}

// IsHandle reports whether the subscriber is an element handle.
func (s Subscriber) IsHandle() bool {
	return s.Callback == nil
}

func (s Subscriber) String() string {
	if s.IsHandle() {
		return s.Handle
	}
	return "callback"
}

// set is an insertion-ordered set.
type set[T comparable] struct {
	order []T
	has   map[T]bool
}

func newSet[T comparable]() *set[T] {
	return &set[T]{
		has: make(map[T]bool),
	}
}

// add returns false if x was already present.
func (s *set[T]) add(x T) bool {
	if s.has[x] {
		return false
	}
	s.has[x] = true
	s.order = append(s.order, x)
	return true
}

func (s *set[T]) remove(x T) {
	if !s.has[x] {
		return
	}
	delete(s.has, x)
	for i, y := range s.order {
		if y == x {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *set[T]) len() int {
	return len(s.order)
}

// items returns a copy, which is safe to iterate while subscribers
// change the set.
func (s *set[T]) items() []T {
	acc := make([]T, len(s.order))
	copy(acc, s.order)
	return acc
}

// dependencies maps property paths to subscribers for one binding
// context.  Paths are kept in registration order.
type dependencies struct {
	paths []Path
	subs  map[string]*set[Subscriber]
}

func newDependencies() *dependencies {
	return &dependencies{
		subs: make(map[string]*set[Subscriber]),
	}
}

func (d *dependencies) add(p Path, s Subscriber) {
	ss, have := d.subs[p.String()]
	if !have {
		ss = newSet[Subscriber]()
		d.subs[p.String()] = ss
		d.paths = append(d.paths, p)
	}
	ss.add(s)
}

func (d *dependencies) remove(p Path, s Subscriber) {
	ss, have := d.subs[p.String()]
	if !have {
		return
	}
	ss.remove(s)
	if 0 < ss.len() {
		return
	}
	delete(d.subs, p.String())
	for i, q := range d.paths {
		if q.String() == p.String() {
			d.paths = append(d.paths[:i], d.paths[i+1:]...)
			break
		}
	}
}

// removeAll removes the subscriber from every path.
func (d *dependencies) removeAll(s Subscriber) {
	for _, p := range append([]Path(nil), d.paths...) {
		d.remove(p, s)
	}
}

// binding is one (id, path) registration of an element handle.
type binding struct {
	id   int
	path string
}
