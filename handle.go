package weakref

import (
	"weak"
)

// handle is a weak reference to a target, plus a transient strong reference,
// set on read and cleared by the owning container's cleanup. It is owned by
// exactly one container, and all access is guarded by that container's mutex.
//
// The strong reference is non-nil only while the target is reachable (the
// strong reference itself guarantees that).
type handle[T any] struct {
	weak   weak.Pointer[T]
	strong *T
}

func makeHandle[T any](target *T) handle[T] {
	return handle[T]{weak: weak.Make(target)}
}

// read resolves the target, and pins it until the next cleanup.
func (x *handle[T]) read() *T {
	x.strong = x.weak.Value()
	return x.strong
}

// peek resolves the target without affecting its lifetime.
func (x *handle[T]) peek() *T {
	if x.strong != nil {
		return x.strong
	}
	return x.weak.Value()
}

func (x *handle[T]) alive() bool {
	return x.peek() != nil
}

// release drops the strong reference, returning true if it was set.
func (x *handle[T]) release() bool {
	if x.strong == nil {
		return false
	}
	x.strong = nil
	return true
}

