// Package gcsignal delivers a callback once per garbage collection cycle, for
// as long as the receiving owner remains reachable.
//
// Each notification is driven by a short-lived sentinel allocation, with a
// cleanup attached via [runtime.AddCleanup]. When the sentinel is reclaimed,
// the cleanup arms a replacement before invoking the callback, so there is
// always exactly one sentinel in flight per owner. The owner is referenced
// weakly, and the chain terminates the first time it is found to be dead.
package gcsignal

import (
	"runtime"
	"weak"
)

type (
	state[T any] struct {
		owner weak.Pointer[T]
		fn    func(*T)
	}

	// sentinel must contain a pointer, so it is never combined into a
	// tiny allocation block (which would delay its reclamation).
	sentinel struct {
		_ *byte
	}
)

// for testing purposes
var (
	addCleanup = func(s *sentinel, fn func(arg any), arg any) {
		runtime.AddCleanup(s, fn, arg)
	}
)

// Notify arranges for fn to be called with owner after each garbage
// collection cycle, until owner is no longer reachable. The callback runs on
// the runtime's cleanup goroutine, and must not block. Panics raised by fn
// are recovered and discarded.
//
// Notify panics if owner or fn are nil.
func Notify[T any](owner *T, fn func(*T)) {
	if owner == nil {
		panic(`gcsignal: nil owner`)
	}
	if fn == nil {
		panic(`gcsignal: nil fn`)
	}
	arm(&state[T]{
		owner: weak.Make(owner),
		fn:    fn,
	})
}

func arm[T any](s *state[T]) {
	addCleanup(new(sentinel), fire[T], s)
}

func fire[T any](arg any) {
	s := arg.(*state[T])
	owner := s.owner.Value()
	if owner == nil {
		// owner was collected, stop the chain
		return
	}
	// successor first, a panicking fn must not stop delivery
	arm(s)
	deliver(s.fn, owner)
}

func deliver[T any](fn func(*T), owner *T) {
	defer func() { _ = recover() }()
	fn(owner)
}
