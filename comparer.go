package weakref

import (
	"hash/maphash"
)

type (
	// Comparer is the equality strategy used by containers to match keys
	// and values. Values that are equal must hash equally.
	//
	// Comparers are only ever given values that are currently reachable,
	// i.e. weakly-held sides are resolved prior to comparison.
	Comparer[E any] interface {
		Equal(a, b E) bool
		Hash(v E) uint64
	}

	// ComparerFunc adapts a pair of functions to the [Comparer] interface.
	ComparerFunc[E any] struct {
		EqualFunc func(a, b E) bool
		HashFunc  func(v E) uint64
	}

	comparableComparer[E comparable] struct {
		seed maphash.Seed
	}
)

var (
	_ Comparer[int]  = ComparerFunc[int]{}
	_ Comparer[int]  = (*comparableComparer[int])(nil)
	_ Comparer[*int] = IdentityComparer[int]()
)

// IdentityComparer returns a [Comparer] that matches pointers by address.
// It is the default for weakly-held elements, keys and values.
func IdentityComparer[T any]() Comparer[*T] {
	return ComparableComparer[*T]()
}

// ComparableComparer returns a [Comparer] using the == operator, and
// [maphash.Comparable] for hashing. It is the default for strongly-held keys
// and values.
//
// As with the keys of a Go map, values with a non-comparable dynamic type
// (e.g. a slice, stored in an interface) cause a runtime panic.
func ComparableComparer[E comparable]() Comparer[E] {
	return &comparableComparer[E]{seed: maphash.MakeSeed()}
}

func (x *comparableComparer[E]) Equal(a, b E) bool { return a == b }

func (x *comparableComparer[E]) Hash(v E) uint64 { return maphash.Comparable(x.seed, v) }

func (x ComparerFunc[E]) Equal(a, b E) bool { return x.EqualFunc(a, b) }

func (x ComparerFunc[E]) Hash(v E) uint64 {
	if x.HashFunc == nil {
		// every value shares a single chain
		return 0
	}
	return x.HashFunc(v)
}
