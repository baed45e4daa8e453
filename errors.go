package weakref

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidArgument indicates a nil target, key, value or comparer, or
	// a negative threshold.
	ErrInvalidArgument = errors.New(`weakref: invalid argument`)

	// ErrDuplicateKey is returned when adding a key that is already present
	// with a live entry. Entries that have died are superseded instead.
	ErrDuplicateKey = errors.New(`weakref: duplicate key`)

	// ErrNotFound is returned by accessors that require presence, e.g. an
	// index out of range, or a key that is missing or dead.
	ErrNotFound = errors.New(`weakref: not found`)
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf(`%w: `+format, append([]any{ErrInvalidArgument}, args...)...)
}

// isNil reports whether v is a nil pointer, map, slice, chan, func or
// interface. Strongly-held keys and values may be of any type, but nil
// references are rejected, consistently with the weakly-held sides.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
