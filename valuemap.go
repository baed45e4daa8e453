package weakref

type (
	// ValueMap is a map with strongly-held keys, and weakly-held values.
	// Entries are removed on cleanup, once their value has been collected,
	// and are invisible to all operations but Remove and Len, in the
	// meantime.
	//
	// Keys are compared using [ComparableComparer], by default, and values
	// using [IdentityComparer]. See also [WithKeyComparer] and
	// [WithComparer]. If K is an interface type, keys must be comparable at
	// runtime, as for a Go map, or the default comparer will panic.
	//
	// A ValueMap must be created using [NewValueMap].
	ValueMap[K comparable, V any] struct {
		mapCore[K, *V, K, handle[V], strongSide[K], weakSide[V]]
	}
)

// NewValueMap initializes a new, empty [ValueMap].
func NewValueMap[K comparable, V any](opts ...Option) (*ValueMap[K, V], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	keys, err := resolveComparer(cfg.keyComparer, ComparableComparer[K])
	if err != nil {
		return nil, err
	}
	values, err := resolveComparer(cfg.comparer, IdentityComparer[V])
	if err != nil {
		return nil, err
	}
	x := new(ValueMap[K, V])
	x.initCore(`value_map`, cfg, keys, values)
	return x, nil
}
