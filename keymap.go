package weakref

type (
	// KeyMap is a map with weakly-held keys, and strongly-held values. It
	// may be used to associate data with objects, without extending their
	// lifetime. Note that values must not reference their key, or the key
	// will never be collected.
	//
	// Keys are compared using [IdentityComparer], by default, and values
	// using [ComparableComparer].
	//
	// A KeyMap must be created using [NewKeyMap].
	KeyMap[K any, V comparable] struct {
		mapCore[*K, V, handle[K], V, weakSide[K], strongSide[V]]
	}
)

// NewKeyMap initializes a new, empty [KeyMap].
func NewKeyMap[K any, V comparable](opts ...Option) (*KeyMap[K, V], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	keys, err := resolveComparer(cfg.keyComparer, IdentityComparer[K])
	if err != nil {
		return nil, err
	}
	values, err := resolveComparer(cfg.comparer, ComparableComparer[V])
	if err != nil {
		return nil, err
	}
	x := new(KeyMap[K, V])
	x.initCore(`key_map`, cfg, keys, values)
	return x, nil
}
