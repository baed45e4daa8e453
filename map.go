package weakref

type (
	// Map is a map where both keys and values are weakly held. An entry is
	// removed on cleanup once either side has been collected.
	//
	// A Map must be created using [NewMap].
	Map[K, V any] struct {
		mapCore[*K, *V, handle[K], handle[V], weakSide[K], weakSide[V]]
	}
)

// NewMap initializes a new, empty [Map]. Both keys and values default to
// [IdentityComparer].
func NewMap[K, V any](opts ...Option) (*Map[K, V], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	keys, err := resolveComparer(cfg.keyComparer, IdentityComparer[K])
	if err != nil {
		return nil, err
	}
	values, err := resolveComparer(cfg.comparer, IdentityComparer[V])
	if err != nil {
		return nil, err
	}
	x := new(Map[K, V])
	x.initCore(`map`, cfg, keys, values)
	return x, nil
}
