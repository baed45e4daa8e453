package weakref

type (
	// BucketMap maps strongly-held keys to buckets of weakly-held values.
	// Each bucket is a [List], pruned by its own cleanup. A key is removed on
	// cleanup once its bucket has been observed empty.
	//
	// Keys are compared using [ComparableComparer], by default, and values
	// using [IdentityComparer].
	//
	// A BucketMap must be created using [NewBucketMap].
	BucketMap[K comparable, V any] struct {
		bucketCore[K, K, strongSide[K], V]
	}
)

// NewBucketMap initializes a new, empty [BucketMap]. The options also apply
// to each bucket.
func NewBucketMap[K comparable, V any](opts ...Option) (*BucketMap[K, V], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	keys, err := resolveComparer(cfg.keyComparer, ComparableComparer[K])
	if err != nil {
		return nil, err
	}
	x := new(BucketMap[K, V])
	if err := x.initCore(`bucket_map`, cfg, keys, x.cleanupLocked); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *BucketMap[K, V]) cleanupLocked() int {
	return x.store.deleteFunc(func(e *entry[K, *List[V]]) bool {
		return e.value.Len() == 0
	})
}
