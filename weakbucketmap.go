package weakref

type (
	// WeakBucketMap maps weakly-held keys to buckets of weakly-held values.
	// A key is removed on cleanup only once the key itself has been
	// collected. Unlike [BucketMap], a live key with an empty bucket is
	// retained, and may be re-populated.
	//
	// A WeakBucketMap must be created using [NewWeakBucketMap].
	WeakBucketMap[K, V any] struct {
		bucketCore[*K, handle[K], weakSide[K], V]
	}
)

// NewWeakBucketMap initializes a new, empty [WeakBucketMap]. Keys and values
// default to [IdentityComparer]. The options also apply to each bucket.
func NewWeakBucketMap[K, V any](opts ...Option) (*WeakBucketMap[K, V], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	keys, err := resolveComparer(cfg.keyComparer, IdentityComparer[K])
	if err != nil {
		return nil, err
	}
	x := new(WeakBucketMap[K, V])
	if err := x.initCore(`weak_bucket_map`, cfg, keys, x.store.prune); err != nil {
		return nil, err
	}
	return x, nil
}
