package weakref

import (
	"iter"
)

// bucketCore implements the operations common to the one-to-many map
// variants. Buckets are strongly held, each a [List] with its own cleanup.
//
// Lock order is always map then bucket, and the cleanup hook of the map
// only inspects the (atomic) length of each bucket.
type bucketCore[K, KR any, KS side[K, KR], V any] struct {
	store    table[K, *List[V], KR, *List[V], KS, strongSide[*List[V]]]
	cfg      *options
	comparer Comparer[*V]
	Listener
}

func (x *bucketCore[K, KR, KS, V]) initCore(kind string, cfg *options, keys Comparer[K], cleanup func() int) error {
	comparer, err := resolveComparer(cfg.comparer, IdentityComparer[V])
	if err != nil {
		return err
	}
	x.cfg = cfg
	x.comparer = comparer
	x.store.init(keys, IdentityComparer[List[V]]())
	x.init(kind, cfg, cleanup)
	return nil
}

// Add adds value to the bucket for key, creating the bucket if necessary,
// returning true if the value was not already present.
func (x *bucketCore[K, KR, KS, V]) Add(key K, value *V) (bool, error) {
	if isNil(key) || value == nil {
		return false, invalidArgument(`nil key or value`)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	bucket, ok := x.store.lookup(key)
	if !ok {
		bucket = newListWith(x.kind+`_bucket`, x.cfg, x.comparer)
		x.store.set(key, bucket)
	}
	return bucket.appendUnique(value), nil
}

// FindBucket returns the bucket for key, if it has at least one live value.
// Values added directly to the bucket may be lost, if the bucket is removed
// by cleanup, prior to the addition.
func (x *bucketCore[K, KR, KS, V]) FindBucket(key K) (*List[V], bool) {
	if isNil(key) {
		return nil, false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.findLocked(key)
}

func (x *bucketCore[K, KR, KS, V]) findLocked(key K) (*List[V], bool) {
	if bucket, ok := x.store.lookup(key); ok && bucket.LiveLen() != 0 {
		return bucket, true
	}
	return nil, false
}

// ContainsKey reports whether FindBucket would succeed.
func (x *bucketCore[K, KR, KS, V]) ContainsKey(key K) bool {
	_, ok := x.FindBucket(key)
	return ok
}

// Remove removes value from the bucket for key, returning true if found.
// The bucket itself is left for cleanup.
func (x *bucketCore[K, KR, KS, V]) Remove(key K, value *V) bool {
	if isNil(key) || value == nil {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if bucket, ok := x.store.lookup(key); ok {
		return bucket.Remove(value)
	}
	return false
}

// RemoveKey deletes the bucket for key, returning true if there was one.
func (x *bucketCore[K, KR, KS, V]) RemoveKey(key K) bool {
	if isNil(key) {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.remove(key)
}

// All iterates over a snapshot of every live value, and its key. Values are
// grouped by key, in the order they were added to each bucket.
func (x *bucketCore[K, KR, KS, V]) All() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		keys, buckets := x.snapshot()
		for i, k := range keys {
			for _, v := range buckets[i] {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Keys iterates over a snapshot of the keys with at least one live value.
func (x *bucketCore[K, KR, KS, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		keys, _ := x.snapshot()
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Len returns the number of retained keys, including those with a dead key,
// or an empty bucket, that have not yet been removed by cleanup.
func (x *bucketCore[K, KR, KS, V]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.size
}

// LiveLen returns the number of keys with at least one live value.
func (x *bucketCore[K, KR, KS, V]) LiveLen() int {
	keys, _ := x.snapshot()
	return len(keys)
}

// ValueLen returns the number of live values, across all buckets.
func (x *bucketCore[K, KR, KS, V]) ValueLen() (n int) {
	_, buckets := x.snapshot()
	for _, b := range buckets {
		n += len(b)
	}
	return n
}

// Clear removes all buckets.
func (x *bucketCore[K, KR, KS, V]) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.store.clear()
}

func (x *bucketCore[K, KR, KS, V]) snapshot() (keys []K, buckets [][]*V) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.store.each(func(k K, bucket *List[V]) bool {
		if values := bucket.Slice(); len(values) != 0 {
			keys = append(keys, k)
			buckets = append(buckets, values)
		}
		return true
	})
	return
}
