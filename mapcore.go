package weakref

import (
	"iter"
)

// mapCore implements the operations common to the map variants, where K and
// V are the key and value types, as seen by callers.
type mapCore[K, V, KR, VR any, KS side[K, KR], VS side[V, VR]] struct {
	store table[K, V, KR, VR, KS, VS]
	Listener
}

func (x *mapCore[K, V, KR, VR, KS, VS]) initCore(kind string, cfg *options, keys Comparer[K], values Comparer[V]) {
	x.store.init(keys, values)
	x.init(kind, cfg, x.store.prune)
}

// Add inserts a new entry, failing with [ErrDuplicateKey] if the key is
// already present, and its value is alive. Entries with a dead value are
// replaced.
func (x *mapCore[K, V, KR, VR, KS, VS]) Add(key K, value V) error {
	if isNil(key) || isNil(value) {
		return invalidArgument(`nil key or value`)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.add(key, value)
}

// Set inserts or replaces the entry for key.
func (x *mapCore[K, V, KR, VR, KS, VS]) Set(key K, value V) error {
	if isNil(key) || isNil(value) {
		return invalidArgument(`nil key or value`)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.store.set(key, value)
	return nil
}

// Get returns the value for key, or [ErrNotFound] if it is missing or dead.
// The value will remain alive until at least the next cleanup.
func (x *mapCore[K, V, KR, VR, KS, VS]) Get(key K) (V, error) {
	if v, ok := x.TryGet(key); ok {
		return v, nil
	}
	var zero V
	return zero, ErrNotFound
}

// TryGet is like Get, but reports absence with a bool.
func (x *mapCore[K, V, KR, VR, KS, VS]) TryGet(key K) (V, bool) {
	if isNil(key) {
		var zero V
		return zero, false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.get(key)
}

// ContainsKey reports whether key maps to a live value.
func (x *mapCore[K, V, KR, VR, KS, VS]) ContainsKey(key K) bool {
	if isNil(key) {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.containsKey(key)
}

// ContainsValue reports whether any key maps to a live value equal to value.
func (x *mapCore[K, V, KR, VR, KS, VS]) ContainsValue(value V) bool {
	if isNil(value) {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.containsValue(value)
}

// Remove deletes the entry for key, even if its value is dead, returning
// true if there was one. Entries with a dead key cannot be matched, and are
// left for cleanup.
func (x *mapCore[K, V, KR, VR, KS, VS]) Remove(key K) bool {
	if isNil(key) {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.remove(key)
}

// All iterates over a snapshot of the live entries, in no particular order.
func (x *mapCore[K, V, KR, VR, KS, VS]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		keys, values := x.snapshot()
		for i := range keys {
			if !yield(keys[i], values[i]) {
				return
			}
		}
	}
}

// Keys iterates over a snapshot of the keys of the live entries.
func (x *mapCore[K, V, KR, VR, KS, VS]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		keys, _ := x.snapshot()
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Values iterates over a snapshot of the live values.
func (x *mapCore[K, V, KR, VR, KS, VS]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		_, values := x.snapshot()
		for _, v := range values {
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of retained entries, including those with a dead
// value, that have not yet been removed by cleanup.
func (x *mapCore[K, V, KR, VR, KS, VS]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.size
}

// LiveLen returns the number of live entries.
func (x *mapCore[K, V, KR, VR, KS, VS]) LiveLen() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.store.liveLen()
}

// Clear removes all entries.
func (x *mapCore[K, V, KR, VR, KS, VS]) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.store.clear()
}

func (x *mapCore[K, V, KR, VR, KS, VS]) snapshot() (keys []K, values []V) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.store.each(func(k K, v V) bool {
		keys = append(keys, k)
		values = append(values, v)
		return true
	})
	return
}
