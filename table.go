package weakref

import (
	"golang.org/x/exp/slices"
)

type (
	// side adapts a strongly or weakly held key or value, of type E, to its
	// stored representation, R.
	side[E, R any] interface {
		wrap(v E) R
		// peek resolves without affecting lifetime
		peek(r *R) (E, bool)
		// read resolves and pins until the next cleanup
		read(r *R) (E, bool)
		release(r *R)
	}

	strongSide[E any] struct{}

	weakSide[T any] struct{}

	entry[KR, VR any] struct {
		key   KR
		value VR
	}

	// table is the hash-chained store backing the map variants. Each chain
	// is indexed by the hash captured from the original key, on insert, as
	// weak keys may no longer be available to rehash. It is not safe for
	// concurrent use.
	table[K, V, KR, VR any, KS side[K, KR], VS side[V, VR]] struct {
		keys    Comparer[K]
		values  Comparer[V]
		buckets map[uint64][]entry[KR, VR]
		size    int
	}
)

func (strongSide[E]) wrap(v E) E { return v }

func (strongSide[E]) peek(r *E) (E, bool) { return *r, true }

func (strongSide[E]) read(r *E) (E, bool) { return *r, true }

func (strongSide[E]) release(*E) {}

func (weakSide[T]) wrap(v *T) handle[T] { return makeHandle(v) }

func (weakSide[T]) peek(r *handle[T]) (*T, bool) {
	v := r.peek()
	return v, v != nil
}

func (weakSide[T]) read(r *handle[T]) (*T, bool) {
	v := r.read()
	return v, v != nil
}

func (weakSide[T]) release(r *handle[T]) { r.release() }

func (x *table[K, V, KR, VR, KS, VS]) init(keys Comparer[K], values Comparer[V]) {
	x.keys = keys
	x.values = values
	x.buckets = make(map[uint64][]entry[KR, VR])
}

// find returns the index of the entry with a live key equal to key, within
// the chain for hash, or -1.
func (x *table[K, V, KR, VR, KS, VS]) find(hash uint64, key K) int {
	var ks KS
	chain := x.buckets[hash]
	for i := range chain {
		if k, ok := ks.peek(&chain[i].key); ok && x.keys.Equal(k, key) {
			return i
		}
	}
	return -1
}

func (x *table[K, V, KR, VR, KS, VS]) insert(hash uint64, key K, value V) {
	var (
		ks KS
		vs VS
	)
	x.buckets[hash] = append(x.buckets[hash], entry[KR, VR]{
		key:   ks.wrap(key),
		value: vs.wrap(value),
	})
	x.size++
}

func (x *table[K, V, KR, VR, KS, VS]) add(key K, value V) error {
	var (
		ks KS
		vs VS
	)
	hash := x.keys.Hash(key)
	if i := x.find(hash, key); i >= 0 {
		e := &x.buckets[hash][i]
		if _, ok := vs.peek(&e.value); ok {
			return ErrDuplicateKey
		}
		// dead entries are superseded
		*e = entry[KR, VR]{key: ks.wrap(key), value: vs.wrap(value)}
		return nil
	}
	x.insert(hash, key, value)
	return nil
}

func (x *table[K, V, KR, VR, KS, VS]) set(key K, value V) {
	var (
		ks KS
		vs VS
	)
	hash := x.keys.Hash(key)
	if i := x.find(hash, key); i >= 0 {
		x.buckets[hash][i] = entry[KR, VR]{key: ks.wrap(key), value: vs.wrap(value)}
		return
	}
	x.insert(hash, key, value)
}

// lookup resolves the value for key, without affecting lifetimes.
func (x *table[K, V, KR, VR, KS, VS]) lookup(key K) (V, bool) {
	var vs VS
	hash := x.keys.Hash(key)
	if i := x.find(hash, key); i >= 0 {
		if v, ok := vs.peek(&x.buckets[hash][i].value); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// get resolves the value for key, pinning both sides of the entry.
func (x *table[K, V, KR, VR, KS, VS]) get(key K) (V, bool) {
	var (
		ks KS
		vs VS
	)
	hash := x.keys.Hash(key)
	if i := x.find(hash, key); i >= 0 {
		e := &x.buckets[hash][i]
		if v, ok := vs.read(&e.value); ok {
			if _, ok := ks.read(&e.key); ok {
				return v, true
			}
		}
	}
	var zero V
	return zero, false
}

func (x *table[K, V, KR, VR, KS, VS]) containsKey(key K) bool {
	var vs VS
	hash := x.keys.Hash(key)
	if i := x.find(hash, key); i >= 0 {
		_, ok := vs.peek(&x.buckets[hash][i].value)
		return ok
	}
	return false
}

func (x *table[K, V, KR, VR, KS, VS]) containsValue(value V) bool {
	var (
		ks KS
		vs VS
	)
	for _, chain := range x.buckets {
		for i := range chain {
			e := &chain[i]
			v, ok := vs.peek(&e.value)
			if !ok || !x.values.Equal(v, value) {
				continue
			}
			// the match must still be visible, i.e. the key is also alive
			if _, ok := ks.peek(&e.key); ok {
				if _, ok := vs.peek(&e.value); ok {
					return true
				}
			}
		}
	}
	return false
}

// remove deletes the entry for key, regardless of the liveness of its value.
func (x *table[K, V, KR, VR, KS, VS]) remove(key K) bool {
	hash := x.keys.Hash(key)
	i := x.find(hash, key)
	if i < 0 {
		return false
	}
	x.deleteAt(hash, i)
	return true
}

func (x *table[K, V, KR, VR, KS, VS]) deleteAt(hash uint64, i int) {
	if chain := slices.Delete(x.buckets[hash], i, i+1); len(chain) != 0 {
		x.buckets[hash] = chain
	} else {
		delete(x.buckets, hash)
	}
	x.size--
}

// each calls fn for every live entry, stopping if fn returns false.
func (x *table[K, V, KR, VR, KS, VS]) each(fn func(k K, v V) bool) {
	var (
		ks KS
		vs VS
	)
	for _, chain := range x.buckets {
		for i := range chain {
			k, ok := ks.peek(&chain[i].key)
			if !ok {
				continue
			}
			v, ok := vs.peek(&chain[i].value)
			if !ok {
				continue
			}
			if !fn(k, v) {
				return
			}
		}
	}
}

func (x *table[K, V, KR, VR, KS, VS]) liveLen() (n int) {
	x.each(func(K, V) bool {
		n++
		return true
	})
	return n
}

func (x *table[K, V, KR, VR, KS, VS]) clear() {
	clear(x.buckets)
	x.size = 0
}

// deleteFunc removes raw entries matching pred, regardless of liveness.
func (x *table[K, V, KR, VR, KS, VS]) deleteFunc(pred func(e *entry[KR, VR]) bool) int {
	var removed int
	for hash, chain := range x.buckets {
		n := len(chain)
		chain = slices.DeleteFunc(chain, func(e entry[KR, VR]) bool { return pred(&e) })
		removed += n - len(chain)
		if len(chain) == 0 {
			delete(x.buckets, hash)
		} else {
			x.buckets[hash] = chain
		}
	}
	x.size -= removed
	return removed
}

// prune removes entries with a dead side, and releases pins on the rest.
func (x *table[K, V, KR, VR, KS, VS]) prune() int {
	var (
		ks KS
		vs VS
	)
	removed := x.deleteFunc(func(e *entry[KR, VR]) bool {
		if _, ok := ks.peek(&e.key); !ok {
			return true
		}
		_, ok := vs.peek(&e.value)
		return !ok
	})
	for _, chain := range x.buckets {
		for i := range chain {
			ks.release(&chain[i].key)
			vs.release(&chain[i].value)
		}
	}
	return removed
}
