package weakref

import (
	"iter"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

type (
	// List is an ordered sequence of weakly-held elements. Dead elements are
	// skipped by all operations, and are removed (preserving the order of the
	// survivors) on cleanup. Indexes refer to live elements only.
	//
	// Element equality is determined by the configured [Comparer], which
	// defaults to [IdentityComparer].
	//
	// A List must be created using [NewList].
	List[T any] struct {
		comparer Comparer[*T]
		items    []handle[T]
		// len(items), published for lock-free emptiness checks
		size atomic.Int64
		Listener
	}
)

// NewList initializes a new, empty [List].
func NewList[T any](opts ...Option) (*List[T], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return newList[T](`list`, cfg)
}

func newList[T any](kind string, cfg *options) (*List[T], error) {
	comparer, err := resolveComparer(cfg.comparer, IdentityComparer[T])
	if err != nil {
		return nil, err
	}
	return newListWith(kind, cfg, comparer), nil
}

func newListWith[T any](kind string, cfg *options, comparer Comparer[*T]) *List[T] {
	x := &List[T]{comparer: comparer}
	x.init(kind, cfg, x.cleanupLocked)
	return x
}

// Append adds v to the end of the list.
func (x *List[T]) Append(v *T) error {
	if v == nil {
		return invalidArgument(`nil element`)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.appendLocked(v)
	return nil
}

func (x *List[T]) appendLocked(v *T) {
	x.items = append(x.items, makeHandle(v))
	x.publishLocked()
}

// appendUnique appends v if no equal live element is present.
func (x *List[T]) appendUnique(v *T) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if j, _ := x.indexLocked(x.matcher(v), false); j >= 0 {
		return false
	}
	x.appendLocked(v)
	return true
}

// Insert adds v at index i, which must be within [0, LiveLen()].
func (x *List[T]) Insert(i int, v *T) error {
	if v == nil {
		return invalidArgument(`nil element`)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	j, ok := x.rawIndexLocked(i)
	if !ok {
		if i < 0 || i != x.liveLenLocked() {
			return ErrNotFound
		}
		j = len(x.items)
	}
	x.items = slices.Insert(x.items, j, makeHandle(v))
	x.publishLocked()
	return nil
}

// At returns the live element at index i, or [ErrNotFound]. The element will
// remain alive until at least the next cleanup.
func (x *List[T]) At(i int) (*T, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if j, ok := x.rawIndexLocked(i); ok {
		if v := x.items[j].read(); v != nil {
			return v, nil
		}
	}
	return nil, ErrNotFound
}

// Set replaces the live element at index i, or returns [ErrNotFound].
func (x *List[T]) Set(i int, v *T) error {
	if v == nil {
		return invalidArgument(`nil element`)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	j, ok := x.rawIndexLocked(i)
	if !ok {
		return ErrNotFound
	}
	x.items[j] = makeHandle(v)
	return nil
}

// Remove removes the first live element equal to v, returning true if found.
func (x *List[T]) Remove(v *T) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.removeLocked(v)
}

func (x *List[T]) removeLocked(v *T) bool {
	j, _ := x.indexLocked(x.matcher(v), false)
	if j < 0 {
		return false
	}
	x.items = slices.Delete(x.items, j, j+1)
	x.publishLocked()
	return true
}

// RemoveAll removes every live element equal to v, returning the count.
func (x *List[T]) RemoveAll(v *T) int {
	return x.RemoveFunc(x.matcher(v))
}

// RemoveFunc removes every live element matching pred, returning the count.
func (x *List[T]) RemoveFunc(pred func(v *T) bool) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	n := len(x.items)
	x.items = slices.DeleteFunc(x.items, func(h handle[T]) bool {
		v := h.peek()
		return v != nil && pred(v)
	})
	x.publishLocked()
	return n - len(x.items)
}

// Contains reports whether a live element equal to v is present.
func (x *List[T]) Contains(v *T) bool {
	return x.IndexOf(v) >= 0
}

// IndexOf returns the index of the first live element equal to v, or -1.
func (x *List[T]) IndexOf(v *T) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if j, _ := x.indexLocked(x.matcher(v), false); j >= 0 {
		return x.liveIndexLocked(j)
	}
	return -1
}

// Find returns the first live element matching pred.
func (x *List[T]) Find(pred func(v *T) bool) (*T, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if j, v := x.indexLocked(pred, false); j >= 0 {
		return v, true
	}
	return nil, false
}

// FindLast returns the last live element matching pred.
func (x *List[T]) FindLast(pred func(v *T) bool) (*T, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if j, v := x.indexLocked(pred, true); j >= 0 {
		return v, true
	}
	return nil, false
}

// FindAll returns every live element matching pred, in order.
func (x *List[T]) FindAll(pred func(v *T) bool) []*T {
	x.mu.Lock()
	defer x.mu.Unlock()
	var found []*T
	for i := range x.items {
		if v := x.items[i].peek(); v != nil && pred(v) {
			found = append(found, v)
		}
	}
	return found
}

// Slice returns a snapshot of the live elements, in order.
func (x *List[T]) Slice() []*T {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.sliceLocked()
}

func (x *List[T]) sliceLocked() []*T {
	values := make([]*T, 0, len(x.items))
	for i := range x.items {
		if v := x.items[i].peek(); v != nil {
			values = append(values, v)
		}
	}
	return values
}

// All iterates over a snapshot of the live elements, and their indexes.
// The list is not locked while yielding.
func (x *List[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i, v := range x.Slice() {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values iterates over a snapshot of the live elements.
func (x *List[T]) Values() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, v := range x.Slice() {
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of retained elements, including dead elements
// which have not yet been removed by cleanup. See also [List.LiveLen].
func (x *List[T]) Len() int {
	return int(x.size.Load())
}

// LiveLen returns the number of live elements.
func (x *List[T]) LiveLen() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.liveLenLocked()
}

// Clear removes all elements.
func (x *List[T]) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.items = nil
	x.publishLocked()
}

func (x *List[T]) cleanupLocked() int {
	n := len(x.items)
	x.items = slices.DeleteFunc(x.items, func(h handle[T]) bool {
		return !h.alive()
	})
	for i := range x.items {
		x.items[i].release()
	}
	x.publishLocked()
	return n - len(x.items)
}

func (x *List[T]) publishLocked() {
	x.size.Store(int64(len(x.items)))
}

func (x *List[T]) matcher(v *T) func(*T) bool {
	return func(e *T) bool {
		return v != nil && x.comparer.Equal(e, v)
	}
}

// indexLocked returns the raw index and value of the first (or last) live
// element matching pred, or -1.
func (x *List[T]) indexLocked(pred func(*T) bool, last bool) (int, *T) {
	for k := range x.items {
		j := k
		if last {
			j = len(x.items) - 1 - k
		}
		if v := x.items[j].peek(); v != nil && pred(v) {
			return j, v
		}
	}
	return -1, nil
}

// rawIndexLocked maps a live index to a raw index.
func (x *List[T]) rawIndexLocked(i int) (int, bool) {
	if i < 0 {
		return 0, false
	}
	for j := range x.items {
		if x.items[j].alive() {
			if i == 0 {
				return j, true
			}
			i--
		}
	}
	return 0, false
}

// liveIndexLocked maps a raw index to a live index.
func (x *List[T]) liveIndexLocked(j int) int {
	var i int
	for k := 0; k < j; k++ {
		if x.items[k].alive() {
			i++
		}
	}
	return i
}

func (x *List[T]) liveLenLocked() int {
	var n int
	for i := range x.items {
		if x.items[i].alive() {
			n++
		}
	}
	return n
}
