package weakref

type (
	// Slot is a single weak reference, which may be protected from
	// collection for at least one cleanup interval, by reading it.
	//
	// A Slot must be created using [NewSlot].
	Slot[T any] struct {
		handle handle[T]
		Listener
	}
)

// NewSlot initializes a new [Slot], referencing target.
func NewSlot[T any](target *T, opts ...Option) (*Slot[T], error) {
	if target == nil {
		return nil, invalidArgument(`nil target`)
	}
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	x := &Slot[T]{handle: makeHandle(target)}
	x.init(`slot`, cfg, x.cleanupLocked)
	return x, nil
}

// Value returns the target, or nil if it has been collected. If the target
// is alive, it will remain so until at least the next cleanup.
func (x *Slot[T]) Value() *T {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.handle.read()
}

// Alive reports whether the target has not yet been collected, without
// affecting its lifetime.
func (x *Slot[T]) Alive() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.handle.alive()
}

// Peek returns the target, or nil if it has been collected, without
// affecting its lifetime.
func (x *Slot[T]) Peek() *T {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.handle.peek()
}

func (x *Slot[T]) cleanupLocked() int {
	x.handle.release()
	return 0
}
