package weakref

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-weakref/internal/gcsignal"
	"github.com/joeycumines/logiface"
)

type (
	// Listener receives a pulse after each garbage collection cycle, and
	// invokes a cleanup hook on qualifying pulses, as determined by the
	// configured cycles and ticks thresholds. Every container in this package
	// embeds a Listener, which drives pruning of its dead entries.
	//
	// The cleanup hook is never invoked concurrently with itself, or with
	// any operation on the owning container. Pulses are dropped, not queued,
	// if the container is locked at the time (see [Listener.Skipped]).
	//
	// Pulses stop once the Listener (or its container) becomes unreachable.
	Listener struct {
		logger  *logiface.Logger[logiface.Event]
		limiter *catrate.Limiter
		cleanup func() int
		kind    string
		// guards all fields below, and the owning container's store
		mu        sync.Mutex
		lastTime  time.Time
		ticks     time.Duration
		cycles    uint64
		lastPulse uint64
		pulses    atomic.Uint64
		skipped   atomic.Uint64
		cleanups  atomic.Uint64
	}
)

// for testing purposes
var (
	timeNow      = time.Now
	notifyCycles = func(x *Listener) { gcsignal.Notify(x, (*Listener).pulse) }
)

// NewListener initializes a standalone [Listener], which will call cleanup on
// each qualifying pulse. It is useful for implementing custom containers, or
// for observing GC activity. The cleanup func must not block, and must be
// safe to call from the runtime's cleanup goroutine.
func NewListener(cleanup func(), opts ...Option) (*Listener, error) {
	if cleanup == nil {
		return nil, invalidArgument(`nil cleanup`)
	}
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	x := new(Listener)
	x.init(`listener`, cfg, func() int {
		cleanup()
		return 0
	})
	return x, nil
}

// init must be called exactly once, before x is shared.
func (x *Listener) init(kind string, cfg *options, cleanup func() int) {
	x.kind = kind
	x.cleanup = cleanup
	x.logger = cfg.logger
	x.limiter = cfg.limiter
	x.cycles = cfg.cycles
	x.ticks = cfg.ticks
	x.lastTime = timeNow()
	notifyCycles(x)
}

// SetCycles sets the number of pulses between each cleanup, where 0 means
// every pulse, unless ticks are configured. Cycles take priority over ticks.
func (x *Listener) SetCycles(n int) error {
	if n < 0 {
		return invalidArgument(`negative cycles: %d`, n)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.cycles = uint64(n)
	return nil
}

// SetTicks sets the minimum time between each cleanup, where 0 means time is
// ignored.
func (x *Listener) SetTicks(d time.Duration) error {
	if d < 0 {
		return invalidArgument(`negative ticks: %s`, d)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ticks = d
	return nil
}

// Cycles returns the configured cycles threshold.
func (x *Listener) Cycles() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return int(x.cycles)
}

// Ticks returns the configured ticks threshold.
func (x *Listener) Ticks() time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ticks
}

// Pulses returns the number of pulses received, including skipped ones.
func (x *Listener) Pulses() uint64 { return x.pulses.Load() }

// Skipped returns the number of pulses dropped due to contention.
func (x *Listener) Skipped() uint64 { return x.skipped.Load() }

// Cleanups returns the number of times the cleanup hook has been invoked.
func (x *Listener) Cleanups() uint64 { return x.cleanups.Load() }

func (x *Listener) pulse() {
	n := x.pulses.Add(1)
	if !x.mu.TryLock() {
		x.skipped.Add(1)
		return
	}
	defer x.mu.Unlock()
	if x.due(n, timeNow()) {
		x.fire(n)
	}
}

// due implements the debounce policy, and must be called with mu held.
func (x *Listener) due(n uint64, now time.Time) bool {
	if x.cycles > 0 && n-x.lastPulse >= x.cycles {
		x.lastPulse = n
		return true
	}
	if x.ticks > 0 {
		if now.Sub(x.lastTime) >= x.ticks {
			x.lastTime = now
			return true
		}
		return false
	}
	return x.cycles == 0
}

func (x *Listener) fire(n uint64) {
	x.cleanups.Add(1)

	if b := x.logger.Trace(); b.Enabled() {
		if _, ok := x.limiter.Allow(x.kind); ok {
			b.Str(`kind`, x.kind).
				Uint64(`pulse`, n).
				Log(`weakref: cleanup`)
		} else {
			b.Release()
		}
	}

	if removed := x.runCleanup(); removed > 0 {
		x.logger.Debug().
			Str(`kind`, x.kind).
			Uint64(`pulse`, n).
			Int(`removed`, removed).
			Log(`weakref: pruned dead entries`)
	}
}

func (x *Listener) runCleanup() (removed int) {
	defer func() {
		if r := recover(); r != nil {
			removed = 0
			b := x.logger.Err().Str(`kind`, x.kind)
			if err, ok := r.(error); ok {
				b = b.Err(err)
			} else {
				b = b.Interface(`panic`, r)
			}
			b.Log(`weakref: cleanup panicked`)
		}
	}()
	return x.cleanup()
}
