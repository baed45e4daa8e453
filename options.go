package weakref

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

type (
	// Option configures a container (or a standalone [Listener]), see the
	// With* functions in this package. Nil options are ignored.
	Option interface {
		applyOption(*options) error
	}

	optionImpl struct {
		applyOptionFunc func(*options) error
	}

	options struct {
		logger      *logiface.Logger[logiface.Event]
		limiter     *catrate.Limiter
		comparer    any
		keyComparer any
		cycles      uint64
		ticks       time.Duration
	}
)

func (x *optionImpl) applyOption(opts *options) error {
	return x.applyOptionFunc(opts)
}

// WithCycles sets the number of GC cycles (pulses) between each cleanup.
// See also [Listener.SetCycles].
//
// **Defaults to cleaning up on every pulse, if 0** (and ticks are also 0).
func WithCycles(n int) Option {
	return &optionImpl{func(opts *options) error {
		if n < 0 {
			return invalidArgument(`negative cycles: %d`, n)
		}
		opts.cycles = uint64(n)
		return nil
	}}
}

// WithTicks sets the minimum elapsed time between each cleanup, evaluated on
// each pulse. If cycles are also configured, they take priority.
// See also [Listener.SetTicks].
//
// **Defaults to ignoring time, if 0.**
func WithTicks(d time.Duration) Option {
	return &optionImpl{func(opts *options) error {
		if d < 0 {
			return invalidArgument(`negative ticks: %s`, d)
		}
		opts.ticks = d
		return nil
	}}
}

// WithLogger configures a logger, which will receive trace-level events on
// each cleanup, and error-level events if cleanup panics. A nil logger
// disables logging, which is also the default.
//
// Use [logiface.Logger.Logger] to convert a typed logger.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *options) error {
		opts.logger = logger
		return nil
	}}
}

// WithLogRates limits the rate of trace-level cleanup events, per container,
// using the same rate configuration as [catrate.NewLimiter]. Error-level
// events are never limited.
func WithLogRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *options) (err error) {
		if len(rates) == 0 {
			opts.limiter = nil
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				err = invalidArgument(`log rates: %v`, r)
			}
		}()
		opts.limiter = catrate.NewLimiter(rates)
		return nil
	}}
}

// WithComparer sets the equality strategy for elements (lists) or values
// (maps). The type parameter must match the container, e.g. *T for a
// [List], or V for a [KeyMap].
func WithComparer[E any](comparer Comparer[E]) Option {
	return &optionImpl{func(opts *options) error {
		if err := checkComparer(comparer); err != nil {
			return err
		}
		opts.comparer = comparer
		return nil
	}}
}

// WithKeyComparer sets the equality strategy for map keys. The type
// parameter must match the container, e.g. K for a [ValueMap], or *K for a
// [KeyMap].
func WithKeyComparer[E any](comparer Comparer[E]) Option {
	return &optionImpl{func(opts *options) error {
		if err := checkComparer(comparer); err != nil {
			return err
		}
		opts.keyComparer = comparer
		return nil
	}}
}

func checkComparer[E any](comparer Comparer[E]) error {
	if comparer == nil {
		return invalidArgument(`nil comparer`)
	}
	if v, ok := comparer.(ComparerFunc[E]); ok && v.EqualFunc == nil {
		return invalidArgument(`nil comparer equal func`)
	}
	return nil
}

func resolveOptions(opts []Option) (*options, error) {
	cfg := new(options)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyOption(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// resolveComparer returns the configured comparer, or the default, failing
// if the configured comparer is for the wrong type.
func resolveComparer[E any](configured any, def func() Comparer[E]) (Comparer[E], error) {
	if configured == nil {
		return def(), nil
	}
	if v, ok := configured.(Comparer[E]); ok {
		return v, nil
	}
	var zero E
	return nil, invalidArgument(`comparer %T does not support %T`, configured, zero)
}

