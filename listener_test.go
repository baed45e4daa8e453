package weakref

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

func TestNewListener_nilCleanup(t *testing.T) {
	l, err := NewListener(nil)
	require.Nil(t, l)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewListener_invalidOptions(t *testing.T) {
	for _, tc := range [...]struct {
		Name string
		Opt  Option
	}{
		{`negative cycles`, WithCycles(-1)},
		{`negative ticks`, WithTicks(-time.Nanosecond)},
		{`invalid log rates`, WithLogRates(map[time.Duration]int{0: 1})},
		{`nil comparer`, WithComparer[int](nil)},
		{`nil comparer func`, WithKeyComparer(ComparerFunc[int]{})},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			l, err := NewListener(func() {}, tc.Opt)
			require.Nil(t, l)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestListener_debounce(t *testing.T) {
	disableSignal(t)
	for _, tc := range [...]struct {
		Name   string
		Cycles int
		Ticks  time.Duration
		Step   time.Duration
		Want   []bool
	}{
		{`every pulse`, 0, 0, time.Second, []bool{true, true, true}},
		{`cycles 1`, 1, 0, time.Second, []bool{true, true, true}},
		{`cycles 3`, 3, 0, time.Second, []bool{false, false, true, false, false, true, false}},
		{`ticks`, 0, 10 * time.Second, 4 * time.Second, []bool{false, false, true, false, false, true}},
		{`ticks exact`, 0, 2 * time.Second, time.Second, []bool{false, true, false, true}},
		{`cycles before ticks`, 3, 5 * time.Second, 4 * time.Second, []bool{false, true, true, true, false, true}},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			now := time.Unix(1700000000, 0)
			stubTimeNow(t, func() time.Time { return now })

			var calls int
			l, err := NewListener(func() { calls++ }, WithCycles(tc.Cycles), WithTicks(tc.Ticks))
			require.NoError(t, err)
			require.Equal(t, tc.Cycles, l.Cycles())
			require.Equal(t, tc.Ticks, l.Ticks())

			for i, want := range tc.Want {
				now = now.Add(tc.Step)
				before := calls
				l.pulse()
				if got := calls > before; got != want {
					t.Fatalf(`pulse %d: expected fire=%v, got %v`, i+1, want, got)
				}
			}
			require.Equal(t, uint64(len(tc.Want)), l.Pulses())
			require.Equal(t, uint64(calls), l.Cleanups())
			require.Zero(t, l.Skipped())
		})
	}
}

func TestListener_SetCycles(t *testing.T) {
	disableSignal(t)
	var calls int
	l, err := NewListener(func() { calls++ })
	require.NoError(t, err)

	require.ErrorIs(t, l.SetCycles(-1), ErrInvalidArgument)
	require.Zero(t, l.Cycles())

	require.NoError(t, l.SetCycles(2))
	require.Equal(t, 2, l.Cycles())
	l.pulse()
	require.Zero(t, calls)
	l.pulse()
	require.Equal(t, 1, calls)

	require.NoError(t, l.SetCycles(0))
	l.pulse()
	require.Equal(t, 2, calls)
}

func TestListener_SetTicks(t *testing.T) {
	disableSignal(t)
	now := time.Unix(0, 0)
	stubTimeNow(t, func() time.Time { return now })
	var calls int
	l, err := NewListener(func() { calls++ })
	require.NoError(t, err)

	require.ErrorIs(t, l.SetTicks(-time.Second), ErrInvalidArgument)
	require.Zero(t, l.Ticks())

	require.NoError(t, l.SetTicks(time.Minute))
	now = now.Add(time.Second)
	l.pulse()
	require.Zero(t, calls)
	now = now.Add(time.Minute)
	l.pulse()
	require.Equal(t, 1, calls)
}

func TestListener_pulseSkippedWhenLocked(t *testing.T) {
	disableSignal(t)
	var calls int
	l, err := NewListener(func() { calls++ })
	require.NoError(t, err)

	l.mu.Lock()
	l.pulse()
	l.pulse()
	l.mu.Unlock()

	require.Zero(t, calls)
	require.Equal(t, uint64(2), l.Pulses())
	require.Equal(t, uint64(2), l.Skipped())
	require.Zero(t, l.Cleanups())

	// skipped pulses still count towards the cycles threshold
	require.NoError(t, l.SetCycles(3))
	l.pulse()
	require.Equal(t, 1, calls)
}

func TestListener_cleanupPanic(t *testing.T) {
	disableSignal(t)
	var buf bytes.Buffer
	var calls int
	l, err := NewListener(func() {
		calls++
		panic(errors.New(`some error`))
	}, WithLogger(newTestLogger(&buf, logiface.LevelError)))
	require.NoError(t, err)

	require.NotPanics(t, l.pulse)
	require.NotPanics(t, l.pulse)
	require.Equal(t, 2, calls)
	require.Equal(t, uint64(2), l.Cleanups())
	require.Equal(t, 2, countLines(buf.String(), `"msg":"weakref: cleanup panicked"`))
	require.Contains(t, buf.String(), `"lvl":"err"`)
	require.Contains(t, buf.String(), `"kind":"listener"`)
	require.Contains(t, buf.String(), `some error`)
}

func TestListener_traceLogging(t *testing.T) {
	disableSignal(t)
	var buf bytes.Buffer
	l, err := NewListener(func() {}, WithLogger(newTestLogger(&buf, logiface.LevelTrace)))
	require.NoError(t, err)
	for range 3 {
		l.pulse()
	}
	require.Equal(t, 3, countLines(buf.String(), `"msg":"weakref: cleanup"`))
	require.Equal(t, 3, countLines(buf.String(), `"lvl":"trace"`))
}

func TestListener_traceLoggingLevelDisabled(t *testing.T) {
	disableSignal(t)
	var buf bytes.Buffer
	l, err := NewListener(func() {}, WithLogger(newTestLogger(&buf, logiface.LevelInformational)))
	require.NoError(t, err)
	l.pulse()
	require.Empty(t, buf.String())
}

func TestListener_logRates(t *testing.T) {
	disableSignal(t)
	var buf bytes.Buffer
	l, err := NewListener(
		func() {},
		WithLogger(newTestLogger(&buf, logiface.LevelTrace)),
		WithLogRates(map[time.Duration]int{time.Hour: 2}),
	)
	require.NoError(t, err)
	for range 5 {
		l.pulse()
	}
	require.Equal(t, uint64(5), l.Cleanups())
	require.Equal(t, 2, countLines(buf.String(), `"msg":"weakref: cleanup"`))
}

func TestListener_runtimePulses(t *testing.T) {
	var calls atomic.Int64
	l, err := NewListener(func() { calls.Add(1) })
	require.NoError(t, err)
	gcUntil(t, func() bool { return calls.Load() >= 2 })
	require.GreaterOrEqual(t, l.Pulses(), uint64(2))
}
