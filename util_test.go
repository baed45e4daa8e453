package weakref

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

// payload is large enough, and pointer-free, to avoid the tiny allocator
type payload struct {
	id int
	_  [7]int64
}

// disableSignal stops containers created by the test from receiving GC
// pulses, so they may be driven deterministically, via pulse.
func disableSignal(t *testing.T) {
	t.Helper()
	old := notifyCycles
	t.Cleanup(func() { notifyCycles = old })
	notifyCycles = func(*Listener) {}
}

func stubTimeNow(t *testing.T, fn func() time.Time) {
	t.Helper()
	old := timeNow
	t.Cleanup(func() { timeNow = old })
	timeNow = fn
}

func newTestLogger(buf *bytes.Buffer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	).Logger()
}

// gcUntil runs the GC until cond is true, failing the test on timeout.
func gcUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		runtime.GC()
		return cond()
	}, 5*time.Second, 5*time.Millisecond)
}

func countLines(s, substr string) (n int) {
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

//go:noinline
func appendGarbage(t *testing.T, l *List[payload], ids ...int) {
	for _, id := range ids {
		require.NoError(t, l.Append(&payload{id: id}))
	}
}
