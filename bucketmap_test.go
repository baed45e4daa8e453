package weakref

import (
	"fmt"
	"runtime"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:noinline
func addGarbageBucketValues(t *testing.T, m *BucketMap[string, payload], key string, n int) {
	for i := range n {
		ok, err := m.Add(key, &payload{id: i})
		require.NoError(t, err)
		require.True(t, ok)
	}
}

//go:noinline
func addGarbageBucketKey(t *testing.T, m *WeakBucketMap[payload, payload], value *payload) {
	ok, err := m.Add(&payload{id: -1}, value)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBucketMap_partitioning(t *testing.T) {
	disableSignal(t)
	m, err := NewBucketMap[string, payload]()
	require.NoError(t, err)

	const numKeys, numValues = 7, 100
	values := make([]*payload, numValues)
	for i := range values {
		values[i] = &payload{id: i}
	}
	// reverse order, buckets are independent of insertion order
	for i := numValues - 1; i >= 0; i-- {
		ok, err := m.Add(fmt.Sprint(i%numKeys), values[i])
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.Equal(t, numKeys, m.Len())
	require.Equal(t, numKeys, m.LiveLen())
	require.Equal(t, numValues, m.ValueLen())

	seen := make(map[int]string)
	for k, v := range m.All() {
		_, dup := seen[v.id]
		require.False(t, dup)
		seen[v.id] = k
		require.Equal(t, fmt.Sprint(v.id%numKeys), k)
	}
	require.Len(t, seen, numValues)

	keys := slices.Sorted(m.Keys())
	if diff := cmp.Diff([]string{`0`, `1`, `2`, `3`, `4`, `5`, `6`}, keys); diff != `` {
		t.Fatalf("unexpected keys (-want +got):\n%s", diff)
	}
	runtime.KeepAlive(values)
}

func TestBucketMap_addDedup(t *testing.T) {
	disableSignal(t)
	m, err := NewBucketMap[string, payload](WithComparer(byID()), WithCycles(2))
	require.NoError(t, err)

	a := &payload{id: 1}
	ok, err := m.Add(`k`, a)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = m.Add(`k`, a)
	require.NoError(t, err)
	require.False(t, ok)
	// equal by id
	ok, err = m.Add(`k`, &payload{id: 1})
	require.NoError(t, err)
	require.False(t, ok)
	_, err = m.Add(`k`, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	bucket, ok := m.FindBucket(`k`)
	require.True(t, ok)
	require.Equal(t, []*payload{a}, bucket.Slice())
	// options are inherited by buckets
	require.Equal(t, 2, bucket.Cycles())
	require.True(t, bucket.Contains(&payload{id: 1}))

	_, ok = m.FindBucket(`missing`)
	require.False(t, ok)
	require.False(t, m.ContainsKey(`missing`))
	runtime.KeepAlive(a)
}

func TestBucketMap_emptyBucketIsRemoved(t *testing.T) {
	disableSignal(t)
	m, err := NewBucketMap[string, payload]()
	require.NoError(t, err)

	a := &payload{id: 1}
	_, err = m.Add(`k`, a)
	require.NoError(t, err)
	require.True(t, m.Remove(`k`, a))
	require.False(t, m.Remove(`k`, a))
	require.False(t, m.Remove(`other`, a))

	_, ok := m.FindBucket(`k`)
	require.False(t, ok)
	require.Equal(t, 1, m.Len())
	require.Zero(t, m.LiveLen())

	m.pulse()
	require.Zero(t, m.Len())
	runtime.KeepAlive(a)
}

func TestBucketMap_deadValues(t *testing.T) {
	disableSignal(t)
	m, err := NewBucketMap[string, payload]()
	require.NoError(t, err)

	addGarbageBucketValues(t, m, `k`, 3)
	bucket, ok := m.store.lookup(`k`)
	require.True(t, ok)

	gcUntil(t, func() bool { return bucket.LiveLen() == 0 })
	_, ok = m.FindBucket(`k`)
	require.False(t, ok)

	// the bucket is not empty until its own cleanup
	m.pulse()
	require.Equal(t, 1, m.Len())
	require.Equal(t, 3, bucket.Len())

	bucket.pulse()
	require.Zero(t, bucket.Len())
	m.pulse()
	require.Zero(t, m.Len())
}

func TestBucketMap_removeKeyAndClear(t *testing.T) {
	disableSignal(t)
	m, err := NewBucketMap[int, payload]()
	require.NoError(t, err)
	a := &payload{}
	for i := range 3 {
		_, err := m.Add(i, a)
		require.NoError(t, err)
	}
	require.True(t, m.RemoveKey(1))
	require.False(t, m.RemoveKey(1))
	require.Equal(t, 2, m.Len())
	m.Clear()
	require.Zero(t, m.Len())
	runtime.KeepAlive(a)
}

func TestBucketMap_runtimePulses(t *testing.T) {
	m, err := NewBucketMap[string, payload]()
	require.NoError(t, err)
	addGarbageBucketValues(t, m, `k`, 5)
	gcUntil(t, func() bool { return m.Len() == 0 })
}

func TestWeakBucketMap_emptyBucketIsRetained(t *testing.T) {
	disableSignal(t)
	m, err := NewWeakBucketMap[payload, payload]()
	require.NoError(t, err)

	k, a, b := &payload{id: 1}, &payload{id: 2}, &payload{id: 3}
	ok, err := m.Add(k, a)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = m.Add(nil, a)
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.True(t, m.Remove(k, a))
	_, ok = m.FindBucket(k)
	require.False(t, ok)

	m.pulse()
	require.Equal(t, 1, m.Len())

	ok, err = m.Add(k, b)
	require.NoError(t, err)
	require.True(t, ok)
	bucket, ok := m.FindBucket(k)
	require.True(t, ok)
	require.Equal(t, []*payload{b}, bucket.Slice())
	require.Equal(t, 1, m.ValueLen())
	runtime.KeepAlive(k)
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestWeakBucketMap_deadKey(t *testing.T) {
	disableSignal(t)
	m, err := NewWeakBucketMap[payload, payload]()
	require.NoError(t, err)

	k, v := &payload{id: 1}, &payload{id: 2}
	_, err = m.Add(k, v)
	require.NoError(t, err)
	addGarbageBucketKey(t, m, v)
	require.Equal(t, 2, m.Len())
	require.Equal(t, 2, m.ValueLen())

	gcUntil(t, func() bool { return m.LiveLen() == 1 })
	require.Equal(t, 2, m.Len())

	m.pulse()
	require.Equal(t, 1, m.Len())
	require.True(t, m.ContainsKey(k))
	require.Equal(t, []*payload{k}, slices.Collect(m.Keys()))
	runtime.KeepAlive(k)
	runtime.KeepAlive(v)
}
