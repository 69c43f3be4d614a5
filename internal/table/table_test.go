package table

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

func TestNewSizing(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 7, 100, 1000, 4096} {
		tb := New(n)
		require.Greater(t, tb.Capacity(), n, "n=%d", n)
		// Load factor stays at or below 3/4 once n keys are in.
		require.LessOrEqual(t, n*maxLoadDen, tb.Capacity()*maxLoadNum, "n=%d cap=%d", n, tb.Capacity())
		require.Zero(t, tb.Len())
	}
}

func TestInsertGet(t *testing.T) {
	rng := newTestRNG(t)
	const n = 5000

	keys := make(map[uint64]Entry, n)
	for len(keys) < n {
		k := rng.Uint64() >> rng.IntN(40)
		if _, ok := keys[k]; ok {
			continue
		}
		if rng.IntN(2) == 0 {
			keys[k] = Single(rng.Uint64())
		} else {
			keys[k] = Multiple(rng.Uint64N(1<<32), uint32(rng.IntN(100)+2))
		}
	}

	tb := New(n)
	for k, e := range keys {
		require.True(t, tb.Insert(k, e), "insert 0x%X", k)
	}
	require.Equal(t, n, tb.Len())

	for k, want := range keys {
		got := tb.Get(k)
		require.NotNil(t, got, "key 0x%X missing", k)
		require.Equal(t, want, *got)
	}

	misses := 0
	for i := 0; i < 10000; i++ {
		k := rng.Uint64()
		if _, ok := keys[k]; ok {
			continue
		}
		require.Nil(t, tb.Get(k))
		misses++
	}
	assert.Positive(t, misses)
}

func TestInsertDuplicateRejected(t *testing.T) {
	tb := New(4)
	require.True(t, tb.Insert(42, Single(7)))
	require.False(t, tb.Insert(42, Single(8)))
	require.Equal(t, 1, tb.Len())
	require.Equal(t, Single(7), *tb.Get(42))
}

func TestZeroKey(t *testing.T) {
	tb := New(2)
	require.Nil(t, tb.Get(0))
	require.True(t, tb.Insert(0, Multiple(3, 2)))
	got := tb.Get(0)
	require.NotNil(t, got)
	assert.False(t, got.IsSingle())
	assert.Equal(t, uint64(3), got.Value)
	assert.Equal(t, uint32(2), got.Count)
}

func TestEmptyTable(t *testing.T) {
	tb := New(0)
	require.Nil(t, tb.Get(123))
	require.False(t, tb.Insert(1, Single(1)), "a zero-capacity table keeps its only slot empty")
	for range tb.All() {
		t.Fatal("empty table yielded an entry")
	}
}

func TestAllDeterministic(t *testing.T) {
	rng := newTestRNG(t)
	keys := make([]uint64, 300)
	for i := range keys {
		keys[i] = rng.Uint64()
	}

	build := func() *Table {
		tb := New(len(keys))
		for i, k := range keys {
			tb.Insert(k, Single(uint64(i)))
		}
		return tb
	}

	collect := func(tb *Table) []uint64 {
		var out []uint64
		for k, e := range tb.All() {
			out = append(out, k, e.Value)
		}
		return out
	}

	a, b := collect(build()), collect(build())
	require.Len(t, a, 2*len(keys))
	require.Equal(t, a, b)
}

func TestAllEarlyStop(t *testing.T) {
	tb := New(10)
	for k := uint64(1); k <= 10; k++ {
		tb.Insert(k, Single(k))
	}
	seen := 0
	for range tb.All() {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestInsertZeroCountPanics(t *testing.T) {
	tb := New(1)
	assert.Panics(t, func() { tb.Insert(1, Entry{}) })
}
