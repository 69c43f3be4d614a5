package mgindex

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/mgindex/sketch"
)

// buildWithCounts builds an index whose i-th distinct minimizer occurs
// counts[i] times.
func buildWithCounts(t *testing.T, counts []int, bucketBits int) *Index {
	t.Helper()
	sk := &fixedSketcher{bySeg: map[uint32][]sketch.Minimizer{}}
	pos := uint64(0)
	for i, c := range counts {
		h := uint64(i+1) * 0x9E3779B97F4A7C15 >> sketch.MetaBits
		for range c {
			sk.bySeg[0] = append(sk.bySeg[0], pair(h, pos))
			pos++
		}
	}
	g := &testGraph{seqs: [][]byte{[]byte("ACGT")}}
	idx, err := Build(context.Background(), g, 15, 10, bucketBits, WithSketcher(sk.sketch))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

// TestMaxOccScenario has nine singletons and one minimizer occurring 100
// times; keeping 90% puts the ceiling just above the singletons.
func TestMaxOccScenario(t *testing.T) {
	idx := buildWithCounts(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 100}, 3)
	assert.Equal(t, int32(2), idx.MaxOcc(0.9))
	assert.Equal(t, int32(math.MaxInt32), idx.MaxOcc(0))
	assert.Equal(t, int32(math.MaxInt32), idx.MaxOcc(-1))
	assert.Equal(t, int32(math.MaxInt32), idx.MaxOcc(math.NaN()))
	assert.Equal(t, int32(2), idx.MaxOcc(1), "f=1 selects the smallest count")
	assert.Equal(t, int32(2), idx.MaxOcc(5))
	assert.Equal(t, int32(101), idx.MaxOcc(0.05), "small f reaches the top rank")
}

func TestMaxOccMatchesSortedRank(t *testing.T) {
	rng := newTestRNG(t)
	counts := make([]int, 500)
	for i := range counts {
		// Geometric-ish tail, like real minimizer frequencies.
		c := 1
		for rng.IntN(3) == 0 {
			c *= 2
		}
		counts[i] = c
	}
	idx := buildWithCounts(t, counts, 4)

	sorted := slices.Clone(counts)
	slices.Sort(sorted)
	// f is given in per-mille so the expected rank is exact integer math.
	n := len(sorted)
	for _, permille := range []int{1, 10, 100, 200, 250, 300, 500, 700, 750, 800, 900, 990} {
		f := float64(permille) / 1000
		rank := n * (1000 - permille) / 1000
		assert.Equal(t, int32(sorted[rank]+1), idx.MaxOcc(f), "f=%v", f)
	}
}

// TestMaxOccDecimalFraction uses distinct counts so that neighbouring ranks
// give different ceilings. (1-0.9)*10 evaluates to 0.999... in floating point
// but the rank must still be 1.
func TestMaxOccDecimalFraction(t *testing.T) {
	idx := buildWithCounts(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 2)
	cases := []struct {
		f    float64
		want int32 // sorted[floor((1-f)*10)] + 1
	}{
		{0.9, 3},
		{0.8, 4},
		{0.7, 5},
		{0.5, 7},
		{0.3, 9},
		{0.1, 11},
		{0.05, 11},
		{1, 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, idx.MaxOcc(tc.f), "f=%v", tc.f)
	}
}

func TestMaxOccMonotone(t *testing.T) {
	rng := newTestRNG(t)
	counts := make([]int, 300)
	for i := range counts {
		counts[i] = rng.IntN(50) + 1
	}
	idx := buildWithCounts(t, counts, 2)

	fs := []float64{1, 0.9, 0.5, 0.2, 0.1, 0.01, 0.001, 1e-6, 0}
	prev := idx.MaxOcc(fs[0])
	for _, f := range fs[1:] {
		cur := idx.MaxOcc(f)
		require.GreaterOrEqual(t, cur, prev, "MaxOcc must grow as f shrinks (f=%v)", f)
		prev = cur
	}
	require.Equal(t, int32(math.MaxInt32), prev)
}

func TestMaxOccEmptyIndex(t *testing.T) {
	idx := buildWithCounts(t, nil, 4)
	assert.Equal(t, int32(math.MaxInt32), idx.MaxOcc(0.5))
}

func TestOccurrences(t *testing.T) {
	counts := []int{1, 3, 1, 7, 2}
	idx := buildWithCounts(t, counts, 1)

	var got []int
	for c := range idx.Occurrences() {
		got = append(got, int(c))
	}
	slices.Sort(got)
	want := slices.Clone(counts)
	slices.Sort(want)
	assert.Equal(t, want, got)
}
