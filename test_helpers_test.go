package mgindex

import (
	"encoding/binary"
	"hash/fnv"
	"iter"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/tamirms/mgindex/sketch"
)

// Named seeds for deterministic reproduction.
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

// testArc is an arc with explicit overlap fields.
type testArc struct {
	ov, ow int64
}

// testGraph is an in-memory Graph.
type testGraph struct {
	seqs [][]byte
	arcs []testArc
}

func (g *testGraph) NumSegments() int                { return len(g.seqs) }
func (g *testGraph) SegmentSeq(i int) []byte         { return g.seqs[i] }
func (g *testGraph) NumArcs() int                    { return len(g.arcs) }
func (g *testGraph) ArcOverlap(i int) (int64, int64) { return g.arcs[i].ov, g.arcs[i].ow }

// fixedSketcher emits predetermined minimizers per segment, ignoring the
// sequence. calls counts invocations.
type fixedSketcher struct {
	bySeg map[uint32][]sketch.Minimizer
	calls atomic.Int64
}

func (f *fixedSketcher) sketch(_ []byte, _, _ int, segID uint32) iter.Seq[sketch.Minimizer] {
	f.calls.Add(1)
	return slices.Values(f.bySeg[segID])
}

// pair builds a Minimizer from a bare hash (metadata bits zero).
func pair(hash, pos uint64) sketch.Minimizer {
	return sketch.Minimizer{HashPart: hash << sketch.MetaBits, Pos: pos}
}

// stagedInput is a randomly generated staging workload together with the
// expected lookup result for every hash.
type stagedInput struct {
	graph    *testGraph
	sketcher *fixedSketcher
	want     map[uint64][]uint64 // hash -> ascending positions
}

// randomStagedInput spreads n pairs over numSegs segments. Hashes are drawn
// from a space of hashSpace values so many repeat; positions are unique. Span
// metadata varies per pair to exercise grouping across differing metadata.
func randomStagedInput(rng *rand.Rand, numSegs, n int, hashSpace uint64) *stagedInput {
	in := &stagedInput{
		graph:    &testGraph{seqs: make([][]byte, numSegs)},
		sketcher: &fixedSketcher{bySeg: make(map[uint32][]sketch.Minimizer)},
		want:     make(map[uint64][]uint64),
	}
	for i := range in.graph.seqs {
		in.graph.seqs[i] = []byte("ACGT")
	}
	for i := range n {
		seg := uint32(rng.IntN(numSegs))
		h := rng.Uint64N(hashSpace) * 0x9E3779B97F4A7C15 >> sketch.MetaBits
		pos := uint64(seg)<<32 | uint64(i)<<1 | uint64(rng.IntN(2))
		m := sketch.Minimizer{HashPart: h<<sketch.MetaBits | uint64(rng.IntN(32)+1), Pos: pos}
		in.sketcher.bySeg[seg] = append(in.sketcher.bySeg[seg], m)
		in.want[h] = append(in.want[h], pos)
	}
	for h := range in.want {
		slices.Sort(in.want[h])
	}
	return in
}
