package mgindex

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	intbits "github.com/tamirms/mgindex/internal/bits"
	"github.com/tamirms/mgindex/sketch"
)

// MinimizerPosition is the (hash|metadata, position) pair the index is built
// from.
type MinimizerPosition = sketch.Minimizer

// maxBucketBits bounds the bucket array at 2^28 slots. The natural cap of 2k
// bits would otherwise allow arrays far beyond addressable memory.
const maxBucketBits = 28

// Index is a frozen minimizer index over the segments of a Graph.
//
// Thread Safety:
// - Lookup, Count, MaxOcc, Stats and the other read methods are safe for concurrent use
// - Close is NOT safe to call concurrently with queries
// - Close must only be called after all queries have completed
type Index struct {
	k, w, b int
	mask    uint64 // Low b bits select the bucket

	// Borrowed; must outlive the index.
	graph Graph

	// Fixed-length, one slot per bucket; never resized.
	buckets []bucket

	closed atomic.Bool // Atomic for lock-free close check
}

// Stats holds index statistics.
type Stats struct {
	NumBuckets      int
	NonEmptyBuckets int
	NumKeys         uint64 // Distinct minimizers
	NumSingletons   uint64 // Distinct minimizers occurring once
	NumOccurrences  uint64 // Total indexed minimizer occurrences
	OverflowLen     uint64 // Positions stored out of line
	TableSlots      uint64 // Allocated hash table slots
}

func newIndex(g Graph, k, w, b int) *Index {
	return &Index{
		k:       k,
		w:       w,
		b:       b,
		mask:    intbits.LowMask(uint(b)),
		graph:   g,
		buckets: make([]bucket, 1<<b),
	}
}

// K returns the k-mer length.
func (idx *Index) K() int { return idx.k }

// W returns the minimizer window size.
func (idx *Index) W() int { return idx.w }

// B returns the number of bucket-selecting hash bits.
func (idx *Index) B() int { return idx.b }

// Graph returns the graph the index was built from.
func (idx *Index) Graph() Graph { return idx.graph }

// Close releases every bucket's table and overflow array. Lookups after Close
// find nothing. Close is idempotent.
func (idx *Index) Close() error {
	if idx.closed.Swap(true) {
		return nil // Already closed
	}
	clear(idx.buckets)
	idx.buckets = nil
	return nil
}

// Stats returns index statistics.
func (idx *Index) Stats() Stats {
	s := Stats{NumBuckets: len(idx.buckets)}
	if idx.closed.Load() {
		return s
	}
	for i := range idx.buckets {
		b := &idx.buckets[i]
		if b.table == nil {
			continue
		}
		s.NonEmptyBuckets++
		s.NumKeys += uint64(b.table.Len())
		s.TableSlots += uint64(b.table.Capacity())
		s.OverflowLen += uint64(len(b.overflow))
		for _, e := range b.table.All() {
			if e.IsSingle() {
				s.NumSingletons++
			}
		}
	}
	s.NumOccurrences = s.NumSingletons + s.OverflowLen
	return s
}

// Checksum returns an xxHash64 digest of the frozen buckets, folded in bucket
// order. Two indexes built from the same graph and parameters have the same
// checksum regardless of the number of build workers.
func (idx *Index) Checksum() uint64 {
	d := xxhash.New()
	if idx.closed.Load() {
		return d.Sum64()
	}
	var buf []byte
	for i := range idx.buckets {
		b := &idx.buckets[i]
		buf = binary.LittleEndian.AppendUint32(buf[:0], uint32(i))
		if b.table != nil {
			for key, e := range b.table.All() {
				buf = binary.LittleEndian.AppendUint64(buf, key)
				buf = binary.LittleEndian.AppendUint64(buf, e.Value)
				buf = binary.LittleEndian.AppendUint32(buf, e.Count)
			}
			for _, p := range b.overflow {
				buf = binary.LittleEndian.AppendUint64(buf, p)
			}
		}
		_, _ = d.Write(buf) // xxhash.Digest.Write never fails
	}
	return d.Sum64()
}
