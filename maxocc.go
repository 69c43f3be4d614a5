package mgindex

import (
	"iter"
	"math"

	"github.com/tamirms/mgindex/internal/selectk"
)

// Occurrences yields the occurrence count of every distinct indexed
// minimizer, bucket by bucket.
func (idx *Index) Occurrences() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if idx.closed.Load() {
			return
		}
		for i := range idx.buckets {
			t := idx.buckets[i].table
			if t == nil {
				continue
			}
			for _, e := range t.All() {
				if !yield(e.Count) {
					return
				}
			}
		}
	}
}

// MaxOcc returns an exclusive ceiling on minimizer occurrence counts such
// that roughly the fraction f of distinct minimizers occur fewer times.
// Downstream seeding skips minimizers whose count reaches the ceiling.
//
// With n distinct minimizers, the result is one more than the count at rank
// floor((1-f)*n) in ascending order, found by quickselect. f <= 0 (or NaN),
// an empty index and a closed index all yield math.MaxInt32, meaning no
// filtering.
func (idx *Index) MaxOcc(f float64) int32 {
	if !(f > 0) || idx.closed.Load() {
		return math.MaxInt32
	}
	n := 0
	for i := range idx.buckets {
		if t := idx.buckets[i].table; t != nil {
			n += t.Len()
		}
	}
	if n == 0 {
		return math.MaxInt32
	}

	counts := make([]uint32, 0, n)
	for c := range idx.Occurrences() {
		counts = append(counts, c)
	}
	// (1-f)*n is nudged up before flooring: a decimal f such as 0.9 is stored
	// slightly high, which would otherwise land one rank below the intended one.
	x := (1 - min(f, 1)) * float64(n)
	rank := min(max(int(math.Floor(x*(1+1e-10)+1e-9)), 0), n-1)
	v := selectk.Kth(counts, rank)
	if v >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v) + 1
}
