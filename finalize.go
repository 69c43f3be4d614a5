package mgindex

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	mgerrors "github.com/tamirms/mgindex/errors"
	"github.com/tamirms/mgindex/internal/table"
)

// stagedPair is one minimizer occurrence waiting in a bucket's staging
// collection. The packed HashPart is split into its hash and span fields at
// the sketch boundary.
type stagedPair struct {
	hash uint64 // HashPart >> sketch.MetaBits
	pos  uint64
	span uint8
}

// comparePairs orders by the full packed key (hash, span) and then by
// position.
func comparePairs(a, b stagedPair) int {
	if c := cmp.Compare(a.hash, b.hash); c != 0 {
		return c
	}
	if c := cmp.Compare(a.span, b.span); c != 0 {
		return c
	}
	return cmp.Compare(a.pos, b.pos)
}

// bucket is one shard of the index. It is either staging (only staging is
// set) or frozen (staging is nil; table is nil when nothing was staged).
type bucket struct {
	staging  []stagedPair
	table    *table.Table
	overflow []uint64
}

// finalize freezes the bucket and releases its staging collection.
// An empty bucket stays table-less.
func (b *bucket) finalize(suffixLen uint) {
	b.table, b.overflow = freeze(b.staging, suffixLen)
	b.staging = nil
}

// freeze builds the frozen table for one bucket's staged pairs. All pairs
// must share the low suffixLen bits of their hash; those bits are stripped to
// form the table key. pairs is reordered in place.
//
// Keys that occur once are stored inline. Keys that occur more than once get
// a contiguous run in the returned overflow array, ascending by position.
// Both structures are sized exactly by a counting pass before being filled.
//
// freeze panics if two groups map to the same key or the two passes disagree;
// either means the index would be silently wrong.
func freeze(pairs []stagedPair, suffixLen uint) (*table.Table, []uint64) {
	if len(pairs) == 0 {
		return nil, nil
	}

	// pdqsort is not stable; runs sharing a hash may come out in any
	// position order when their spans differ. Multi-occurrence runs are
	// re-sorted by position in fill.
	slices.SortFunc(pairs, comparePairs)

	numKeys, numMulti := countKeys(pairs)
	return fill(pairs, suffixLen, numKeys, numMulti)
}

// countKeys returns the number of distinct hashes in sorted pairs and the
// total number of pairs whose hash occurs more than once.
func countKeys(pairs []stagedPair) (numKeys, numMulti int) {
	for i, n := 1, 1; i <= len(pairs); i++ {
		if i == len(pairs) || pairs[i].hash != pairs[i-1].hash {
			numKeys++
			if n > 1 {
				numMulti += n
			}
			n = 1
		} else {
			n++
		}
	}
	return numKeys, numMulti
}

// fill sizes the table and overflow array from the counts and fills them
// from sorted pairs, panicking if the pairs disagree with the counts.
func fill(pairs []stagedPair, suffixLen uint, numKeys, numMulti int) (*table.Table, []uint64) {
	t := table.New(numKeys)
	overflow := make([]uint64, numMulti)

	start, off := 0, 0
	for i := 1; i <= len(pairs); i++ {
		if i < len(pairs) && pairs[i].hash == pairs[i-1].hash {
			continue
		}
		group := pairs[start:i]
		start = i
		key := group[0].hash >> suffixLen

		var e table.Entry
		if len(group) == 1 {
			e = table.Single(group[0].pos)
		} else {
			if off+len(group) > len(overflow) || uint64(len(group)) > math.MaxUint32 {
				panic(fmt.Errorf("finalize bucket: overflow run of %d at offset %d exceeds %d slots: %w",
					len(group), off, len(overflow), mgerrors.ErrKeyCountMismatch))
			}
			run := overflow[off : off+len(group)]
			for j := range group {
				run[j] = group[j].pos
			}
			slices.Sort(run)
			e = table.Multiple(uint64(off), uint32(len(group)))
			off += len(group)
		}
		if !t.Insert(key, e) {
			panic(fmt.Errorf("finalize bucket: key %#x: %w", key, mgerrors.ErrDuplicateKey))
		}
	}

	if off != len(overflow) || t.Len() != numKeys {
		panic(fmt.Errorf("finalize bucket: filled %d/%d overflow slots and %d/%d keys: %w",
			off, len(overflow), t.Len(), numKeys, mgerrors.ErrKeyCountMismatch))
	}
	return t, overflow
}
