package mgindex

import "unsafe"

// Lookup returns the positions of every indexed occurrence of a minimizer
// hash, ascending. hash must already have the sketch.MetaBits metadata bits
// dropped (see sketch.Minimizer.Hash).
//
// The returned slice is a view into index storage: callers must not modify
// it. It is nil when the hash is not indexed or the index is closed.
// Lookup is safe for concurrent use.
func (idx *Index) Lookup(hash uint64) []uint64 {
	if idx.closed.Load() {
		return nil
	}
	b := &idx.buckets[hash&idx.mask]
	if b.table == nil {
		return nil
	}
	e := b.table.Get(hash >> uint(idx.b))
	if e == nil {
		return nil
	}
	if e.IsSingle() {
		// The single position lives in the table slot itself.
		return unsafe.Slice(&e.Value, 1)
	}
	end := e.Value + uint64(e.Count)
	return b.overflow[e.Value:end:end]
}

// LookupMinimizer is Lookup(m.Hash()).
func (idx *Index) LookupMinimizer(m MinimizerPosition) []uint64 {
	return idx.Lookup(m.Hash())
}

// Count returns the number of indexed occurrences of a minimizer hash
// without building a slice.
func (idx *Index) Count(hash uint64) int {
	if idx.closed.Load() {
		return 0
	}
	b := &idx.buckets[hash&idx.mask]
	if b.table == nil {
		return 0
	}
	if e := b.table.Get(hash >> uint(idx.b)); e != nil {
		return int(e.Count)
	}
	return 0
}
