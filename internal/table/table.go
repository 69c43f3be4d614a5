// Package table implements the frozen per-bucket hash table of the index.
//
// A Table is sized once for a known number of keys and never grows. Keys are
// minimizer hashes with the bucket-selecting bits stripped, so they are already
// close to uniform; slots are chosen with Fibonacci hashing and collisions are
// resolved by linear probing.
//
// Each key maps to a tagged Entry: either a single inlined position, or an
// (offset, count) reference into the bucket's overflow array.
package table

import (
	"iter"

	intbits "github.com/tamirms/mgindex/internal/bits"
)

// maxLoadNum/maxLoadDen bound the table load factor to 3/4.
const (
	maxLoadNum = 3
	maxLoadDen = 4
)

// Entry is the value stored per key.
//
// Count doubles as the variant tag: Count == 1 means Value is the inlined
// position (Single); Count > 1 means Value is an offset into the overflow
// array holding Count positions (Multiple). Count == 0 marks an empty slot.
type Entry struct {
	Value uint64
	Count uint32
}

// Single returns an entry holding one inlined position.
func Single(pos uint64) Entry {
	return Entry{Value: pos, Count: 1}
}

// Multiple returns an entry referencing count positions at offset in the
// overflow array. count must be at least 2.
func Multiple(offset uint64, count uint32) Entry {
	return Entry{Value: offset, Count: count}
}

// IsSingle reports whether the position is inlined in the entry.
func (e Entry) IsSingle() bool { return e.Count == 1 }

type slot struct {
	key   uint64
	entry Entry
}

// Table is an insert-once, fixed-capacity hash table from uint64 keys to
// Entry values. It is not safe for concurrent mutation; once filled it may be
// read concurrently without locking.
type Table struct {
	slots   []slot
	logSize uint
	mask    uint64
	n       int
}

// New returns a table able to hold n keys without exceeding the maximum load
// factor. Memory is allocated once here.
func New(n int) *Table {
	want := uint64(n)*maxLoadDen/maxLoadNum + 1
	logSize := intbits.CeilLog2(want)
	size := uint64(1) << logSize
	return &Table{
		slots:   make([]slot, size),
		logSize: logSize,
		mask:    size - 1,
	}
}

// Insert stores e under key. It returns false, leaving the table unchanged,
// if key is already present or the insert would leave no empty slot (probes
// terminate on the first empty slot, so one must always remain).
func (t *Table) Insert(key uint64, e Entry) bool {
	if e.Count == 0 {
		panic("table: Insert: entry count must be positive")
	}
	if uint64(t.n) >= t.mask {
		return false
	}
	i := intbits.FibonacciSlot(key, t.logSize)
	for {
		s := &t.slots[i]
		if s.entry.Count == 0 {
			s.key = key
			s.entry = e
			t.n++
			return true
		}
		if s.key == key {
			return false
		}
		i = (i + 1) & t.mask
	}
}

// Get returns a pointer to the entry stored under key, or nil. The pointer
// refers to table storage and must not be written through.
func (t *Table) Get(key uint64) *Entry {
	i := intbits.FibonacciSlot(key, t.logSize)
	for {
		s := &t.slots[i]
		if s.entry.Count == 0 {
			return nil
		}
		if s.key == key {
			return &s.entry
		}
		i = (i + 1) & t.mask
	}
}

// Len returns the number of keys stored.
func (t *Table) Len() int { return t.n }

// Capacity returns the number of slots.
func (t *Table) Capacity() int { return len(t.slots) }

// All iterates over the stored keys and entries in slot order. For a given
// sequence of inserts the order is deterministic.
func (t *Table) All() iter.Seq2[uint64, Entry] {
	return func(yield func(uint64, Entry) bool) {
		for i := range t.slots {
			s := &t.slots[i]
			if s.entry.Count == 0 {
				continue
			}
			if !yield(s.key, s.entry) {
				return
			}
		}
	}
}
