// Package sketch extracts (w,k)-minimizers from nucleotide sequences.
//
// A minimizer is the k-mer with the smallest hash in each window of w
// consecutive k-mers. K-mers are canonical (the smaller of the forward and
// reverse-complement encodings is hashed) and k-mers equal to their own
// reverse complement are skipped because their strand is undefined.
//
// Each sampled k-mer is returned as a Minimizer: a packed hash with per-hit
// metadata in the low MetaBits bits, plus a packed position. The index
// consumes HashPart for bucketing and treats Pos as opaque.
package sketch

import (
	"iter"
	"math"

	intbits "github.com/tamirms/mgindex/internal/bits"
)

const (
	// MetaBits is the number of low HashPart bits carrying per-occurrence
	// metadata (the k-mer span). Bucketing at build time and lookups at query
	// time must both drop exactly these bits.
	MetaBits = 8

	// HashBits is the width of the hash stored above the metadata.
	HashBits = 64 - MetaBits

	// MaxK is the largest supported k-mer length; 2k bits must fit in HashBits.
	MaxK = HashBits / 2

	// MaxW is the largest supported window size.
	MaxW = 255

	// MaxSeqLen is the longest sequence Sketch accepts. Offsets occupy the 31
	// bits of Pos between the strand bit and the id.
	MaxSeqLen = 1<<31 - 1
)

// Minimizer is one sampled k-mer occurrence.
//
// HashPart is hash<<MetaBits | span. Pos is segID<<32 | end<<1 | strand, where
// end is the 0-based offset of the k-mer's last base and strand is 1 when the
// reverse complement was the canonical encoding.
type Minimizer struct {
	HashPart uint64
	Pos      uint64
}

// Hash returns the hash with the metadata bits dropped.
func (m Minimizer) Hash() uint64 { return m.HashPart >> MetaBits }

// Span returns the number of bases covered by the k-mer.
func (m Minimizer) Span() int { return int(m.HashPart & intbits.LowMask(MetaBits)) }

// SegID returns the segment (or query) id packed into Pos.
func (m Minimizer) SegID() uint32 { return uint32(m.Pos >> 32) }

// End returns the 0-based offset of the k-mer's last base.
func (m Minimizer) End() uint32 { return uint32(m.Pos) >> 1 }

// Reverse reports whether the canonical k-mer is the reverse complement.
func (m Minimizer) Reverse() bool { return m.Pos&1 != 0 }

// nt4 maps ASCII nucleotides to 2-bit codes; everything else is 4.
var nt4 = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = 4
	}
	for _, p := range []struct {
		c    string
		code uint8
	}{{"Aa", 0}, {"Cc", 1}, {"Gg", 2}, {"TtUu", 3}} {
		for i := 0; i < len(p.c); i++ {
			t[p.c[i]] = p.code
		}
	}
	return t
}()

var sentinel = Minimizer{HashPart: math.MaxUint64, Pos: math.MaxUint64}

// Sketcher extracts minimizers with a fixed hash function. A Sketcher is
// stateless and safe for concurrent use.
type Sketcher struct {
	hash HashFunc
}

// NewSketcher returns a Sketcher using h, or Invertible if h is nil.
func NewSketcher(h HashFunc) *Sketcher {
	if h == nil {
		h = Invertible
	}
	return &Sketcher{hash: h}
}

var defaultSketcher = NewSketcher(Invertible)

// Sketch extracts minimizers with the default Invertible hash.
func Sketch(seq []byte, w, k int, segID uint32) iter.Seq[Minimizer] {
	return defaultSketcher.Sketch(seq, w, k, segID)
}

// Sketch returns the (w,k)-minimizers of seq in order of discovery. The
// sequence is read lazily while iterating; it must not change until the
// iteration ends.
//
// k must be in [1, MaxK], w in [1, MaxW] and len(seq) at most MaxSeqLen;
// Sketch panics otherwise.
// Ambiguous bases (anything other than ACGTU) reset the window.
func (s *Sketcher) Sketch(seq []byte, w, k int, segID uint32) iter.Seq[Minimizer] {
	if k < 1 || k > MaxK || w < 1 || w > MaxW {
		panic("sketch: k or w out of range")
	}
	if len(seq) > MaxSeqLen {
		panic("sketch: sequence longer than MaxSeqLen")
	}
	return func(yield func(Minimizer) bool) {
		if len(seq) == 0 {
			return
		}
		shift1 := uint(2 * (k - 1))
		mask := intbits.LowMask(uint(2 * k))
		hashMask := intbits.LowMask(HashBits)

		var kmer [2]uint64
		buf := make([]Minimizer, w)
		for i := range buf {
			buf[i] = sentinel
		}
		cur := sentinel
		l, bufPos, minPos := 0, 0, 0

		for i := 0; i < len(seq); i++ {
			c := uint64(nt4[seq[i]])
			info := sentinel
			if c < 4 {
				span := min(l+1, k)
				kmer[0] = (kmer[0]<<2 | c) & mask
				kmer[1] = kmer[1]>>2 | (3^c)<<shift1
				if kmer[0] == kmer[1] {
					continue
				}
				z := 0
				if kmer[0] > kmer[1] {
					z = 1
				}
				l++
				if l >= k && span <= math.MaxUint8 {
					info = Minimizer{
						HashPart: (s.hash(kmer[z], mask)&hashMask)<<MetaBits | uint64(span),
						Pos:      uint64(segID)<<32 | uint64(uint32(i))<<1 | uint64(z),
					}
				}
			} else {
				l = 0
			}
			buf[bufPos] = info

			// First full window: emit copies of the minimum seen before it
			// was recorded.
			if l == w+k-1 && cur.HashPart != math.MaxUint64 {
				for j := bufPos + 1; j < w; j++ {
					if cur.HashPart == buf[j].HashPart && buf[j].Pos != cur.Pos && !yield(buf[j]) {
						return
					}
				}
				for j := 0; j < bufPos; j++ {
					if cur.HashPart == buf[j].HashPart && buf[j].Pos != cur.Pos && !yield(buf[j]) {
						return
					}
				}
			}

			if info.HashPart <= cur.HashPart {
				if l >= w+k && cur.HashPart != math.MaxUint64 && !yield(cur) {
					return
				}
				cur, minPos = info, bufPos
			} else if bufPos == minPos {
				// The minimum slid out of the window; rescan. Ties resolve to
				// the most recent k-mer.
				if l >= w+k-1 && cur.HashPart != math.MaxUint64 && !yield(cur) {
					return
				}
				cur.HashPart = math.MaxUint64
				for j := bufPos + 1; j < w; j++ {
					if cur.HashPart >= buf[j].HashPart {
						cur, minPos = buf[j], j
					}
				}
				for j := 0; j <= bufPos; j++ {
					if cur.HashPart >= buf[j].HashPart {
						cur, minPos = buf[j], j
					}
				}
				if l >= w+k-1 && cur.HashPart != math.MaxUint64 {
					for j := bufPos + 1; j < w; j++ {
						if cur.HashPart == buf[j].HashPart && cur.Pos != buf[j].Pos && !yield(buf[j]) {
							return
						}
					}
					for j := 0; j <= bufPos; j++ {
						if cur.HashPart == buf[j].HashPart && cur.Pos != buf[j].Pos && !yield(buf[j]) {
							return
						}
					}
				}
			}
			if bufPos++; bufPos == w {
				bufPos = 0
			}
		}
		if cur.HashPart != math.MaxUint64 {
			yield(cur)
		}
	}
}
