package mgindex

// Graph is the read-only view of a sequence graph consumed by Build.
//
// Segments and arcs are addressed by their 0-based order; a segment's index is
// the segment id packed into every position the index stores. Implementations
// must be safe for concurrent reads, must not change while an Index built from
// them is in use, and must outlive that Index.
type Graph interface {
	// NumSegments returns the number of segments.
	NumSegments() int

	// SegmentSeq returns the nucleotide sequence of segment i.
	SegmentSeq(i int) []byte

	// NumArcs returns the number of arcs.
	NumArcs() int

	// ArcOverlap returns the overlap length and overlap weight of arc i.
	// The index requires both to be zero for every arc.
	ArcOverlap(i int) (ov, ow int64)
}

// findLongSegment returns the first segment longer than limit.
func findLongSegment(g Graph, limit int) (seg, length int, found bool) {
	for i := range g.NumSegments() {
		if n := len(g.SegmentSeq(i)); n > limit {
			return i, n, true
		}
	}
	return -1, 0, false
}

// findOverlap returns the first arc with a nonzero overlap field.
func findOverlap(g Graph) (arc int, ov, ow int64, found bool) {
	for i := range g.NumArcs() {
		if ov, ow := g.ArcOverlap(i); ov != 0 || ow != 0 {
			return i, ov, ow, true
		}
	}
	return -1, 0, 0, false
}
