// Package gfa loads sequence graphs in GFA1 format.
//
// Only the records the minimizer index needs are interpreted: S (segment)
// lines and L (link) lines. Segments keep file order, which defines their
// ids. Every other record type is skipped.
package gfa

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	mgerrors "github.com/tamirms/mgindex/errors"
)

// Segment is one S record.
type Segment struct {
	Name string
	Seq  []byte // Empty when the record carried "*"
	Len  int    // len(Seq), or the LN:i tag when Seq is absent
}

// Arc is one L record, oriented from From to To.
type Arc struct {
	From, To       int // Segment ids
	FromRev, ToRev bool
	Ov             int64 // Overlap length on From
	Ow             int64 // Overlap length on To
}

// Graph is a parsed GFA graph. It implements mgindex.Graph and is safe for
// concurrent reads.
type Graph struct {
	Segs  []Segment
	Arcs  []Arc
	names map[string]int
}

// NumSegments returns the number of segments.
func (g *Graph) NumSegments() int { return len(g.Segs) }

// SegmentSeq returns the sequence of segment i.
func (g *Graph) SegmentSeq(i int) []byte { return g.Segs[i].Seq }

// NumArcs returns the number of arcs.
func (g *Graph) NumArcs() int { return len(g.Arcs) }

// ArcOverlap returns the overlap fields of arc i.
func (g *Graph) ArcOverlap(i int) (ov, ow int64) { return g.Arcs[i].Ov, g.Arcs[i].Ow }

// SegmentID returns the id of the named segment.
func (g *Graph) SegmentID(name string) (int, bool) {
	id, ok := g.names[name]
	return id, ok
}

// pendingLink is an L record whose endpoints may not be defined yet; GFA
// allows links before the segments they join.
type pendingLink struct {
	line           int
	from, to       string
	fromRev, toRev bool
	ov, ow         int64
}

// Parse reads a GFA1 stream.
func Parse(r io.Reader) (*Graph, error) {
	g := &Graph{names: make(map[string]int)}
	var links []pendingLink

	br := bufio.NewReaderSize(r, 1<<20)
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimRight(line, "\r\n")
			if perr := g.parseLine(line, lineNo, &links); perr != nil {
				return nil, perr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read GFA line %d: %w", lineNo, err)
		}
	}

	g.Arcs = make([]Arc, 0, len(links))
	for _, l := range links {
		from, ok := g.names[l.from]
		if !ok {
			return nil, fmt.Errorf("%w: line %d: %q", mgerrors.ErrUnknownSegment, l.line, l.from)
		}
		to, ok := g.names[l.to]
		if !ok {
			return nil, fmt.Errorf("%w: line %d: %q", mgerrors.ErrUnknownSegment, l.line, l.to)
		}
		g.Arcs = append(g.Arcs, Arc{
			From: from, To: to,
			FromRev: l.fromRev, ToRev: l.toRev,
			Ov: l.ov, Ow: l.ow,
		})
	}
	return g, nil
}

func (g *Graph) parseLine(line []byte, lineNo int, links *[]pendingLink) error {
	if len(line) < 2 || line[1] != '\t' {
		return nil
	}
	fields := bytes.Split(line, []byte{'\t'})
	switch line[0] {
	case 'S':
		if len(fields) < 3 {
			return fmt.Errorf("%w: line %d: S record needs 3 fields", mgerrors.ErrMalformedGFA, lineNo)
		}
		name := string(fields[1])
		if _, dup := g.names[name]; dup {
			return fmt.Errorf("%w: line %d: %q", mgerrors.ErrDuplicateSegment, lineNo, name)
		}
		seg := Segment{Name: name}
		if !bytes.Equal(fields[2], []byte("*")) {
			seg.Seq = fields[2]
			seg.Len = len(seg.Seq)
		} else {
			for _, tag := range fields[3:] {
				if v, ok := bytes.CutPrefix(tag, []byte("LN:i:")); ok {
					n, err := strconv.Atoi(string(v))
					if err != nil || n < 0 {
						return fmt.Errorf("%w: line %d: bad LN tag %q", mgerrors.ErrMalformedGFA, lineNo, tag)
					}
					seg.Len = n
				}
			}
		}
		g.names[name] = len(g.Segs)
		g.Segs = append(g.Segs, seg)

	case 'L':
		if len(fields) < 6 {
			return fmt.Errorf("%w: line %d: L record needs 6 fields", mgerrors.ErrMalformedGFA, lineNo)
		}
		fromRev, err := parseOrient(fields[2])
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", mgerrors.ErrMalformedGFA, lineNo, err)
		}
		toRev, err := parseOrient(fields[4])
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", mgerrors.ErrMalformedGFA, lineNo, err)
		}
		ov, ow, err := parseOverlap(fields[5])
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", mgerrors.ErrMalformedGFA, lineNo, err)
		}
		*links = append(*links, pendingLink{
			line: lineNo,
			from: string(fields[1]), to: string(fields[3]),
			fromRev: fromRev, toRev: toRev,
			ov: ov, ow: ow,
		})
	}
	return nil
}

func parseOrient(f []byte) (bool, error) {
	switch string(f) {
	case "+":
		return false, nil
	case "-":
		return true, nil
	}
	return false, fmt.Errorf("orientation %q", f)
}

// parseOverlap converts an overlap CIGAR into the lengths consumed on the
// from segment (ov) and the to segment (ow). "*" means no overlap.
func parseOverlap(cigar []byte) (ov, ow int64, err error) {
	if bytes.Equal(cigar, []byte("*")) {
		return 0, 0, nil
	}
	var n int64
	digits := false
	for _, c := range cigar {
		if c >= '0' && c <= '9' {
			n = n*10 + int64(c-'0')
			digits = true
			continue
		}
		if !digits {
			return 0, 0, fmt.Errorf("overlap %q", cigar)
		}
		switch c {
		case 'M', '=', 'X':
			ov += n
			ow += n
		case 'D', 'N':
			ov += n
		case 'I', 'S':
			ow += n
		case 'H', 'P':
		default:
			return 0, 0, fmt.Errorf("overlap %q: op %q", cigar, c)
		}
		n, digits = 0, false
	}
	if digits || len(cigar) == 0 {
		return 0, 0, fmt.Errorf("overlap %q", cigar)
	}
	return ov, ow, nil
}
