package mgindex

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	mgerrors "github.com/tamirms/mgindex/errors"
	"github.com/tamirms/mgindex/sketch"
)

// Build sketches every segment of g and builds a frozen minimizer index.
//
// bucketBits is capped at 2k and w is raised to at least 1. k must be in
// [1, sketch.MaxK] and w at most sketch.MaxW. After the 2k cap bucketBits
// must not exceed 28; larger values fail with ErrInvalidParams rather than
// being clamped.
//
// Build fails with ErrOverlappingGraph, before doing any other work, if any
// arc of g has a nonzero overlap, and with ErrSegmentTooLong if a segment
// is longer than sketch.MaxSeqLen. Cancelling ctx aborts the build; no index is
// returned on any error. The returned Index borrows g, which must outlive it.
//
// Usage:
//
//	idx, err := mgindex.Build(ctx, g, 15, 10, 14, mgindex.WithWorkers(8))
//	if err != nil { return err }
//	defer idx.Close()
//
//	for m := range sketch.Sketch(query, idx.W(), idx.K(), 0) {
//	    hits := idx.Lookup(m.Hash())
//	    ...
//	}
func Build(ctx context.Context, g Graph, k, w, bucketBits int, opts ...BuildOption) (*Index, error) {
	if g == nil {
		return nil, mgerrors.ErrNilGraph
	}

	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if k < 1 || k > sketch.MaxK {
		return nil, fmt.Errorf("%w: k=%d outside [1, %d]", mgerrors.ErrInvalidParams, k, sketch.MaxK)
	}
	if w > sketch.MaxW {
		return nil, fmt.Errorf("%w: w=%d exceeds %d", mgerrors.ErrInvalidParams, w, sketch.MaxW)
	}
	if bucketBits < 0 {
		return nil, fmt.Errorf("%w: negative bucket bits %d", mgerrors.ErrInvalidParams, bucketBits)
	}
	w = max(w, 1)
	bucketBits = min(bucketBits, 2*k)
	if bucketBits > maxBucketBits {
		return nil, fmt.Errorf("%w: bucket bits %d exceed %d", mgerrors.ErrInvalidParams, bucketBits, maxBucketBits)
	}

	log := cfg.logger.WithParams(k, w, bucketBits)

	// Overlapping segments break the coordinate arithmetic downstream;
	// reject before any work is scheduled.
	if arc, ov, ow, found := findOverlap(g); found {
		log.LogOverlap(ctx, arc, ov, ow)
		return nil, fmt.Errorf("%w: arc %d has overlap %d/%d", mgerrors.ErrOverlappingGraph, arc, ov, ow)
	}
	if seg, n, found := findLongSegment(g, sketch.MaxSeqLen); found {
		return nil, fmt.Errorf("%w: segment %d has %d bases, limit %d", mgerrors.ErrSegmentTooLong, seg, n, sketch.MaxSeqLen)
	}

	// Determine worker count
	numBuckets := 1 << bucketBits
	workers := cfg.workers
	if workers <= 0 {
		workers = 1 // Default to single-threaded
	}

	start := time.Now()
	idx := newIndex(g, k, w, bucketBits)

	phaseStart := time.Now()
	var err error
	if workers > 1 {
		err = idx.stageParallel(ctx, cfg.sketcher, workers)
	} else {
		err = idx.stage(ctx, cfg.sketcher)
	}
	log.LogPhase(ctx, "stage", time.Since(phaseStart), err)
	if err != nil {
		return nil, err
	}

	phaseStart = time.Now()
	err = idx.finalizeAll(ctx, min(workers, numBuckets))
	log.LogPhase(ctx, "finalize", time.Since(phaseStart), err)
	if err != nil {
		return nil, err
	}

	if log.Enabled(ctx, slog.LevelInfo) {
		log.LogBuild(ctx, idx.Stats(), time.Since(start))
	}
	return idx, nil
}

// stage sketches segments one at a time and appends every pair to the
// staging collection of the bucket selected by the low b bits of its hash.
func (idx *Index) stage(ctx context.Context, sk Sketcher) error {
	for i := range idx.graph.NumSegments() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for m := range sk(idx.graph.SegmentSeq(i), idx.w, idx.k, uint32(i)) {
			h := m.Hash()
			b := &idx.buckets[h&idx.mask]
			b.staging = append(b.staging, stagedPair{hash: h, pos: m.Pos, span: uint8(m.Span())})
		}
	}
	return nil
}

// stageParallel sketches segments concurrently. Each task groups its pairs by
// bucket and appends each run under that bucket's lock. Staging order differs
// from the sequential path, but finalize sorts on the full pair so the frozen
// index is identical.
func (idx *Index) stageParallel(ctx context.Context, sk Sketcher, workers int) error {
	locks := make([]sync.Mutex, len(idx.buckets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range idx.graph.NumSegments() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var local []stagedPair
			for m := range sk(idx.graph.SegmentSeq(i), idx.w, idx.k, uint32(i)) {
				local = append(local, stagedPair{hash: m.Hash(), pos: m.Pos, span: uint8(m.Span())})
			}
			slices.SortFunc(local, func(a, b stagedPair) int {
				return cmp.Compare(a.hash&idx.mask, b.hash&idx.mask)
			})
			for start := 0; start < len(local); {
				bi := local[start].hash & idx.mask
				end := start + 1
				for end < len(local) && local[end].hash&idx.mask == bi {
					end++
				}
				locks[bi].Lock()
				idx.buckets[bi].staging = append(idx.buckets[bi].staging, local[start:end]...)
				locks[bi].Unlock()
				start = end
			}
			return nil
		})
	}
	return g.Wait()
}

// finalizeAll freezes every bucket, one task per bucket. Tasks touch only
// their own slot, so no locking is needed; Wait is the barrier before the
// index is published.
func (idx *Index) finalizeAll(ctx context.Context, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	suffixLen := uint(idx.b)
	for i := range idx.buckets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			idx.buckets[i].finalize(suffixLen)
			return nil
		})
	}
	return g.Wait()
}
