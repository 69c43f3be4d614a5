// Package mgindex implements a minimizer index over the segments of a
// sequence graph, the seeding structure of a graph aligner.
//
// The index shards minimizers into 2^b buckets by the low b bits of their
// hash. Every bucket is finalized independently (and in parallel) into a
// frozen hash table: minimizers that occur once keep their position inline,
// the rest reference a sorted run in the bucket's overflow array. After Build
// returns the index is immutable and safe for any number of concurrent
// readers.
//
// # Basic Usage
//
// Building an index:
//
//	g, err := gfa.Load("graph.gfa")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	idx, err := mgindex.Build(ctx, g, 17, 11, 14, mgindex.WithWorkers(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
// Querying an index:
//
//	maxOcc := idx.MaxOcc(2e-4)
//	for m := range sketch.Sketch(query, idx.W(), idx.K(), 0) {
//	    hits := idx.Lookup(m.Hash())
//	    if len(hits) >= int(maxOcc) {
//	        continue // repetitive seed
//	    }
//	    ...
//	}
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: build.go (Build), lookup.go (Lookup, Count), maxocc.go (MaxOcc)
//   - Configuration: options.go (BuildOption, With* functions), logger.go
//   - Index lifecycle: index.go (Index, Close, Stats, Checksum)
//   - Bucket finalizer: finalize.go (sort, count, fill)
//   - Frozen table: internal/table; order statistics: internal/selectk
//   - Collaborators: sketch/ (minimizer extraction), gfa/ (graph loading)
package mgindex
