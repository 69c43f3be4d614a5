// Package errors defines all exported error sentinels for the mgindex library.
//
// This is the single source of truth for error values. The top-level mgindex
// package, the gfa loader and the internal packages all import from here,
// ensuring errors.Is checks work across package boundaries.
package errors

import "errors"

// Build errors
var (
	ErrNilGraph         = errors.New("mgindex: graph is nil")
	ErrInvalidParams    = errors.New("mgindex: invalid index parameters")
	ErrOverlappingGraph = errors.New("mgindex: graph contains overlapping segments")
	ErrSegmentTooLong   = errors.New("mgindex: segment exceeds the maximum indexable length")
)

// Finalize invariant violations. These are never returned; the finalizer
// panics with a message wrapping one of them.
var (
	ErrDuplicateKey     = errors.New("mgindex: duplicate key in frozen table")
	ErrKeyCountMismatch = errors.New("mgindex: key count mismatch between count and fill passes")
)

// Graph loading errors
var (
	ErrMalformedGFA     = errors.New("mgindex: malformed GFA record")
	ErrUnknownSegment   = errors.New("mgindex: link references unknown segment")
	ErrDuplicateSegment = errors.New("mgindex: duplicate segment name")
)

// Config errors
var (
	ErrInvalidConfig = errors.New("mgindex: invalid configuration")
	ErrUnknownHasher = errors.New("mgindex: unknown minimizer hasher")
)
