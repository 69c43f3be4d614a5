package mgindex

import (
	"iter"

	"github.com/tamirms/mgindex/sketch"
)

// Sketcher extracts the minimizers of one segment. segID is the segment's
// index in the graph and must end up in the high 32 bits of every Pos.
// Implementations must be safe for concurrent use when Build runs with more
// than one worker.
type Sketcher func(seq []byte, w, k int, segID uint32) iter.Seq[sketch.Minimizer]

// BuildOption is a functional option for configuring builds.
type BuildOption func(*buildConfig)

type buildConfig struct {
	workers  int
	sketcher Sketcher
	logger   *Logger
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		workers:  0, // Default to single-threaded; use WithWorkers(n) to parallelize
		sketcher: sketch.Sketch,
		logger:   NoopLogger(),
	}
}

// WithWorkers sets the number of parallel workers used for staging and
// finalizing buckets. Values below 1 mean a single worker. The resulting
// index does not depend on the worker count.
func WithWorkers(n int) BuildOption {
	return func(c *buildConfig) {
		c.workers = n
	}
}

// WithSketcher replaces the minimizer extractor. The default is sketch.Sketch.
func WithSketcher(s Sketcher) BuildOption {
	return func(c *buildConfig) {
		if s != nil {
			c.sketcher = s
		}
	}
}

// WithHasher uses the standard sketcher with a different k-mer hash.
// Queries must hash their k-mers the same way.
func WithHasher(h sketch.HashFunc) BuildOption {
	return func(c *buildConfig) {
		c.sketcher = sketch.NewSketcher(h).Sketch
	}
}

// WithLogger configures structured logging for the build. The default
// discards all records.
func WithLogger(l *Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
