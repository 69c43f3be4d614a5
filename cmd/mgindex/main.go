// Mgindex builds a minimizer index over the segments of a GFA graph, reports
// its statistics and, given a query file, counts seed hits per query.
//
// Usage:
//
//	go run ./cmd/mgindex -gfa graph.gfa.gz -k 17 -w 11 -b 14 -t 8
//
// Flags:
//
//	-gfa       GFA graph (.gfa, .gfa.gz, .gfa.zst, .gfa.lz4)
//	-config    YAML config file (default: mgindex.yaml, optional)
//	-k, -w     Minimizer k-mer and window size
//	-b         Bucket bits
//	-t         Number of parallel workers
//	-hasher    Minimizer hasher: invertible, xxh3 or murmur3
//	-f         Fraction of most frequent minimizers to filter
//	-query     FASTA/FASTQ file (optionally compressed) to seed against the index
//
// Flags given on the command line override the config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caio/go-tdigest/v4"

	"github.com/tamirms/mgindex"
	"github.com/tamirms/mgindex/gfa"
	"github.com/tamirms/mgindex/internal/config"
	"github.com/tamirms/mgindex/sketch"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

type cliFlags struct {
	gfaPath    string
	configPath string
	queryPath  string
	cpuprofile string
	memprofile string
	k, w, b, t int
	hasher     string
	frac       float64
	logLevel   string
	jsonLog    bool
}

func main() {
	var cf cliFlags
	flag.StringVar(&cf.gfaPath, "gfa", "", "GFA graph file (required)")
	flag.StringVar(&cf.configPath, "config", "mgindex.yaml", "YAML config file; missing file means defaults")
	flag.StringVar(&cf.queryPath, "query", "", "FASTA/FASTQ query file")
	flag.StringVar(&cf.cpuprofile, "cpuprofile", "", "write cpu profile to file (build phase only)")
	flag.StringVar(&cf.memprofile, "memprofile", "", "write memory profile to file after build")
	flag.IntVar(&cf.k, "k", 0, "k-mer size")
	flag.IntVar(&cf.w, "w", 0, "minimizer window size")
	flag.IntVar(&cf.b, "b", 0, "bucket bits")
	flag.IntVar(&cf.t, "t", 0, "number of parallel workers")
	flag.StringVar(&cf.hasher, "hasher", "", "minimizer hasher: invertible, xxh3 or murmur3")
	flag.Float64Var(&cf.frac, "f", 0, "fraction of most frequent minimizers to filter")
	flag.StringVar(&cf.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flag.BoolVar(&cf.jsonLog, "json", false, "emit JSON logs")
	flag.Parse()

	if cf.gfaPath == "" {
		fmt.Fprintln(os.Stderr, "mgindex: -gfa is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(cf.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mgindex: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, &cf)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "mgindex: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, &cf); err != nil {
		fmt.Fprintf(os.Stderr, "mgindex: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// applyFlags copies the explicitly set flags over the loaded config.
func applyFlags(cfg *config.Config, cf *cliFlags) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			cfg.Index.K = cf.k
		case "w":
			cfg.Index.W = cf.w
		case "b":
			cfg.Index.BucketBits = cf.b
		case "t":
			cfg.Index.Workers = cf.t
		case "hasher":
			cfg.Index.Hasher = cf.hasher
		case "f":
			cfg.Map.MaxOccFrac = cf.frac
		case "log-level":
			cfg.Log.Level = cf.logLevel
		case "json":
			if cf.jsonLog {
				cfg.Log.Format = "json"
			}
		}
	})
}

func newLogger(cfg *config.Config) *mgindex.Logger {
	level, _ := cfg.SlogLevel() // validated
	if cfg.Log.Format == "json" {
		return mgindex.NewJSONLogger(level)
	}
	return mgindex.NewTextLogger(level)
}

func run(ctx context.Context, cfg *config.Config, cf *cliFlags) error {
	logger := newLogger(cfg)
	hasher, err := sketch.HasherByName(cfg.Index.Hasher)
	if err != nil {
		return err
	}

	loadStart := time.Now()
	g, err := gfa.Load(cf.gfaPath)
	if err != nil {
		return err
	}
	loadDuration := time.Since(loadStart)
	logger.InfoContext(ctx, "graph loaded",
		"path", cf.gfaPath,
		"segments", g.NumSegments(),
		"arcs", g.NumArcs(),
		"elapsed", loadDuration,
	)

	if cf.cpuprofile != "" {
		f, err := os.Create(cf.cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
	}

	var peakAlloc atomic.Uint64
	done := make(chan struct{})
	go samplePeakHeap(&peakAlloc, done)

	buildStart := time.Now()
	idx, err := mgindex.Build(ctx, g, cfg.Index.K, cfg.Index.W, cfg.Index.BucketBits,
		mgindex.WithWorkers(cfg.Index.Workers),
		mgindex.WithHasher(hasher),
		mgindex.WithLogger(logger),
	)
	buildDuration := time.Since(buildStart)
	close(done)
	if cf.cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if err != nil {
		return err
	}
	defer idx.Close()

	if cf.memprofile != "" {
		if err := writeHeapProfile(cf.memprofile); err != nil {
			return err
		}
	}

	maxOcc := idx.MaxOcc(cfg.Map.MaxOccFrac)
	quantiles, err := occurrenceQuantiles(idx, []float64{0.5, 0.9, 0.99, 0.999})
	if err != nil {
		return err
	}

	st := idx.Stats()
	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════════╗\n")
	fmt.Printf("║ k=%-3d w=%-3d b=%-3d   ║ hasher: %-12s ║\n", idx.K(), idx.W(), idx.B(), cfg.Index.Hasher)
	fmt.Printf("╠═════════════════════╬══════════════════════╣\n")
	fmt.Printf("║ Segments            ║ %20d ║\n", g.NumSegments())
	fmt.Printf("║ Buckets (non-empty) ║ %9d (%8d) ║\n", st.NumBuckets, st.NonEmptyBuckets)
	fmt.Printf("║ Distinct minimizers ║ %20d ║\n", st.NumKeys)
	fmt.Printf("║   - singletons      ║ %20d ║\n", st.NumSingletons)
	fmt.Printf("║ Occurrences         ║ %20d ║\n", st.NumOccurrences)
	fmt.Printf("║ Overflow positions  ║ %20d ║\n", st.OverflowLen)
	fmt.Printf("║ Table slots         ║ %20d ║\n", st.TableSlots)
	for _, q := range quantiles {
		fmt.Printf("║ Occurrence p%-7g ║ %20.1f ║\n", q.q*100, q.v)
	}
	fmt.Printf("║ MaxOcc (f=%-8g) ║ %20d ║\n", cfg.Map.MaxOccFrac, maxOcc)
	fmt.Printf("║ Checksum            ║   %#018x ║\n", idx.Checksum())
	fmt.Printf("║ Load time           ║ %16.2f sec ║\n", loadDuration.Seconds())
	fmt.Printf("║ Build time          ║ %16.2f sec ║\n", buildDuration.Seconds())
	fmt.Printf("║ Peak heap memory    ║ %17.1f MB ║\n", float64(peakAlloc.Load())/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %17.1f MB ║\n", float64(getMaxRSS())/1_000_000)
	fmt.Printf("╚═════════════════════╩══════════════════════╝\n")

	if cf.queryPath == "" {
		return nil
	}
	sk := sketch.NewSketcher(hasher)
	fmt.Printf("\n%-24s %10s %10s %10s %10s\n", "query", "length", "seeds", "filtered", "hits")
	for record, err := range queryRecords(cf.queryPath) {
		if err != nil {
			return err
		}
		s := seedQuery(idx, sk, record.Seq.Seq, maxOcc)
		fmt.Printf("%-24s %10d %10d %10d %10d\n", record.ID, len(record.Seq.Seq), s.seeds, s.filtered, s.hits)
	}
	return nil
}

// samplePeakHeap records the peak live heap every 10ms until done closes.
func samplePeakHeap(peak *atomic.Uint64, done <-chan struct{}) {
	samples := []metrics.Sample{
		{Name: "/memory/classes/heap/objects:bytes"},
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			metrics.Read(samples)
			heapBytes := samples[0].Value.Uint64()
			for {
				old := peak.Load()
				if heapBytes <= old || peak.CompareAndSwap(old, heapBytes) {
					break
				}
			}
		}
	}
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}

type quantile struct {
	q, v float64
}

// occurrenceQuantiles summarizes the per-minimizer occurrence counts.
func occurrenceQuantiles(idx *mgindex.Index, qs []float64) ([]quantile, error) {
	td, err := tdigest.New()
	if err != nil {
		return nil, fmt.Errorf("tdigest.New failed: %w", err)
	}
	for c := range idx.Occurrences() {
		if err := td.Add(float64(c)); err != nil {
			return nil, fmt.Errorf("tdigest add: %w", err)
		}
	}
	out := make([]quantile, 0, len(qs))
	if td.Count() == 0 {
		return out, nil
	}
	for _, q := range qs {
		out = append(out, quantile{q: q, v: td.Quantile(q)})
	}
	return out, nil
}

type seedStats struct {
	seeds    int // query minimizers
	filtered int // present in the index at or above the occurrence ceiling
	hits     int // graph positions of the retained minimizers
}

// seedQuery sketches seq with the index parameters and looks every minimizer
// up, dropping those whose occurrence count reaches maxOcc.
func seedQuery(idx *mgindex.Index, sk *sketch.Sketcher, seq []byte, maxOcc int32) seedStats {
	var s seedStats
	for m := range sk.Sketch(seq, idx.W(), idx.K(), 0) {
		s.seeds++
		n := idx.Count(m.Hash())
		if n == 0 {
			continue
		}
		if n >= int(maxOcc) {
			s.filtered++
			continue
		}
		s.hits += n
	}
	return s
}
