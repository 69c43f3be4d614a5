package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/mgindex"
	"github.com/tamirms/mgindex/gfa"
	"github.com/tamirms/mgindex/sketch"
)

type queryRecord struct {
	id  string
	seq string
}

func collectQueries(t *testing.T, path string) []queryRecord {
	t.Helper()
	var out []queryRecord
	for record, err := range queryRecords(path) {
		require.NoError(t, err)
		out = append(out, queryRecord{id: string(record.ID), seq: string(record.Seq.Seq)})
	}
	return out
}

func TestQueryRecordsFASTA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.fa")
	require.NoError(t, os.WriteFile(path, []byte(">r1 some description\nACGT\nTTGA\n>r2\nGG\n"), 0o644))

	recs := collectQueries(t, path)
	assert.Equal(t, []queryRecord{{"r1", "ACGTTTGA"}, {"r2", "GG"}}, recs)
}

func TestQueryRecordsGzipFASTQ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.fq.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("@q1\nACGT\n+\nIIII\n@q2\nAC\n+\nII\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	recs := collectQueries(t, path)
	assert.Equal(t, []queryRecord{{"q1", "ACGT"}, {"q2", "AC"}}, recs)
}

func TestQueryRecordsMissingFile(t *testing.T) {
	var err error
	for _, e := range queryRecords(filepath.Join(t.TempDir(), "missing.fa")) {
		err = e
	}
	require.Error(t, err)
}

const repeatGFA = "S\ts1\tACGTTGCAAGGCTTACCGATAGCTAGGCTTAACGT\n" +
	"S\ts2\tACGTTGCAAGGCTTACCGATAGCTAGGCTTAACGT\n" +
	"S\ts3\tTTTGGGCCCAAATTTGGGCCCAAATTTGCAGTCAG\n" +
	"L\ts1\t+\ts2\t+\t0M\n"

func buildTestIndex(t *testing.T) *mgindex.Index {
	t.Helper()
	g, err := gfa.Parse(strings.NewReader(repeatGFA))
	require.NoError(t, err)
	idx, err := mgindex.Build(context.Background(), g, 11, 5, 4, mgindex.WithWorkers(2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSeedQuery(t *testing.T) {
	idx := buildTestIndex(t)
	sk := sketch.NewSketcher(sketch.Invertible)
	query := []byte("ACGTTGCAAGGCTTACCGATAGCTAGGCTTAACGT")

	unfiltered := seedQuery(idx, sk, query, math.MaxInt32)
	require.Positive(t, unfiltered.seeds)
	assert.Zero(t, unfiltered.filtered)
	// Every query minimizer occurs at least in both s1 and s2.
	assert.GreaterOrEqual(t, unfiltered.hits, 2*unfiltered.seeds)

	// A ceiling of 2 drops everything that occurs at least twice.
	filtered := seedQuery(idx, sk, query, 2)
	assert.Equal(t, unfiltered.seeds, filtered.seeds)
	assert.Equal(t, filtered.seeds, filtered.filtered)
	assert.Zero(t, filtered.hits)

	none := seedQuery(idx, sk, []byte("NNNNNNNNNNNNNNNNNNNN"), math.MaxInt32)
	assert.Equal(t, seedStats{}, none)
}

func TestOccurrenceQuantiles(t *testing.T) {
	idx := buildTestIndex(t)
	qs, err := occurrenceQuantiles(idx, []float64{0.5, 0.99})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	for _, q := range qs {
		assert.GreaterOrEqual(t, q.v, 1.0)
	}

	require.NoError(t, idx.Close())
	qs, err = occurrenceQuantiles(idx, []float64{0.5})
	require.NoError(t, err)
	assert.Empty(t, qs)
}
