package main

import (
	"fmt"
	"io"
	"iter"

	"github.com/shenwei356/bio/seqio/fastx"
)

// queryRecords yields the records of a FASTA/FASTQ file, plain or
// compressed. The reader reuses one Record, so a yielded record is only valid
// until the next iteration.
func queryRecords(path string) iter.Seq2[*fastx.Record, error] {
	return func(yield func(*fastx.Record, error) bool) {
		r, err := fastx.NewReader(nil, path, "")
		if err != nil {
			yield(nil, fmt.Errorf("failed to read seq file: %w", err))
			return
		}
		defer r.Close()

		for i := 0; ; i++ {
			record, err := r.Read()
			if err != nil {
				if err == io.EOF {
					return
				}
				yield(nil, fmt.Errorf("read seq %d in %s: %w", i, path, err))
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}
