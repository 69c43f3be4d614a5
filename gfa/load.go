package gfa

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Load reads a GFA file. The compression format is chosen by extension:
// .gz (gzip), .zst (zstd), .lz4 (LZ4 frame); anything else is read as plain
// text through a read-only memory map.
func Load(path string) (*Graph, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return loadStream(path, func(r io.Reader) (io.Reader, func(), error) {
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, func() { _ = zr.Close() }, nil
		})
	case strings.HasSuffix(path, ".zst"):
		return loadStream(path, func(r io.Reader) (io.Reader, func(), error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, nil, err
			}
			return zr, zr.Close, nil
		})
	case strings.HasSuffix(path, ".lz4"):
		return loadStream(path, func(r io.Reader) (io.Reader, func(), error) {
			return lz4.NewReader(r), func() {}, nil
		})
	}
	return loadMapped(path)
}

func loadStream(path string, wrap func(io.Reader) (io.Reader, func(), error)) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GFA file: %w", err)
	}
	defer f.Close()

	r, closeFn, err := wrap(f)
	if err != nil {
		return nil, fmt.Errorf("open decompressor for %s: %w", path, err)
	}
	defer closeFn()
	return Parse(r)
}

// loadMapped parses a plain GFA file through a read-only mapping. Parse
// copies every line out of the mapping, so it is unmapped before returning.
func loadMapped(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GFA file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat GFA file: %w", err)
	}
	if stat.Size() == 0 {
		return Parse(bytes.NewReader(nil))
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap GFA file: %w", err)
	}
	madviseSequential(mm)

	g, err := Parse(bytes.NewReader(mm))
	if uerr := mm.Unmap(); uerr != nil {
		return nil, errors.Join(err, fmt.Errorf("unmap GFA file: %w", uerr))
	}
	return g, err
}
