package sketch

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	mgerrors "github.com/tamirms/mgindex/errors"
)

// HashFunc hashes a 2-bit packed k-mer. mask has the low 2k bits set.
// Only the low HashBits bits of the result are kept.
type HashFunc func(kmer, mask uint64) uint64

// Invertible is the default k-mer hash: an invertible integer mix restricted
// to the 2k-bit k-mer domain, so distinct k-mers never share a hash.
func Invertible(key, mask uint64) uint64 {
	key = (^key + (key << 21)) & mask
	key = key ^ key>>24
	key = (key + (key << 3) + (key << 8)) & mask
	key = key ^ key>>14
	key = (key + (key << 2) + (key << 4)) & mask
	key = key ^ key>>28
	key = (key + (key << 31)) & mask
	return key
}

// XXH3 hashes the little-endian k-mer word with xxHash3-64.
func XXH3(key, _ uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return xxh3.Hash(b[:])
}

// Murmur3 hashes the little-endian k-mer word with MurmurHash3 (x64, 128-bit
// variant truncated to 64 bits).
func Murmur3(key, _ uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return murmur3.Sum64(b[:])
}

// Hasher names accepted by HasherByName.
const (
	HasherInvertible = "invertible"
	HasherXXH3       = "xxh3"
	HasherMurmur3    = "murmur3"
)

// HasherByName resolves a hasher name (case-insensitive).
func HasherByName(name string) (HashFunc, error) {
	switch strings.ToLower(name) {
	case "", HasherInvertible:
		return Invertible, nil
	case HasherXXH3:
		return XXH3, nil
	case HasherMurmur3:
		return Murmur3, nil
	}
	return nil, fmt.Errorf("%w: %q", mgerrors.ErrUnknownHasher, name)
}
