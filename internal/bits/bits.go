// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// fibMul is 2^64 divided by the golden ratio, rounded to odd.
const fibMul = 0x9E3779B97F4A7C15

// LowMask returns a mask with the low n bits set. n >= 64 yields all ones.
func LowMask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<n - 1
}

// CeilLog2 returns the smallest l such that 1<<l >= n. CeilLog2(0) and
// CeilLog2(1) are both 0.
func CeilLog2(n uint64) uint {
	if n <= 1 {
		return 0
	}
	return uint(bits.Len64(n - 1))
}

// FibonacciSlot maps a 64-bit key to [0, 1<<logSize) using Fibonacci hashing:
// multiply by fibMul and keep the top logSize bits. Keys that differ only in
// their high bits still spread across the range.
func FibonacciSlot(key uint64, logSize uint) uint64 {
	if logSize == 0 {
		return 0
	}
	return (key * fibMul) >> (64 - logSize)
}
