// Package selectk implements in-place order-statistic selection.
package selectk

import "cmp"

// Kth partially reorders a and returns the value that would sit at index k
// if a were sorted ascending. It runs in expected linear time using Hoare
// partitioning around a median-of-three pivot.
//
// k must be in [0, len(a)); Kth panics otherwise.
func Kth[T cmp.Ordered](a []T, k int) T {
	if k < 0 || k >= len(a) {
		panic("selectk: rank out of range")
	}
	low, high := 0, len(a)-1
	for {
		if high <= low {
			return a[k]
		}
		if high == low+1 {
			if a[high] < a[low] {
				a[low], a[high] = a[high], a[low]
			}
			return a[k]
		}

		// Order a[mid] <= a[low] <= a[high]; a[low] becomes the pivot and
		// a[high] the sentinel for the forward scan.
		mid := int(uint(low+high) >> 1)
		if a[high] < a[mid] {
			a[mid], a[high] = a[high], a[mid]
		}
		if a[high] < a[low] {
			a[low], a[high] = a[high], a[low]
		}
		if a[low] < a[mid] {
			a[mid], a[low] = a[low], a[mid]
		}
		a[mid], a[low+1] = a[low+1], a[mid]

		ll, hh := low+1, high
		for {
			for ll++; a[ll] < a[low]; ll++ {
			}
			for hh--; a[low] < a[hh]; hh-- {
			}
			if hh < ll {
				break
			}
			a[ll], a[hh] = a[hh], a[ll]
		}
		a[low], a[hh] = a[hh], a[low]

		if hh <= k {
			low = ll
		}
		if hh >= k {
			high = hh - 1
		}
	}
}
