//go:build linux

package gfa

import "golang.org/x/sys/unix"

// madviseSequential hints to the kernel that the mapped file will be read
// front to back, enabling aggressive readahead.
// Best-effort: errors are silently ignored.
func madviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
