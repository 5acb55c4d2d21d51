//go:build !windows

package evm

import (
	"golang.org/x/sys/unix"
)

// mlock keeps data out of swap. It reports whether the lock took.
func mlock(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return unix.Mlock(data) == nil
}

func munlock(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Munlock(data)
}
