//go:build windows

package evm

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// mlock keeps data out of the page file. It reports whether the lock took.
func mlock(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return windows.VirtualLock(uintptr(unsafe.Pointer(&data[0])), uintptr(len(data))) == nil //nolint:gosec // G103: address of a live slice
}

func munlock(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = windows.VirtualUnlock(uintptr(unsafe.Pointer(&data[0])), uintptr(len(data))) //nolint:gosec // G103: address of a live slice
}
