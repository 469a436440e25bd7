//go:build windows

package storage

import (
	stderrors "errors"
	"syscall"
	"unsafe"
)

var procGetDiskFreeSpaceEx = syscall.NewLazyDLL("kernel32.dll").NewProc("GetDiskFreeSpaceExW")

func availableBytes(path string) (uint64, error) {
	p, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var free, total, totalFree uint64
	ok, _, callErr := procGetDiskFreeSpaceEx.Call(
		uintptr(unsafe.Pointer(p)),
		uintptr(unsafe.Pointer(&free)),
		uintptr(unsafe.Pointer(&total)),
		uintptr(unsafe.Pointer(&totalFree)),
	)
	if ok == 0 {
		return 0, callErr
	}
	return free, nil
}

// ERROR_HANDLE_DISK_FULL and ERROR_DISK_FULL
func platformDiskFull(err error) bool {
	return stderrors.Is(err, syscall.Errno(39)) || stderrors.Is(err, syscall.Errno(112))
}
