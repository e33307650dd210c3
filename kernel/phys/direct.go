package phys

import (
	"gophersmp/kernel"
	"unsafe"
)

// Direct reads physical memory by dereferencing physical addresses. It must
// only be used while physical memory is identity-mapped (as set up by the
// loader before the kernel entry point runs).
type Direct struct{}

// ReadPhys implements Reader.
func (Direct) ReadPhys(addr uintptr, p []byte) *kernel.Error {
	if addr+uintptr(len(p)) < addr {
		return errOutOfRange
	}

	if len(p) != 0 {
		kernel.Memcopy(addr, uintptr(unsafe.Pointer(&p[0])), uintptr(len(p)))
	}

	return nil
}
