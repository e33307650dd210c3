package kernel

import "unsafe"

// Memcopy copies size bytes from the memory at address src to the memory at
// address dst. Both ranges must be mapped.
func Memcopy(src, dst uintptr, size uintptr) {
	if size == 0 {
		return
	}

	copy(
		unsafe.Slice((*byte)(unsafe.Pointer(dst)), size),
		unsafe.Slice((*byte)(unsafe.Pointer(src)), size),
	)
}
