//go:build linux

package main

import (
	"gophersmp/kernel"
	"gophersmp/kernel/phys"

	"golang.org/x/sys/unix"
)

var (
	errMapFailed = &kernel.Error{Module: "acpitopo", Message: "unable to map physical memory"}
)

// devMem is a phys.Reader that maps the requested physical range from a
// memory device such as /dev/mem for the duration of each read.
type devMem struct {
	fd       int
	pageSize uintptr
}

var _ phys.Reader = (*devMem)(nil)

func openDevMem(path string) (*devMem, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	return &devMem{fd: fd, pageSize: uintptr(unix.Getpagesize())}, nil
}

// ReadPhys implements phys.Reader.
func (m *devMem) ReadPhys(addr uintptr, p []byte) *kernel.Error {
	if len(p) == 0 {
		return nil
	}

	pageAddr := addr &^ (m.pageSize - 1)
	mapLen := int(addr-pageAddr) + len(p)

	data, err := unix.Mmap(m.fd, int64(pageAddr), mapLen, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return errMapFailed
	}

	copy(p, data[addr-pageAddr:])
	unix.Munmap(data)
	return nil
}

// Close releases the memory device.
func (m *devMem) Close() error {
	return unix.Close(m.fd)
}
