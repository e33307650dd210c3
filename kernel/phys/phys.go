// Package phys provides access to physical memory without any virtual memory
// translation. All firmware structures parsed during early boot are copied
// out of physical memory through a Reader.
package phys

import (
	"encoding/binary"
	"gophersmp/kernel"
)

var (
	errOutOfRange = &kernel.Error{Module: "phys", Message: "physical address range is not backed by memory"}
)

// Reader is implemented by objects that can copy bytes out of physical memory.
//
// ReadPhys fills p with the contents of physical memory starting at addr. It
// returns an error (and leaves the contents of p undefined) if any part of the
// range cannot be read. Implementations must perform every read they are asked
// to; results must never be cached across calls.
type Reader interface {
	ReadPhys(addr uintptr, p []byte) *kernel.Error
}

// ReadUint8 reads a byte from physical address addr.
func ReadUint8(r Reader, addr uintptr) (uint8, *kernel.Error) {
	var buf [1]byte
	if err := r.ReadPhys(addr, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads a little-endian uint16 from physical address addr.
func ReadUint16(r Reader, addr uintptr) (uint16, *kernel.Error) {
	var buf [2]byte
	if err := r.ReadPhys(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadUint32 reads a little-endian uint32 from physical address addr.
func ReadUint32(r Reader, addr uintptr) (uint32, *kernel.Error) {
	var buf [4]byte
	if err := r.ReadPhys(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadUint64 reads a little-endian uint64 from physical address addr.
func ReadUint64(r Reader, addr uintptr) (uint64, *kernel.Error) {
	var buf [8]byte
	if err := r.ReadPhys(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Checksum returns the unsigned 8-bit sum of the length bytes starting at
// physical address addr. The bytes are fetched in fixed-size chunks so
// arbitrarily large tables can be summed without allocating.
func Checksum(r Reader, addr uintptr, length uint32) (uint8, *kernel.Error) {
	var (
		chunk [64]byte
		sum   uint8
	)

	for remaining := uintptr(length); remaining > 0; {
		n := uintptr(len(chunk))
		if remaining < n {
			n = remaining
		}

		if err := r.ReadPhys(addr, chunk[:n]); err != nil {
			return 0, err
		}

		for _, b := range chunk[:n] {
			sum += b
		}

		addr += n
		remaining -= n
	}

	return sum, nil
}
