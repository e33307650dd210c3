// Package multiboot decodes the multiboot2 information structure handed over
// by the boot loader.
package multiboot

import (
	"encoding/binary"
	"gophersmp/kernel/phys"
	"strings"
)

type tagType uint32

// nolint
const (
	tagMbSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
	tagVbeInfo
	tagFramebufferInfo
	tagElfSymbols
	tagApmTable
	tagEFI32SystemTable
	tagEFI64SystemTable
	tagSMBIOSTables
	tagACPIOldRSDP
	tagACPINewRSDP
)

const (
	// Size of the info header and of each tag header.
	sizeofInfoHeader = 8
	sizeofTagHeader  = 8

	// Size of the memory map header that precedes the map entries.
	sizeofMmapHeader = 8

	// Size of the fields of a memory map entry decoded by this package.
	sizeofMemoryMapEntry = 20
)

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

var (
	infoData uintptr

	// physMem is used to access the multiboot info structure. The boot
	// loader places it in identity-mapped low memory.
	physMem phys.Reader = phys.Direct{}

	cmdLineKV map[string]string
)

// MemRegionVisitor defies a visitor function that gets invoked by VisitMemRegions
// for each memory region provided by the boot loader. The visitor must return true
// to continue or false to abort the scan.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "unknown"
	}
}

// SetInfoPtr updates the internal multiboot information pointer to the given
// value. This function must be invoked before invoking any other function
// exported by this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
	cmdLineKV = nil
}

// VisitMemRegions will invoke the supplied visitor for each memory region that
// is defined by the multiboot info data that we received from the bootloader.
func VisitMemRegions(visitor MemRegionVisitor) {
	curPtr, size := findTagByType(tagMemoryMap)
	if size < sizeofMmapHeader {
		return
	}

	entrySize, err := phys.ReadUint32(physMem, curPtr)
	if err != nil || entrySize < sizeofMemoryMapEntry {
		return
	}

	var (
		buf   [sizeofMemoryMapEntry]byte
		entry MemoryMapEntry
	)

	endPtr := curPtr + uintptr(size)
	for curPtr += sizeofMmapHeader; curPtr+uintptr(entrySize) <= endPtr; curPtr += uintptr(entrySize) {
		if physMem.ReadPhys(curPtr, buf[:]) != nil {
			return
		}

		entry.PhysAddress = binary.LittleEndian.Uint64(buf[0:])
		entry.Length = binary.LittleEndian.Uint64(buf[8:])
		entry.Type = MemoryEntryType(binary.LittleEndian.Uint32(buf[16:]))

		// Mark unknown entry types as reserved
		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(&entry) {
			return
		}
	}
}

// GetBootCmdLine returns the command line key-value pairs passed to the
// kernel. Flags without a value (e.g. "nosmp") map to themselves.
func GetBootCmdLine() map[string]string {
	if cmdLineKV != nil {
		return cmdLineKV
	}

	cmdLineKV = make(map[string]string)

	curPtr, size := findTagByType(tagBootCmdLine)
	if size <= 1 {
		return cmdLineKV
	}

	// The command line is a C-style NULL-terminated string
	cmdLine := make([]byte, size-1)
	if physMem.ReadPhys(curPtr, cmdLine) != nil {
		return cmdLineKV
	}

	for _, pair := range strings.Fields(string(cmdLine)) {
		kv := strings.SplitN(pair, "=", 2)
		switch len(kv) {
		case 2: // foo=bar
			cmdLineKV[kv[0]] = kv[1]
		case 1: // nofoo
			cmdLineKV[kv[0]] = kv[0]
		}
	}

	return cmdLineKV
}

// GetACPIRSDP returns a copy of the ACPI root system description pointer
// supplied by the boot loader. The ACPI 2.0+ copy is preferred over the ACPI
// 1.0 copy. It returns nil if the boot loader did not provide either.
func GetACPIRSDP() []byte {
	for _, tag := range []tagType{tagACPINewRSDP, tagACPIOldRSDP} {
		curPtr, size := findTagByType(tag)
		if size == 0 {
			continue
		}

		rsdp := make([]byte, size)
		if physMem.ReadPhys(curPtr, rsdp) != nil {
			return nil
		}
		return rsdp
	}

	return nil
}

// findTagByType scans the multiboot info data looking for the start of of the
// specified type. It returns a pointer to the tag contents start offset and
// the content length exluding the tag header.
//
// If the tag is not present in the multiboot info, findTagSection will return
// back (0,0).
func findTagByType(tagType tagType) (uintptr, uint32) {
	var buf [sizeofTagHeader]byte

	if infoData == 0 {
		return 0, 0
	}

	curPtr := infoData + sizeofInfoHeader
	for {
		if physMem.ReadPhys(curPtr, buf[:]) != nil {
			return 0, 0
		}

		curType := binary.LittleEndian.Uint32(buf[0:])
		curSize := binary.LittleEndian.Uint32(buf[4:])
		if curType == uint32(tagMbSectionEnd) || curSize < sizeofTagHeader {
			return 0, 0
		}

		if curType == uint32(tagType) {
			return curPtr + sizeofTagHeader, curSize - sizeofTagHeader
		}

		// Tags are aligned at 8-byte aligned addresses
		curPtr += uintptr((curSize + 7) &^ 7)
	}
}
