// Package table defines the binary layout of the ACPI structures consumed
// while discovering the processor and memory topology. Every structure is
// decoded explicitly from a little-endian byte view; decoders reject buffers
// that are too short instead of reading past their end.
package table

import "encoding/binary"

// Sizes (in bytes) of the fixed-layout structures defined in this package.
const (
	SizeofRSDP                  = 20
	SizeofExtRSDP               = 36
	SizeofSDTHeader             = 36
	SizeofMADT                  = SizeofSDTHeader + 8
	SizeofSRAT                  = SizeofSDTHeader + 12
	SizeofEntryHeader           = 2
	SizeofMADTLocalAPIC         = 8
	SizeofMADTLocalAPICAddrOvr  = 12
	SizeofMADTLocalX2APIC       = 16
	SizeofSRATProcessorAffinity = 16
	SizeofSRATMemoryAffinity    = 40
	SizeofSRATX2APICAffinity    = 24
)

// RSDPDescriptor defines the root system descriptor pointer for ACPI 1.0. This
// is used as the entry-point for parsing ACPI data.
type RSDPDescriptor struct {
	// The signature must contain "RSD PTR " (last byte is a space).
	Signature [8]byte

	// A value that when added to the sum of all other bytes contained in
	// this descriptor should result in the value 0.
	Checksum uint8

	OEMID [6]byte

	// ACPI revision number. It is 0 for ACPI1.0 and 2 for versions 2.0+.
	Revision uint8

	// Physical address of 32-bit root system descriptor table.
	RSDTAddr uint32
}

// ExtRSDPDescriptor extends RSDPDescriptor with additional fields. It is used
// when RSDPDescriptor.Revision >= 2.
type ExtRSDPDescriptor struct {
	RSDPDescriptor

	// The size of the entire descriptor including the ACPI 1.0 part.
	Length uint32

	// Physical address of 64-bit root system descriptor table.
	XSDTAddr uint64

	// A value that when added to the sum of all bytes contained in the
	// extended descriptor should result in the value 0.
	ExtendedChecksum uint8
}

// DecodeRSDP decodes an ACPI 1.0 RSDP from b.
func DecodeRSDP(b []byte) (RSDPDescriptor, bool) {
	var d RSDPDescriptor
	if len(b) < SizeofRSDP {
		return d, false
	}

	copy(d.Signature[:], b[0:8])
	d.Checksum = b[8]
	copy(d.OEMID[:], b[9:15])
	d.Revision = b[15]
	d.RSDTAddr = binary.LittleEndian.Uint32(b[16:20])
	return d, true
}

// DecodeExtRSDP decodes an ACPI 2.0+ RSDP from b.
func DecodeExtRSDP(b []byte) (ExtRSDPDescriptor, bool) {
	var d ExtRSDPDescriptor
	if len(b) < SizeofExtRSDP {
		return d, false
	}

	d.RSDPDescriptor, _ = DecodeRSDP(b)
	d.Length = binary.LittleEndian.Uint32(b[20:24])
	d.XSDTAddr = binary.LittleEndian.Uint64(b[24:32])
	d.ExtendedChecksum = b[32]
	return d, true
}

// SDTHeader defines the common header for all ACPI-related tables.
type SDTHeader struct {
	// The signature defines the table type.
	Signature [4]byte

	// The length of the table including the header.
	Length uint32

	Revision uint8

	// A value that when added to the sum of all other bytes in the table
	// should result in the value 0.
	Checksum uint8

	// OEM specific information
	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	// Information about the ASL compiler that generated this table
	CreatorID       uint32
	CreatorRevision uint32
}

// DecodeSDTHeader decodes a standard table header from b.
func DecodeSDTHeader(b []byte) (SDTHeader, bool) {
	var h SDTHeader
	if len(b) < SizeofSDTHeader {
		return h, false
	}

	copy(h.Signature[:], b[0:4])
	h.Length = binary.LittleEndian.Uint32(b[4:8])
	h.Revision = b[8]
	h.Checksum = b[9]
	copy(h.OEMID[:], b[10:16])
	copy(h.OEMTableID[:], b[16:24])
	h.OEMRevision = binary.LittleEndian.Uint32(b[24:28])
	h.CreatorID = binary.LittleEndian.Uint32(b[28:32])
	h.CreatorRevision = binary.LittleEndian.Uint32(b[32:36])
	return h, true
}

// EntryHeader is the preamble shared by the variable sized records that
// follow the fixed part of the MADT and SRAT tables.
type EntryHeader struct {
	Type uint8

	// Length of the record including this header.
	Length uint8
}

// DecodeEntryHeader decodes a MADT/SRAT record header from b.
func DecodeEntryHeader(b []byte) (EntryHeader, bool) {
	if len(b) < SizeofEntryHeader {
		return EntryHeader{}, false
	}
	return EntryHeader{Type: b[0], Length: b[1]}, true
}
