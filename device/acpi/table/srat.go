package table

import "encoding/binary"

// SRAT (System Resource Affinity Table) associates processors and memory
// ranges with proximity domains (NUMA domains). Following the fixed fields are
// a series of variable sized records, each one starting with an EntryHeader.
type SRAT struct {
	SDTHeader

	// Reserved; must be 1 for backwards compatibility.
	TableRevision uint32
}

// DecodeSRAT decodes the fixed part of a SRAT (including its header) from b.
func DecodeSRAT(b []byte) (SRAT, bool) {
	var s SRAT
	if len(b) < SizeofSRAT {
		return s, false
	}

	s.SDTHeader, _ = DecodeSDTHeader(b)
	s.TableRevision = binary.LittleEndian.Uint32(b[36:40])
	return s, true
}

// SRATEntryType describes the type of a SRAT record.
type SRATEntryType uint8

// The list of SRAT entry types.
const (
	SRATEntryTypeProcessorAffinity SRATEntryType = iota
	SRATEntryTypeMemoryAffinity
	SRATEntryTypeX2APICAffinity
	SRATEntryTypeGICCAffinity
	SRATEntryTypeGICITSAffinity
	SRATEntryTypeGenericInitiatorAffinity
)

// Affinity record flags.
const (
	// The record is valid; disabled records must be ignored.
	AffinityEnabled uint32 = 1 << 0

	// Memory range may be hot-plugged (memory affinity only).
	MemoryHotPluggable uint32 = 1 << 1

	// Memory range is non-volatile (memory affinity only).
	MemoryNonVolatile uint32 = 1 << 2
)

// SRATEntryProcessorAffinity associates a local APIC with a proximity domain.
type SRATEntryProcessorAffinity struct {
	// ProximityDomain is assembled from the low byte stored at offset 2
	// and the three high bytes stored at offset 9.
	ProximityDomain uint32
	APICID          uint8
	Flags           uint32
	LocalSAPICEID   uint8
	ClockDomain     uint32
}

// DecodeProcessorAffinity decodes a SRAT processor local APIC affinity record
// (including its EntryHeader) from b.
func DecodeProcessorAffinity(b []byte) (SRATEntryProcessorAffinity, bool) {
	if len(b) < SizeofSRATProcessorAffinity {
		return SRATEntryProcessorAffinity{}, false
	}

	return SRATEntryProcessorAffinity{
		ProximityDomain: uint32(b[2]) | uint32(b[9])<<8 | uint32(b[10])<<16 | uint32(b[11])<<24,
		APICID:          b[3],
		Flags:           binary.LittleEndian.Uint32(b[4:8]),
		LocalSAPICEID:   b[8],
		ClockDomain:     binary.LittleEndian.Uint32(b[12:16]),
	}, true
}

// SRATEntryMemoryAffinity associates a physical memory range with a proximity
// domain.
type SRATEntryMemoryAffinity struct {
	ProximityDomain uint32
	BaseAddress     uint64
	Length          uint64
	Flags           uint32
}

// DecodeMemoryAffinity decodes a SRAT memory affinity record (including its
// EntryHeader) from b.
func DecodeMemoryAffinity(b []byte) (SRATEntryMemoryAffinity, bool) {
	if len(b) < SizeofSRATMemoryAffinity {
		return SRATEntryMemoryAffinity{}, false
	}

	return SRATEntryMemoryAffinity{
		ProximityDomain: binary.LittleEndian.Uint32(b[2:6]),
		BaseAddress:     uint64(binary.LittleEndian.Uint32(b[8:12])) | uint64(binary.LittleEndian.Uint32(b[12:16]))<<32,
		Length:          uint64(binary.LittleEndian.Uint32(b[16:20])) | uint64(binary.LittleEndian.Uint32(b[20:24]))<<32,
		Flags:           binary.LittleEndian.Uint32(b[28:32]),
	}, true
}

// SRATEntryX2APICAffinity associates a processor whose local controller
// operates in x2APIC mode with a proximity domain.
type SRATEntryX2APICAffinity struct {
	ProximityDomain uint32
	X2APICID        uint32
	Flags           uint32
	ClockDomain     uint32
}

// DecodeX2APICAffinity decodes a SRAT processor local x2APIC affinity record
// (including its EntryHeader) from b.
func DecodeX2APICAffinity(b []byte) (SRATEntryX2APICAffinity, bool) {
	if len(b) < SizeofSRATX2APICAffinity {
		return SRATEntryX2APICAffinity{}, false
	}

	return SRATEntryX2APICAffinity{
		ProximityDomain: binary.LittleEndian.Uint32(b[4:8]),
		X2APICID:        binary.LittleEndian.Uint32(b[8:12]),
		Flags:           binary.LittleEndian.Uint32(b[12:16]),
		ClockDomain:     binary.LittleEndian.Uint32(b[16:20]),
	}, true
}
