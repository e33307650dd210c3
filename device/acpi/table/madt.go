package table

import "encoding/binary"

// MADT (Multiple APIC Description Table) is an ACPI table containing
// information about the interrupt controllers and the installed CPUs.
// Following the fixed fields are a series of variable sized records, each one
// starting with an EntryHeader.
type MADT struct {
	SDTHeader

	LocalControllerAddress uint32
	Flags                  uint32
}

// DecodeMADT decodes the fixed part of a MADT (including its header) from b.
func DecodeMADT(b []byte) (MADT, bool) {
	var m MADT
	if len(b) < SizeofMADT {
		return m, false
	}

	m.SDTHeader, _ = DecodeSDTHeader(b)
	m.LocalControllerAddress = binary.LittleEndian.Uint32(b[36:40])
	m.Flags = binary.LittleEndian.Uint32(b[40:44])
	return m, true
}

// MADTEntryType describes the type of a MADT record.
type MADTEntryType uint8

// The list of MADT entry types. Only the processor and local controller
// address records are decoded; the others are listed for diagnostics.
const (
	MADTEntryTypeLocalAPIC MADTEntryType = iota
	MADTEntryTypeIOAPIC
	MADTEntryTypeIntSrcOverride
	MADTEntryTypeNMISource
	MADTEntryTypeLocalAPICNMI
	MADTEntryTypeLocalAPICAddrOverride
	MADTEntryTypeIOSAPIC
	MADTEntryTypeLocalSAPIC
	MADTEntryTypePlatformIntSrc
	MADTEntryTypeLocalX2APIC
)

// Processor flags shared by the local APIC and local x2APIC records.
const (
	// The processor is ready for use.
	ProcessorEnabled uint32 = 1 << 0

	// The processor is disabled but can be enabled by the OS at runtime.
	ProcessorOnlineCapable uint32 = 1 << 1
)

// MADTEntryLocalAPIC describes a single physical processor and its local
// interrupt controller.
type MADTEntryLocalAPIC struct {
	ProcessorID uint8
	APICID      uint8
	Flags       uint32
}

// DecodeLocalAPIC decodes a MADT processor local APIC record (including its
// EntryHeader) from b.
func DecodeLocalAPIC(b []byte) (MADTEntryLocalAPIC, bool) {
	if len(b) < SizeofMADTLocalAPIC {
		return MADTEntryLocalAPIC{}, false
	}

	return MADTEntryLocalAPIC{
		ProcessorID: b[2],
		APICID:      b[3],
		Flags:       binary.LittleEndian.Uint32(b[4:8]),
	}, true
}

// MADTEntryLocalX2APIC describes a processor whose local controller operates
// in x2APIC mode. It is used for processors with APIC IDs above 254.
type MADTEntryLocalX2APIC struct {
	X2APICID     uint32
	Flags        uint32
	ProcessorUID uint32
}

// DecodeLocalX2APIC decodes a MADT processor local x2APIC record (including
// its EntryHeader) from b.
func DecodeLocalX2APIC(b []byte) (MADTEntryLocalX2APIC, bool) {
	if len(b) < SizeofMADTLocalX2APIC {
		return MADTEntryLocalX2APIC{}, false
	}

	return MADTEntryLocalX2APIC{
		X2APICID:     binary.LittleEndian.Uint32(b[4:8]),
		Flags:        binary.LittleEndian.Uint32(b[8:12]),
		ProcessorUID: binary.LittleEndian.Uint32(b[12:16]),
	}, true
}

// MADTEntryLocalAPICAddrOverride provides the 64-bit physical address of the
// local APIC, superseding MADT.LocalControllerAddress.
type MADTEntryLocalAPICAddrOverride struct {
	Address uint64
}

// DecodeLocalAPICAddrOverride decodes a MADT local APIC address override
// record (including its EntryHeader) from b.
func DecodeLocalAPICAddrOverride(b []byte) (MADTEntryLocalAPICAddrOverride, bool) {
	if len(b) < SizeofMADTLocalAPICAddrOvr {
		return MADTEntryLocalAPICAddrOverride{}, false
	}

	return MADTEntryLocalAPICAddrOverride{
		Address: binary.LittleEndian.Uint64(b[4:12]),
	}, true
}
