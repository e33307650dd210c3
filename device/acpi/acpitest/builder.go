// Package acpitest assembles synthetic ACPI firmware images. The images are
// byte-exact renditions of what firmware leaves in physical memory and are
// used to exercise the ACPI discovery code without real hardware.
package acpitest

import (
	"bytes"
	"encoding/binary"
	"gophersmp/device/acpi/table"
)

// FixChecksum stores at b[offset] the value that makes the unsigned byte sum
// of b equal to zero.
func FixChecksum(b []byte, offset int) {
	b[offset] = 0
	var sum uint8
	for _, v := range b {
		sum += v
	}
	b[offset] = -sum
}

// RSDP returns an ACPI 1.0 root system descriptor pointer.
func RSDP(rsdtAddr uint32) []byte {
	b := make([]byte, table.SizeofRSDP)
	copy(b[0:], "RSD PTR ")
	copy(b[9:], "GOPHER")
	b[15] = 0
	binary.LittleEndian.PutUint32(b[16:], rsdtAddr)
	FixChecksum(b, 8)
	return b
}

// ExtRSDP returns an ACPI 2.0+ root system descriptor pointer. Both the ACPI
// 1.0 checksum and the extended checksum are valid.
func ExtRSDP(rsdtAddr uint32, xsdtAddr uint64) []byte {
	b := make([]byte, table.SizeofExtRSDP)
	copy(b[0:], "RSD PTR ")
	copy(b[9:], "GOPHER")
	b[15] = 2
	binary.LittleEndian.PutUint32(b[16:], rsdtAddr)
	binary.LittleEndian.PutUint32(b[20:], table.SizeofExtRSDP)
	binary.LittleEndian.PutUint64(b[24:], xsdtAddr)

	FixChecksum(b[:table.SizeofRSDP], 8)
	FixChecksum(b, 32)
	return b
}

// SDT returns a table with a standard header, the supplied signature and
// payload, a correct length and a valid checksum.
func SDT(signature string, revision uint8, payload []byte) []byte {
	buf := &bytes.Buffer{}

	var sig [4]byte
	copy(sig[:], signature)
	buf.Write(sig[:])
	binary.Write(buf, binary.LittleEndian, uint32(table.SizeofSDTHeader+len(payload)))
	buf.WriteByte(revision)
	buf.WriteByte(0) // checksum
	buf.WriteString("GOPHER")
	buf.WriteString("SMPTEST ")
	binary.Write(buf, binary.LittleEndian, uint32(1))          // OEM revision
	binary.Write(buf, binary.LittleEndian, uint32(0x52484f47)) // creator id: "GOHR"
	binary.Write(buf, binary.LittleEndian, uint32(1))          // creator revision
	buf.Write(payload)

	b := buf.Bytes()
	FixChecksum(b, 9)
	return b
}

// RSDT returns a root system descriptor table pointing to the supplied
// 32-bit table addresses.
func RSDT(addrs ...uint32) []byte {
	payload := make([]byte, 4*len(addrs))
	for i, addr := range addrs {
		binary.LittleEndian.PutUint32(payload[4*i:], addr)
	}
	return SDT("RSDT", 1, payload)
}

// XSDT returns an extended system descriptor table pointing to the supplied
// 64-bit table addresses.
func XSDT(addrs ...uint64) []byte {
	payload := make([]byte, 8*len(addrs))
	for i, addr := range addrs {
		binary.LittleEndian.PutUint64(payload[8*i:], addr)
	}
	return SDT("XSDT", 1, payload)
}

// MADT returns a multiple APIC description table with the supplied local APIC
// address followed by the supplied records.
func MADT(lapicAddr uint32, entries ...[]byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, lapicAddr)
	binary.Write(buf, binary.LittleEndian, uint32(1)) // PC-AT compatible
	for _, entry := range entries {
		buf.Write(entry)
	}
	return SDT("APIC", 4, buf.Bytes())
}

// LocalAPIC returns a MADT processor local APIC record.
func LocalAPIC(processorID, apicID uint8, flags uint32) []byte {
	b := []byte{byte(table.MADTEntryTypeLocalAPIC), table.SizeofMADTLocalAPIC, processorID, apicID, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(b[4:], flags)
	return b
}

// LocalX2APIC returns a MADT processor local x2APIC record.
func LocalX2APIC(x2apicID, flags, processorUID uint32) []byte {
	b := make([]byte, table.SizeofMADTLocalX2APIC)
	b[0], b[1] = byte(table.MADTEntryTypeLocalX2APIC), table.SizeofMADTLocalX2APIC
	binary.LittleEndian.PutUint32(b[4:], x2apicID)
	binary.LittleEndian.PutUint32(b[8:], flags)
	binary.LittleEndian.PutUint32(b[12:], processorUID)
	return b
}

// IOAPIC returns a MADT I/O APIC record.
func IOAPIC(id uint8, addr, gsiBase uint32) []byte {
	b := []byte{byte(table.MADTEntryTypeIOAPIC), 12, id, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(b[4:], addr)
	binary.LittleEndian.PutUint32(b[8:], gsiBase)
	return b
}

// LocalAPICAddrOverride returns a MADT local APIC address override record.
func LocalAPICAddrOverride(addr uint64) []byte {
	b := make([]byte, table.SizeofMADTLocalAPICAddrOvr)
	b[0], b[1] = byte(table.MADTEntryTypeLocalAPICAddrOverride), table.SizeofMADTLocalAPICAddrOvr
	binary.LittleEndian.PutUint64(b[4:], addr)
	return b
}

// SRAT returns a system resource affinity table containing the supplied
// records.
func SRAT(entries ...[]byte) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint32(1)) // table revision
	buf.Write(make([]byte, 8))                        // reserved
	for _, entry := range entries {
		buf.Write(entry)
	}
	return SDT("SRAT", 3, buf.Bytes())
}

// ProcessorAffinity returns a SRAT processor local APIC affinity record.
func ProcessorAffinity(apicID uint8, domain, flags uint32) []byte {
	b := make([]byte, table.SizeofSRATProcessorAffinity)
	b[0], b[1] = byte(table.SRATEntryTypeProcessorAffinity), table.SizeofSRATProcessorAffinity
	b[2] = byte(domain)
	b[3] = apicID
	binary.LittleEndian.PutUint32(b[4:], flags)
	b[9], b[10], b[11] = byte(domain>>8), byte(domain>>16), byte(domain>>24)
	return b
}

// MemoryAffinity returns a SRAT memory affinity record.
func MemoryAffinity(base, length uint64, domain, flags uint32) []byte {
	b := make([]byte, table.SizeofSRATMemoryAffinity)
	b[0], b[1] = byte(table.SRATEntryTypeMemoryAffinity), table.SizeofSRATMemoryAffinity
	binary.LittleEndian.PutUint32(b[2:], domain)
	binary.LittleEndian.PutUint32(b[8:], uint32(base))
	binary.LittleEndian.PutUint32(b[12:], uint32(base>>32))
	binary.LittleEndian.PutUint32(b[16:], uint32(length))
	binary.LittleEndian.PutUint32(b[20:], uint32(length>>32))
	binary.LittleEndian.PutUint32(b[28:], flags)
	return b
}

// X2APICAffinity returns a SRAT processor local x2APIC affinity record.
func X2APICAffinity(x2apicID, domain, flags uint32) []byte {
	b := make([]byte, table.SizeofSRATX2APICAffinity)
	b[0], b[1] = byte(table.SRATEntryTypeX2APICAffinity), table.SizeofSRATX2APICAffinity
	binary.LittleEndian.PutUint32(b[4:], domain)
	binary.LittleEndian.PutUint32(b[8:], x2apicID)
	binary.LittleEndian.PutUint32(b[12:], flags)
	return b
}
