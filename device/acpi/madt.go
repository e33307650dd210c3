package acpi

import (
	"gophersmp/device/acpi/table"
	"gophersmp/kernel"
	"gophersmp/kernel/kfmt"
	"gophersmp/kernel/phys"
	"gophersmp/kernel/smp"
	"io"
)

// ParseMADT validates the MADT at tableAddr and appends the enabled
// processors it lists to topo. Processor records whose enabled flag is clear
// describe cores that are either unusable or hot-pluggable and are ignored.
func ParseMADT(r phys.Reader, w io.Writer, tableAddr uintptr, topo *Topology) *kernel.Error {
	header, payloadAddr, payloadLen, err := ParseTable(r, w, tableAddr)
	if err != nil {
		return err
	}

	const sizeofFixedFields = table.SizeofMADT - table.SizeofSDTHeader
	if payloadLen < sizeofFixedFields {
		kfmt.Fprintf(w, "%s at 0x%16x: table too short\n", header.Signature[:], tableAddr)
		return errTableTooShort
	}

	var buf [table.SizeofMADT]byte
	if err = r.ReadPhys(tableAddr, buf[:]); err != nil {
		return err
	}
	madt, _ := table.DecodeMADT(buf[:])
	topo.LocalAPICAddr = uint64(madt.LocalControllerAddress)

	return walkEntries(r, payloadAddr+sizeofFixedFields, payloadLen-sizeofFixedFields, func(entryType uint8, entry []byte) *kernel.Error {
		switch table.MADTEntryType(entryType) {
		case table.MADTEntryTypeLocalAPIC:
			lapic, ok := table.DecodeLocalAPIC(entry)
			if !ok {
				return errEntryTooShort
			}

			if lapic.Flags&table.ProcessorEnabled != 0 {
				topo.addProcessor(uint32(lapic.APICID))
			}
		case table.MADTEntryTypeLocalX2APIC:
			x2apic, ok := table.DecodeLocalX2APIC(entry)
			if !ok {
				return errEntryTooShort
			}

			if x2apic.Flags&table.ProcessorEnabled == 0 {
				break
			}

			if x2apic.X2APICID >= smp.MaxCores {
				kfmt.Fprintf(w, "ignoring processor with x2APIC ID %d; max supported ID is %d\n", x2apic.X2APICID, smp.MaxCores-1)
				break
			}

			topo.addProcessor(x2apic.X2APICID)
		case table.MADTEntryTypeLocalAPICAddrOverride:
			ovr, ok := table.DecodeLocalAPICAddrOverride(entry)
			if !ok {
				return errEntryTooShort
			}

			topo.LocalAPICAddr = ovr.Address
		}

		return nil
	})
}
