package acpi

import (
	"gophersmp/device/acpi/table"
	"gophersmp/kernel"
	"gophersmp/kernel/kfmt"
	"gophersmp/kernel/phys"
	"io"
)

// ParseSRAT validates the SRAT at tableAddr and appends the processor and
// memory affinity records it contains to topo. Disabled records are ignored.
func ParseSRAT(r phys.Reader, w io.Writer, tableAddr uintptr, topo *Topology) *kernel.Error {
	header, payloadAddr, payloadLen, err := ParseTable(r, w, tableAddr)
	if err != nil {
		return err
	}

	const sizeofFixedFields = table.SizeofSRAT - table.SizeofSDTHeader
	if payloadLen < sizeofFixedFields {
		kfmt.Fprintf(w, "%s at 0x%16x: table too short\n", header.Signature[:], tableAddr)
		return errTableTooShort
	}

	topo.HasSRAT = true

	return walkEntries(r, payloadAddr+sizeofFixedFields, payloadLen-sizeofFixedFields, func(entryType uint8, entry []byte) *kernel.Error {
		switch table.SRATEntryType(entryType) {
		case table.SRATEntryTypeProcessorAffinity:
			pa, ok := table.DecodeProcessorAffinity(entry)
			if !ok {
				return errEntryTooShort
			}

			if pa.Flags&table.AffinityEnabled != 0 {
				topo.Processors = append(topo.Processors, ProcessorAffinity{
					APICID: uint32(pa.APICID),
					Domain: pa.ProximityDomain,
				})
			}
		case table.SRATEntryTypeX2APICAffinity:
			xa, ok := table.DecodeX2APICAffinity(entry)
			if !ok {
				return errEntryTooShort
			}

			if xa.Flags&table.AffinityEnabled != 0 {
				topo.Processors = append(topo.Processors, ProcessorAffinity{
					APICID: xa.X2APICID,
					Domain: xa.ProximityDomain,
				})
			}
		case table.SRATEntryTypeMemoryAffinity:
			ma, ok := table.DecodeMemoryAffinity(entry)
			if !ok {
				return errEntryTooShort
			}

			if ma.Flags&table.AffinityEnabled != 0 {
				topo.Memory = append(topo.Memory, MemoryAffinity{
					Base:         ma.BaseAddress,
					Length:       ma.Length,
					Domain:       ma.ProximityDomain,
					HotPluggable: ma.Flags&table.MemoryHotPluggable != 0,
					NonVolatile:  ma.Flags&table.MemoryNonVolatile != 0,
				})
			}
		}

		return nil
	})
}
