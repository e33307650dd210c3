package acpitest

import (
	"encoding/binary"
	"gophersmp/kernel/phys"
)

// Physical memory layout of the synthetic firmware image.
const (
	// EBDAPointerAddr holds the real-mode segment of the EBDA.
	EBDAPointerAddr = 0x40e

	// EBDAAddr is the physical address of the extended BIOS data area.
	EBDAAddr = 0x9fc00
	EBDASize = 1024

	// BIOSAreaAddr is the start of the read-only BIOS area scanned for the
	// RSDP.
	BIOSAreaAddr = 0xe0000
	BIOSAreaSize = 0x20000

	// TableAreaAddr is where tables added via AddTable are placed.
	TableAreaAddr = 0x7fe0000
)

// Firmware is a synthetic physical memory image containing the BIOS data
// area, an EBDA, the BIOS read-only area and a region holding ACPI tables.
type Firmware struct {
	Mem phys.Image

	// Backing slices for the fixed memory regions; tests may poke them
	// directly.
	LowMem []byte
	EBDA   []byte
	BIOS   []byte

	nextTable uintptr
}

// NewFirmware returns an image with zeroed low memory, EBDA and BIOS areas.
// The BIOS data area points to the EBDA.
func NewFirmware() *Firmware {
	f := &Firmware{
		LowMem:    make([]byte, 0x1000),
		EBDA:      make([]byte, EBDASize),
		BIOS:      make([]byte, BIOSAreaSize),
		nextTable: TableAreaAddr,
	}

	binary.LittleEndian.PutUint16(f.LowMem[EBDAPointerAddr:], uint16(EBDAAddr>>4))
	f.Mem.Map(0, f.LowMem)
	f.Mem.Map(EBDAAddr, f.EBDA)
	f.Mem.Map(BIOSAreaAddr, f.BIOS)
	return f
}

// AddTable maps data at the next free 16-byte aligned address of the table
// area and returns its physical address.
func (f *Firmware) AddTable(data []byte) uintptr {
	addr := f.nextTable
	f.Mem.Map(addr, data)
	f.nextTable = (addr + uintptr(len(data)) + 15) &^ 15
	return addr
}

// PutBIOS copies data into the BIOS area at the supplied offset.
func (f *Firmware) PutBIOS(offset int, data []byte) {
	copy(f.BIOS[offset:], data)
}

// PutEBDA copies data into the EBDA at the supplied offset.
func (f *Firmware) PutEBDA(offset int, data []byte) {
	copy(f.EBDA[offset:], data)
}

// Install adds the supplied tables, an RSDT pointing to them and an ACPI 1.0
// RSDP at offset rsdpOffset of the BIOS area. It returns the RSDT address.
func (f *Firmware) Install(rsdpOffset int, tables ...[]byte) uintptr {
	addrs := make([]uint32, len(tables))
	for i, t := range tables {
		addrs[i] = uint32(f.AddTable(t))
	}

	rsdtAddr := f.AddTable(RSDT(addrs...))
	f.PutBIOS(rsdpOffset, RSDP(uint32(rsdtAddr)))
	return rsdtAddr
}

// InstallExt behaves like Install but publishes an XSDT through an ACPI 2.0+
// RSDP. It returns the XSDT address.
func (f *Firmware) InstallExt(rsdpOffset int, tables ...[]byte) uintptr {
	addrs := make([]uint64, len(tables))
	for i, t := range tables {
		addrs[i] = uint64(f.AddTable(t))
	}

	xsdtAddr := f.AddTable(XSDT(addrs...))
	f.PutBIOS(rsdpOffset, ExtRSDP(0, uint64(xsdtAddr)))
	return xsdtAddr
}
