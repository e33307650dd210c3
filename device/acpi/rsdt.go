package acpi

import (
	"gophersmp/kernel"
	"gophersmp/kernel/kfmt"
	"gophersmp/kernel/phys"
	"io"
)

var (
	rsdtSignature = [4]byte{'R', 'S', 'D', 'T'}
	xsdtSignature = [4]byte{'X', 'S', 'D', 'T'}
	madtSignature = [4]byte{'A', 'P', 'I', 'C'}
	sratSignature = [4]byte{'S', 'R', 'A', 'T'}
)

// WalkRoot validates the root table at rootAddr (an XSDT with 64-bit entries
// if extended is set; an RSDT with 32-bit entries otherwise) and dispatches
// each table it references based on its signature. The MADT and SRAT are
// parsed into the returned Topology; all other tables are ignored. Only the
// signature of ignored tables is read.
func WalkRoot(r phys.Reader, w io.Writer, rootAddr uintptr, extended bool) (*Topology, *kernel.Error) {
	header, payloadAddr, payloadLen, err := ParseTable(r, w, rootAddr)
	if err != nil {
		return nil, err
	}

	var (
		expSignature = rsdtSignature
		entrySize    = uint32(4)
	)

	if extended {
		expSignature, entrySize = xsdtSignature, 8
	}

	if header.Signature != expSignature {
		kfmt.Fprintf(w, "expected root table %s at 0x%16x; found %s\n", expSignature[:], rootAddr, header.Signature[:])
		return nil, errBadRootSignature
	}

	if payloadLen%entrySize != 0 {
		kfmt.Fprintf(w, "%s at 0x%16x: payload length %d is not a multiple of %d\n", header.Signature[:], rootAddr, payloadLen, entrySize)
		return nil, errRootTableSize
	}

	var (
		topo                 = &Topology{}
		foundMADT, foundSRAT bool
		signature            [4]byte
		tableAddr            uintptr
	)

	for entryAddr := payloadAddr; entryAddr < payloadAddr+uintptr(payloadLen); entryAddr += uintptr(entrySize) {
		if extended {
			addr, err := phys.ReadUint64(r, entryAddr)
			if err != nil {
				return nil, err
			}
			tableAddr = uintptr(addr)
		} else {
			addr, err := phys.ReadUint32(r, entryAddr)
			if err != nil {
				return nil, err
			}
			tableAddr = uintptr(addr)
		}

		if err = r.ReadPhys(tableAddr, signature[:]); err != nil {
			return nil, err
		}

		kfmt.Fprintf(w, "%s at 0x%16x\n", signature[:], tableAddr)

		switch signature {
		case madtSignature:
			if foundMADT {
				return nil, errDuplicateMADT
			}
			foundMADT = true

			if err = ParseMADT(r, w, tableAddr, topo); err != nil {
				return nil, err
			}
		case sratSignature:
			if foundSRAT {
				return nil, errDuplicateSRAT
			}
			foundSRAT = true

			if err = ParseSRAT(r, w, tableAddr, topo); err != nil {
				return nil, err
			}
		}
	}

	return topo, nil
}

// Discover locates the root system description pointer, walks the root table
// it points to and returns the processor and NUMA topology reported by the
// firmware.
func Discover(r phys.Reader, w io.Writer) (*Topology, *kernel.Error) {
	rp, err := LocateRSDP(r)
	if err != nil {
		return nil, err
	}

	rootAddr, extended := rp.RootTable()
	return WalkRoot(r, w, rootAddr, extended)
}
