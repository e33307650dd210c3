package acpi

import (
	"gophersmp/device/acpi/table"
	"gophersmp/kernel"
	"gophersmp/kernel/phys"
)

var (
	// The real-mode segment of the extended BIOS data area is stored at
	// this address. The first KiB of the EBDA is scanned for the RSDP.
	ebdaPointerAddr uintptr = 0x40e
	ebdaScanSize    uintptr = 1024

	// The RSDP may also be located in the BIOS read-only memory region
	// 0xe0000 to 0xfffff.
	rsdpLocationLow uintptr = 0xe0000
	rsdpLocationHi  uintptr = 0xfffff
	rsdpAlignment   uintptr = 16

	rsdpSignature = [8]byte{'R', 'S', 'D', ' ', 'P', 'T', 'R', ' '}
)

// RootPointer contains the information extracted from a validated root system
// description pointer.
type RootPointer struct {
	// Physical address where the RSDP was found.
	Addr uintptr

	Revision uint8
	OEMID    [6]byte

	// Physical address of the 32-bit RSDT.
	RSDTAddr uintptr

	// Physical address of the 64-bit XSDT. Only set for revision 1+
	// descriptors.
	XSDTAddr uintptr
}

// RootTable returns the address of the root table that should be walked and
// whether it is an XSDT (64-bit entries) or an RSDT (32-bit entries). The XSDT
// is preferred when the firmware provides one.
func (rp RootPointer) RootTable() (uintptr, bool) {
	if rp.XSDTAddr != 0 {
		return rp.XSDTAddr, true
	}
	return rp.RSDTAddr, false
}

// LocateRSDP scans the first KiB of the extended BIOS data area and then the
// memory region [rsdpLocationLow, rsdpLocationHi] looking for a root system
// descriptor pointer with a valid signature and checksum. Candidates are only
// considered at rsdpAlignment boundaries. The first valid descriptor wins.
func LocateRSDP(r phys.Reader) (RootPointer, *kernel.Error) {
	ebdaSeg, err := phys.ReadUint16(r, ebdaPointerAddr)
	if err != nil {
		return RootPointer{}, err
	}

	// A zero segment means that the firmware did not set up an EBDA.
	if ebdaAddr := uintptr(ebdaSeg) << 4; ebdaAddr != 0 {
		if rp, found := scanForRSDP(r, ebdaAddr, ebdaAddr+ebdaScanSize); found {
			return rp, nil
		}
	}

	if rp, found := scanForRSDP(r, rsdpLocationLow, rsdpLocationHi+1); found {
		return rp, nil
	}

	return RootPointer{}, errMissingRSDP
}

// DecodeRootPointer validates a copy of a root system description pointer,
// such as the one supplied by the boot loader, and extracts the root table
// addresses from it. The Addr field of the returned value is not set.
func DecodeRootPointer(b []byte) (RootPointer, *kernel.Error) {
	rsdp, ok := table.DecodeRSDP(b)
	if !ok || rsdp.Signature != rsdpSignature || !validChecksum(b[:table.SizeofRSDP]) {
		return RootPointer{}, errInvalidRSDP
	}

	rp := RootPointer{
		Revision: rsdp.Revision,
		OEMID:    rsdp.OEMID,
		RSDTAddr: uintptr(rsdp.RSDTAddr),
	}

	if rsdp.Revision == 0 {
		return rp, nil
	}

	ext, ok := table.DecodeExtRSDP(b)
	if !ok || !validChecksum(b[:table.SizeofExtRSDP]) {
		return RootPointer{}, errInvalidRSDP
	}

	rp.XSDTAddr = uintptr(ext.XSDTAddr)
	return rp, nil
}

// scanForRSDP looks for a valid RSDP in the physical memory window [low, hi).
// The scan stops at the first candidate whose descriptor would extend past
// the end of the window.
func scanForRSDP(r phys.Reader, low, hi uintptr) (RootPointer, bool) {
	var buf [table.SizeofExtRSDP]byte

	// Round the window start up to the next aligned address
	start := (low + rsdpAlignment - 1) &^ (rsdpAlignment - 1)

	for curPtr := start; curPtr+table.SizeofRSDP <= hi; curPtr += rsdpAlignment {
		if r.ReadPhys(curPtr, buf[:table.SizeofRSDP]) != nil {
			return RootPointer{}, false
		}

		rsdp, _ := table.DecodeRSDP(buf[:])
		if rsdp.Signature != rsdpSignature || !validChecksum(buf[:table.SizeofRSDP]) {
			continue
		}

		rp := RootPointer{
			Addr:     curPtr,
			Revision: rsdp.Revision,
			OEMID:    rsdp.OEMID,
			RSDTAddr: uintptr(rsdp.RSDTAddr),
		}

		if rsdp.Revision == 0 {
			return rp, true
		}

		// Systems using ACPI revision > 1 provide an extended RSDP
		// which can be accessed at the same place.
		if curPtr+table.SizeofExtRSDP > hi {
			return RootPointer{}, false
		}

		if r.ReadPhys(curPtr, buf[:]) != nil {
			return RootPointer{}, false
		}

		if !validChecksum(buf[:]) {
			continue
		}

		rsdp2, _ := table.DecodeExtRSDP(buf[:])
		rp.XSDTAddr = uintptr(rsdp2.XSDTAddr)
		return rp, true
	}

	return RootPointer{}, false
}

// validChecksum returns true if the unsigned byte sum of b is zero.
func validChecksum(b []byte) bool {
	var sum uint8
	for _, v := range b {
		sum += v
	}

	return sum == 0
}
