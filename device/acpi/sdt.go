package acpi

import (
	"gophersmp/device/acpi/table"
	"gophersmp/kernel"
	"gophersmp/kernel/kfmt"
	"gophersmp/kernel/phys"
	"io"
)

// ParseTable reads the header of the ACPI table at physical address tableAddr
// and verifies the checksum of the entire table. It returns a copy of the
// header together with the address and length of the payload that follows
// it. Any validation failure is reported to w, naming the table signature.
func ParseTable(r phys.Reader, w io.Writer, tableAddr uintptr) (table.SDTHeader, uintptr, uint32, *kernel.Error) {
	var buf [table.SizeofSDTHeader]byte

	if err := r.ReadPhys(tableAddr, buf[:]); err != nil {
		return table.SDTHeader{}, 0, 0, err
	}

	header, _ := table.DecodeSDTHeader(buf[:])
	if header.Length < table.SizeofSDTHeader {
		kfmt.Fprintf(w, "%s at 0x%16x: length %d is smaller than the table header\n", header.Signature[:], tableAddr, header.Length)
		return header, 0, 0, errTableLengthUnderflow
	}

	sum, err := phys.Checksum(r, tableAddr, header.Length)
	if err != nil {
		return header, 0, 0, err
	}

	if sum != 0 {
		kfmt.Fprintf(w, "%s at 0x%16x: checksum mismatch\n", header.Signature[:], tableAddr)
		return header, 0, 0, errTableChecksumMismatch
	}

	return header, tableAddr + table.SizeofSDTHeader, header.Length - table.SizeofSDTHeader, nil
}

// walkEntries iterates the variable sized records stored in the length bytes
// starting at addr and invokes visit for each one. Each record declares its
// own length; records of unknown type are skipped using that length. The
// records must exactly cover the region.
func walkEntries(r phys.Reader, addr uintptr, length uint32, visit func(entryType uint8, entry []byte) *kernel.Error) *kernel.Error {
	// The record length field is a byte so this buffer fits any record.
	var buf [256]byte

	for offset := uint32(0); offset < length; {
		if length-offset < table.SizeofEntryHeader {
			return errMalformedEntry
		}

		if err := r.ReadPhys(addr+uintptr(offset), buf[:table.SizeofEntryHeader]); err != nil {
			return err
		}

		hdr, _ := table.DecodeEntryHeader(buf[:])
		if hdr.Length < table.SizeofEntryHeader || uint32(hdr.Length) > length-offset {
			return errMalformedEntry
		}

		if err := r.ReadPhys(addr+uintptr(offset), buf[:hdr.Length]); err != nil {
			return err
		}

		if err := visit(hdr.Type, buf[:hdr.Length]); err != nil {
			return err
		}

		offset += uint32(hdr.Length)
	}

	return nil
}
