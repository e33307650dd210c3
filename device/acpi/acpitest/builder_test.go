package acpitest

import (
	"gophersmp/device/acpi/table"
	"gophersmp/kernel/phys"
	"testing"
)

func sum(b []byte) uint8 {
	var s uint8
	for _, v := range b {
		s += v
	}
	return s
}

func TestBuiltTablesHaveValidChecksums(t *testing.T) {
	specs := map[string][]byte{
		"RSDT": RSDT(0x1000, 0x2000),
		"XSDT": XSDT(0x1000),
		"MADT": MADT(0xfee00000, LocalAPIC(0, 0, 1), IOAPIC(1, 0xfec00000, 0)),
		"SRAT": SRAT(ProcessorAffinity(0, 0, 1), MemoryAffinity(0, 1<<30, 0, 1)),
		"RSDP": RSDP(0x1000),
	}

	for name, b := range specs {
		if s := sum(b); s != 0 {
			t.Errorf("[%s] expected byte sum 0; got 0x%x", name, s)
		}
	}

	ext := ExtRSDP(0x1000, 0x2000)
	if s := sum(ext[:table.SizeofRSDP]); s != 0 {
		t.Errorf("expected ACPI 1.0 part of extended RSDP to sum to 0; got 0x%x", s)
	}
	if s := sum(ext); s != 0 {
		t.Errorf("expected extended RSDP to sum to 0; got 0x%x", s)
	}
}

func TestSDTHeaderLength(t *testing.T) {
	b := SDT("FACP", 1, make([]byte, 10))
	h, ok := table.DecodeSDTHeader(b)
	if !ok {
		t.Fatal("expected header decode to succeed")
	}

	if exp := uint32(table.SizeofSDTHeader + 10); h.Length != exp || int(h.Length) != len(b) {
		t.Fatalf("expected length %d; got %d (buffer %d)", exp, h.Length, len(b))
	}
}

func TestFirmwareLayout(t *testing.T) {
	f := NewFirmware()

	seg, err := phys.ReadUint16(&f.Mem, EBDAPointerAddr)
	if err != nil || uintptr(seg)<<4 != EBDAAddr {
		t.Fatalf("expected EBDA pointer to reference 0x%x; got 0x%x (err %v)", EBDAAddr, uintptr(seg)<<4, err)
	}

	a1 := f.AddTable(make([]byte, 17))
	a2 := f.AddTable(make([]byte, 4))
	if a1 != TableAreaAddr || a2 != TableAreaAddr+32 {
		t.Fatalf("expected 16-byte aligned placement; got 0x%x, 0x%x", a1, a2)
	}

	rsdtAddr := f.Install(0x10, SDT("FACP", 1, nil))
	rsdp, _ := table.DecodeRSDP(f.BIOS[0x10:])
	if uintptr(rsdp.RSDTAddr) != rsdtAddr {
		t.Fatalf("expected RSDP to point to 0x%x; got 0x%x", rsdtAddr, rsdp.RSDTAddr)
	}
}
