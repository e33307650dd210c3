package acpi

import (
	"bytes"
	"gophersmp/device"
	"gophersmp/device/acpi/acpitest"
	"gophersmp/device/acpi/table"
	"strings"
	"testing"
)

func mockFirmware(t *testing.T, bootloaderRSDP []byte) *acpitest.Firmware {
	t.Helper()

	origMem, origRSDPFn := physMem, bootloaderRSDPFn
	t.Cleanup(func() {
		physMem, bootloaderRSDPFn = origMem, origRSDPFn
	})

	fw := acpitest.NewFirmware()
	physMem = &fw.Mem
	bootloaderRSDPFn = func() []byte { return bootloaderRSDP }
	return fw
}

func TestProbe(t *testing.T) {
	fw := mockFirmware(t, nil)

	if drv := probeForACPI(); drv != nil {
		t.Fatalf("expected probe to fail without an RSDP; got %v", drv)
	}

	fw.InstallExt(0x100, testMADT())

	drv := probeForACPI()
	if drv == nil {
		t.Fatal("expected probe to succeed")
	}

	if exp := "ACPI"; drv.DriverName() != exp {
		t.Errorf("expected driver name %q; got %q", exp, drv.DriverName())
	}

	if major, minor, patch := drv.DriverVersion(); major != 0 || minor != 2 || patch != 0 {
		t.Errorf("unexpected driver version %d.%d.%d", major, minor, patch)
	}

	if topo := drv.(TopologyProvider).Topology(); topo != nil {
		t.Errorf("expected topology to be nil before DriverInit; got %+v", topo)
	}
}

func TestProbeWithBootloaderRSDP(t *testing.T) {
	fw := mockFirmware(t, nil)
	xsdtAddr := fw.AddTable(acpitest.XSDT(uint64(fw.AddTable(testMADT()))))
	bootloaderRSDPFn = func() []byte { return acpitest.ExtRSDP(0, uint64(xsdtAddr)) }

	drv, ok := probeForACPI().(*acpiDriver)
	if !ok {
		t.Fatal("expected probe to succeed using the boot loader RSDP copy")
	}

	if rootAddr, extended := drv.rp.RootTable(); rootAddr != xsdtAddr || !extended {
		t.Fatalf("expected root table to be the XSDT at 0x%x; got (0x%x, %t)", xsdtAddr, rootAddr, extended)
	}

	if err := drv.DriverInit(&bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	if len(drv.Topology().APICIDs) != 4 {
		t.Fatalf("unexpected topology: %+v", drv.Topology())
	}

	// Corrupt copies are rejected.
	bootloaderRSDPFn = func() []byte {
		b := acpitest.RSDP(0x1000)
		b[16]++
		return b
	}
	if drv := probeForACPI(); drv != nil {
		t.Fatalf("expected probe to fail with a corrupt RSDP copy; got %v", drv)
	}
}

func TestDriverInit(t *testing.T) {
	t.Run("with SRAT", func(t *testing.T) {
		fw := mockFirmware(t, nil)

		srat := acpitest.SRAT(
			acpitest.ProcessorAffinity(0, 0, table.AffinityEnabled),
			acpitest.ProcessorAffinity(1, 1, table.AffinityEnabled),
			acpitest.MemoryAffinity(0, 0x1000, 0, table.AffinityEnabled),
			acpitest.MemoryAffinity(0x1000, 0x1000, 1, table.AffinityEnabled|table.MemoryHotPluggable|table.MemoryNonVolatile),
		)
		fw.Install(0x200, testMADT(), srat)

		drv := probeForACPI().(*acpiDriver)

		var buf bytes.Buffer
		if err := drv.DriverInit(&buf); err != nil {
			t.Fatal(err)
		}

		if topo := drv.Topology(); topo == nil || len(topo.APICIDs) != 4 {
			t.Fatalf("unexpected topology: %+v", topo)
		}

		for _, exp := range []string{
			"RSDP at 0x00000000000e0200 (revision 0, OEM: GOPHER)\n",
			"local APIC at 0x00000000fee00000, 4 processor(s)\n",
			"APIC ID    1 -> domain 1\n",
			"[0x0000000000000000 - 0x0000000000000fff] -> domain 0\n",
			"[0x0000000000001000 - 0x0000000000001fff] -> domain 1 (hot-pluggable) (non-volatile)\n",
		} {
			if !strings.Contains(buf.String(), exp) {
				t.Errorf("expected output to contain %q; got:\n%s", exp, buf.String())
			}
		}
	})

	t.Run("without SRAT", func(t *testing.T) {
		fw := mockFirmware(t, nil)
		fw.Install(0, testMADT())

		drv := probeForACPI().(*acpiDriver)

		var buf bytes.Buffer
		if err := drv.DriverInit(&buf); err != nil {
			t.Fatal(err)
		}

		if exp := "no SRAT; assuming a single NUMA domain\n"; !strings.Contains(buf.String(), exp) {
			t.Errorf("expected output to contain %q; got:\n%s", exp, buf.String())
		}
	})

	t.Run("table error", func(t *testing.T) {
		fw := mockFirmware(t, nil)
		fw.Install(0, testMADT(), testMADT())

		drv := probeForACPI().(*acpiDriver)
		if err := drv.DriverInit(&bytes.Buffer{}); err != errDuplicateMADT {
			t.Fatalf("expected to get errDuplicateMADT; got %v", err)
		}

		if drv.Topology() != nil {
			t.Fatal("expected topology to remain unset after a failed init")
		}
	})
}

func TestDriverRegistration(t *testing.T) {
	var found bool
	for _, info := range device.DriverList() {
		if info.ErrMissing == errMissingRSDP {
			found = true
			if info.Order != device.DetectOrderACPI || !info.Required() {
				t.Errorf("unexpected driver registration: %+v", info)
			}
		}
	}

	if !found {
		t.Fatal("expected the ACPI driver to be registered")
	}
}
