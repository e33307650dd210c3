// Package acpi locates and validates the ACPI tables published by the
// firmware and extracts the processor and NUMA topology they describe.
package acpi

import (
	"gophersmp/device"
	"gophersmp/kernel"
	"gophersmp/kernel/hal/multiboot"
	"gophersmp/kernel/kfmt"
	"gophersmp/kernel/phys"
	"io"
)

var (
	// physMem provides access to the physical memory containing the
	// firmware tables. The kernel runs with the low physical memory
	// identity-mapped so the tables can be read in place.
	physMem phys.Reader = phys.Direct{}

	// bootloaderRSDPFn returns the copy of the RSDP supplied by the boot
	// loader, if any. It is used when the RSDP cannot be located by
	// scanning memory (e.g. on UEFI systems).
	bootloaderRSDPFn = multiboot.GetACPIRSDP
)

// TopologyProvider is implemented by drivers that can report the system
// topology.
type TopologyProvider interface {
	Topology() *Topology
}

type acpiDriver struct {
	rp RootPointer

	// topo is populated by DriverInit.
	topo *Topology
}

// DriverInit walks the ACPI tables and extracts the system topology.
func (drv *acpiDriver) DriverInit(w io.Writer) *kernel.Error {
	rootAddr, extended := drv.rp.RootTable()

	kfmt.Fprintf(w, "RSDP at 0x%16x (revision %d, OEM: %s)\n", drv.rp.Addr, drv.rp.Revision, drv.rp.OEMID[:])

	topo, err := WalkRoot(physMem, w, rootAddr, extended)
	if err != nil {
		return err
	}

	drv.topo = topo
	drv.printTopology(w)
	return nil
}

// DriverName returns the name of this driver.
func (*acpiDriver) DriverName() string {
	return "ACPI"
}

// DriverVersion returns the version of this driver.
func (*acpiDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 2, 0
}

// Topology returns the topology discovered by DriverInit or nil if the driver
// has not been initialized.
func (drv *acpiDriver) Topology() *Topology {
	return drv.topo
}

func (drv *acpiDriver) printTopology(w io.Writer) {
	topo := drv.topo

	kfmt.Fprintf(w, "local APIC at 0x%16x, %d processor(s)\n", topo.LocalAPICAddr, len(topo.APICIDs))

	if !topo.HasSRAT {
		kfmt.Fprintf(w, "no SRAT; assuming a single NUMA domain\n")
		return
	}

	for _, pa := range topo.Processors {
		kfmt.Fprintf(w, "APIC ID %4d -> domain %d\n", pa.APICID, pa.Domain)
	}

	for _, ma := range topo.Memory {
		kfmt.Fprintf(w, "[0x%16x - 0x%16x] -> domain %d", ma.Base, ma.Base+ma.Length-1, ma.Domain)
		if ma.HotPluggable {
			kfmt.Fprintf(w, " (hot-pluggable)")
		}
		if ma.NonVolatile {
			kfmt.Fprintf(w, " (non-volatile)")
		}
		kfmt.Fprintf(w, "\n")
	}
}

func probeForACPI() device.Driver {
	rp, err := LocateRSDP(physMem)
	if err != nil {
		if rp, err = DecodeRootPointer(bootloaderRSDPFn()); err != nil {
			return nil
		}
	}

	return &acpiDriver{rp: rp}
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order:      device.DetectOrderACPI,
		Probe:      probeForACPI,
		ErrMissing: errMissingRSDP,
	})
}
