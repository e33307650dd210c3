package acpi

import (
	"gophersmp/kernel"
	"gophersmp/kernel/smp"
)

// ProcessorAffinity associates a processor (identified by its APIC ID) with a
// NUMA domain.
type ProcessorAffinity struct {
	APICID uint32
	Domain uint32
}

// MemoryAffinity associates the physical memory range [Base, Base+Length)
// with a NUMA domain.
type MemoryAffinity struct {
	Base   uint64
	Length uint64
	Domain uint32

	HotPluggable bool
	NonVolatile  bool
}

// Topology describes the processors and NUMA layout reported by the firmware.
type Topology struct {
	// APICIDs lists the enabled processors in the order the MADT lists
	// them. Each ID appears once.
	APICIDs []uint32

	// LocalAPICAddr is the physical address of the local APIC register
	// block as reported by the MADT.
	LocalAPICAddr uint64

	// HasSRAT is set if the firmware provides a SRAT. When unset, the
	// affinity lists are empty and every processor belongs to an unknown
	// domain.
	HasSRAT bool

	Processors []ProcessorAffinity
	Memory     []MemoryAffinity

	// seen tracks the APIC IDs already added to APICIDs.
	seen [smp.MaxCores / 8]uint8
}

// addProcessor appends apicID to the list of detected processors unless it is
// already present. It returns false if the ID was a duplicate.
func (t *Topology) addProcessor(apicID uint32) bool {
	if t.seen[apicID/8]&(1<<(apicID%8)) != 0 {
		return false
	}

	t.seen[apicID/8] |= 1 << (apicID % 8)
	t.APICIDs = append(t.APICIDs, apicID)
	return true
}

// DomainOf returns the NUMA domain for the processor with the supplied APIC
// ID. The second return value is false if the firmware did not report one.
func (t *Topology) DomainOf(apicID uint32) (uint32, bool) {
	for _, pa := range t.Processors {
		if pa.APICID == apicID {
			return pa.Domain, true
		}
	}

	return 0, false
}

// DomainOfAddress returns the NUMA domain of the memory range containing the
// physical address addr. The second return value is false if no memory
// affinity record covers addr.
func (t *Topology) DomainOfAddress(addr uint64) (uint32, bool) {
	for _, ma := range t.Memory {
		if addr >= ma.Base && addr-ma.Base < ma.Length {
			return ma.Domain, true
		}
	}

	return 0, false
}

// Apply records the detected processors and their NUMA domains in reg. The
// bootstrap core (the core running this code) is marked online; every other
// detected core is marked offline, ready to be launched. The bootstrap core is
// registered even if the MADT does not list it.
func (t *Topology) Apply(reg *smp.Registry, bootstrapID uint32) *kernel.Error {
	if err := reg.MarkOnlineBootstrap(bootstrapID); err != nil {
		return err
	}

	for _, apicID := range t.APICIDs {
		if apicID == bootstrapID {
			continue
		}

		if err := reg.Register(apicID); err != nil {
			return err
		}
	}

	for _, pa := range t.Processors {
		if reg.State(pa.APICID) == smp.StateAbsent {
			continue
		}

		if err := reg.SetDomain(pa.APICID, pa.Domain); err != nil {
			return err
		}
	}

	return nil
}
