package main

import (
	"fmt"
	"gophersmp/device/acpi/acpitest"
	"gophersmp/device/acpi/table"
)

const (
	syntheticLAPICAddr  = 0xfee00000
	syntheticDomainSize = 1 << 30

	// xAPIC MADT entries carry 8-bit APIC IDs.
	maxSyntheticCores = 255
)

// syntheticFirmware builds a firmware image describing the requested number
// of processors spread evenly across domains NUMA domains. Each domain owns
// 1 GiB of memory. If domains is 0 the image contains no SRAT.
func syntheticFirmware(cores, domains int, xsdt bool) (*acpitest.Firmware, error) {
	switch {
	case cores < 1 || cores > maxSyntheticCores:
		return nil, fmt.Errorf("core count must be between 1 and %d; got %d", maxSyntheticCores, cores)
	case domains < 0 || domains > cores:
		return nil, fmt.Errorf("domain count must be between 0 and the core count; got %d", domains)
	}

	var (
		lapics     [][]byte
		affinities [][]byte
	)

	for i := 0; i < cores; i++ {
		lapics = append(lapics, acpitest.LocalAPIC(uint8(i), uint8(i), table.ProcessorEnabled))
		if domains != 0 {
			domain := uint32(i * domains / cores)
			affinities = append(affinities, acpitest.ProcessorAffinity(uint8(i), domain, table.AffinityEnabled))
		}
	}

	for d := 0; d < domains; d++ {
		affinities = append(affinities, acpitest.MemoryAffinity(uint64(d)*syntheticDomainSize, syntheticDomainSize, uint32(d), table.AffinityEnabled))
	}

	tables := [][]byte{acpitest.MADT(syntheticLAPICAddr, lapics...)}
	if domains != 0 {
		tables = append(tables, acpitest.SRAT(affinities...))
	}

	fw := acpitest.NewFirmware()
	if xsdt {
		fw.InstallExt(0, tables...)
	} else {
		fw.Install(0, tables...)
	}

	return fw, nil
}
