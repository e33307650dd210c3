package acpi

import (
	"bytes"
	"gophersmp/device/acpi/acpitest"
	"gophersmp/device/acpi/table"
	"gophersmp/kernel"
	"gophersmp/kernel/phys"
	"reflect"
	"testing"
)

func parseSRATFixture(srat []byte) (*Topology, *kernel.Error) {
	var (
		img  phys.Image
		topo Topology
	)
	img.Map(0x4000, srat)

	err := ParseSRAT(&img, &bytes.Buffer{}, 0x4000, &topo)
	return &topo, err
}

func TestParseSRAT(t *testing.T) {
	srat := acpitest.SRAT(
		acpitest.ProcessorAffinity(0, 0, table.AffinityEnabled),
		acpitest.MemoryAffinity(0, 0xa0000, 0, table.AffinityEnabled),
		acpitest.ProcessorAffinity(1, 0x01020304, table.AffinityEnabled),
		acpitest.ProcessorAffinity(2, 1, 0),
		acpitest.X2APICAffinity(300, 7, table.AffinityEnabled),
		acpitest.X2APICAffinity(301, 7, 0),
		acpitest.MemoryAffinity(0x1_0000_0000, 0x4000_0000, 1, table.AffinityEnabled|table.MemoryHotPluggable|table.MemoryNonVolatile),
		acpitest.MemoryAffinity(0x2_0000_0000, 0x1000, 2, 0),
		// unknown record types are skipped
		[]byte{0x7f, 6, 0, 0, 0, 0},
	)

	topo, err := parseSRATFixture(srat)
	if err != nil {
		t.Fatal(err)
	}

	if !topo.HasSRAT {
		t.Error("expected HasSRAT to be true")
	}

	expProcessors := []ProcessorAffinity{
		{APICID: 0, Domain: 0},
		{APICID: 1, Domain: 0x01020304},
		{APICID: 300, Domain: 7},
	}
	if !reflect.DeepEqual(topo.Processors, expProcessors) {
		t.Errorf("expected processor affinities %+v; got %+v", expProcessors, topo.Processors)
	}

	expMemory := []MemoryAffinity{
		{Base: 0, Length: 0xa0000, Domain: 0},
		{Base: 0x1_0000_0000, Length: 0x4000_0000, Domain: 1, HotPluggable: true, NonVolatile: true},
	}
	if !reflect.DeepEqual(topo.Memory, expMemory) {
		t.Errorf("expected memory affinities %+v; got %+v", expMemory, topo.Memory)
	}
}

func TestParseSRATWithoutRecords(t *testing.T) {
	topo, err := parseSRATFixture(acpitest.SRAT())
	if err != nil {
		t.Fatal(err)
	}

	if !topo.HasSRAT || len(topo.Processors) != 0 || len(topo.Memory) != 0 {
		t.Fatalf("unexpected topology: %+v", topo)
	}
}

func TestParseSRATErrors(t *testing.T) {
	specs := []struct {
		descr  string
		srat   []byte
		expErr *kernel.Error
	}{
		{
			"truncated trailing entry",
			acpitest.SRAT(acpitest.ProcessorAffinity(0, 0, 1), []byte{0}),
			errMalformedEntry,
		},
		{
			"processor affinity entry too short",
			acpitest.SRAT([]byte{0, 8, 0, 0, 1, 0, 0, 0}),
			errEntryTooShort,
		},
		{
			"memory affinity entry too short",
			acpitest.SRAT([]byte{1, 16, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}),
			errEntryTooShort,
		},
		{
			"x2APIC affinity entry too short",
			acpitest.SRAT([]byte{2, 16, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}),
			errEntryTooShort,
		},
		{
			"missing fixed fields",
			acpitest.SDT("SRAT", 1, []byte{1, 0, 0, 0}),
			errTableTooShort,
		},
	}

	for specIndex, spec := range specs {
		if _, err := parseSRATFixture(spec.srat); err != spec.expErr {
			t.Errorf("[spec %d] %s: expected error %v; got %v", specIndex, spec.descr, spec.expErr, err)
		}
	}
}
