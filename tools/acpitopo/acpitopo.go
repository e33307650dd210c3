package main

import (
	"errors"
	"flag"
	"fmt"
	"gophersmp/device/acpi"
	"gophersmp/kernel/phys"
	"gophersmp/kernel/smp"
	"io"
	"os"
)

type options struct {
	memDevice string
	verbose   bool

	synthetic bool
	cores     int
	domains   int
	xsdt      bool
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[acpitopo] error: %s\n", err.Error())
	os.Exit(1)
}

// openReader returns the physical memory reader selected by opts and a
// function that releases it.
func openReader(opts options) (phys.Reader, func() error, error) {
	if opts.synthetic {
		fw, err := syntheticFirmware(opts.cores, opts.domains, opts.xsdt)
		if err != nil {
			return nil, nil, err
		}
		return &fw.Mem, func() error { return nil }, nil
	}

	mem, err := openDevMem(opts.memDevice)
	if err != nil {
		return nil, nil, err
	}
	return mem, mem.Close, nil
}

// report runs the discovery pipeline over r and prints the resulting
// topology to out. Table diagnostics are written to log.
func report(out, log io.Writer, r phys.Reader) error {
	topo, kerr := acpi.Discover(r, log)
	if kerr != nil {
		return kerr
	}

	// The bootstrap core is the first processor listed by the firmware.
	var bootstrapID uint32
	if len(topo.APICIDs) != 0 {
		bootstrapID = topo.APICIDs[0]
	}

	var reg smp.Registry
	if kerr = topo.Apply(&reg, bootstrapID); kerr != nil {
		return kerr
	}

	snap := reg.Snapshot()
	fmt.Fprintf(out, "local APIC: 0x%016x\n", topo.LocalAPICAddr)
	fmt.Fprintf(out, "cores: %d\n", snap.CoreCount)
	fmt.Fprintf(out, "%8s  %-8s  %s\n", "APIC ID", "STATE", "DOMAIN")
	for _, core := range snap.Cores {
		domain := "-"
		if core.HasDomain {
			domain = fmt.Sprint(core.Domain)
		}
		fmt.Fprintf(out, "%8d  %-8s  %s\n", core.APICID, core.State, domain)
	}

	if !topo.HasSRAT {
		fmt.Fprintln(out, "no SRAT; single NUMA domain")
		return nil
	}

	fmt.Fprintln(out, "memory affinity:")
	for _, mem := range topo.Memory {
		fmt.Fprintf(out, "  [0x%016x - 0x%016x] domain %d", mem.Base, mem.Base+mem.Length-1, mem.Domain)
		if mem.HotPluggable {
			fmt.Fprint(out, " (hot-pluggable)")
		}
		if mem.NonVolatile {
			fmt.Fprint(out, " (non-volatile)")
		}
		fmt.Fprintln(out)
	}

	return nil
}

func main() {
	var opts options
	flag.StringVar(&opts.memDevice, "mem", "/dev/mem", "physical memory device to read firmware tables from")
	flag.BoolVar(&opts.verbose, "v", false, "print every discovered table")
	flag.BoolVar(&opts.synthetic, "synthetic", false, "discover the topology of a generated firmware image instead of the host")
	flag.IntVar(&opts.cores, "cores", 4, "number of processors in the synthetic image")
	flag.IntVar(&opts.domains, "domains", 2, "number of NUMA domains in the synthetic image; 0 omits the SRAT")
	flag.BoolVar(&opts.xsdt, "xsdt", false, "publish the synthetic tables through an XSDT")
	flag.Parse()

	if len(flag.Args()) != 0 {
		exit(errors.New("unexpected arguments"))
	}

	r, closeFn, err := openReader(opts)
	if err != nil {
		exit(err)
	}
	defer closeFn()

	log := io.Discard
	if opts.verbose {
		log = os.Stderr
	}

	if err = report(os.Stdout, log, r); err != nil {
		closeFn()
		exit(err)
	}
}
