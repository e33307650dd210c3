package kmain

import (
	"gophersmp/device/acpi"
	"gophersmp/device/apic"
	"gophersmp/device/timer"
	"gophersmp/kernel"
	"gophersmp/kernel/cpu"
	"gophersmp/kernel/hal"
	"gophersmp/kernel/hal/multiboot"
	"gophersmp/kernel/kfmt"
	"gophersmp/kernel/smp"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// registry tracks the state of every core detected at boot.
	registry smp.Registry

	detectHardwareFn = hal.DetectHardware
	topologyFn       = hal.Topology
	localAPICIDFn    = cpu.LocalAPICID
	cmdLineFn        = multiboot.GetBootCmdLine
	delayFn          = timer.DelayMicroseconds
	panicFn          = kfmt.Panic
	cpuHaltFn        = cpu.Halt
	ipiSenderFn      = func(lapicAddr uint64) smp.IPISender {
		return apic.New(lapicAddr)
	}
)

// Registry returns the topology registry populated during boot. It is
// consulted by the memory allocation and scheduling subsystems.
func Registry() *smp.Registry {
	return &registry
}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code on
// the bootstrap core once the Go runtime is able to allocate memory.
//
// The rt0 code passes the address of the multiboot info payload provided by
// the bootloader.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	if err := bootstrap(); err != nil {
		panicFn(err)
		return
	}

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}

// bootstrap detects the system topology and brings every detected core
// online.
func bootstrap() *kernel.Error {
	if err := detectHardwareFn(); err != nil {
		return err
	}

	topo := topologyFn()
	if topo == nil {
		topo = &acpi.Topology{}
	}

	if err := topo.Apply(&registry, localAPICIDFn()); err != nil {
		return err
	}

	printMemoryMap(topo)

	if _, disabled := cmdLineFn()["nosmp"]; disabled {
		kfmt.Printf("[kmain] nosmp: not starting application processors\n")
		return nil
	}

	launcher := smp.Launcher{
		Registry:      &registry,
		IPI:           ipiSenderFn(topo.LocalAPICAddr),
		Delay:         delayFn,
		StartupVector: smp.DefaultStartupVector,
		Log:           &kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte("[smp] ")},
	}

	return launcher.BootAllCores()
}

// printMemoryMap lists the memory regions reported by the boot loader and,
// when known, the NUMA domain each available region belongs to.
func printMemoryMap(topo *acpi.Topology) {
	kfmt.Printf("[kmain] system memory map:\n")

	multiboot.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		kfmt.Printf("[kmain] [0x%16x - 0x%16x] %s", region.PhysAddress, region.PhysAddress+region.Length-1, region.Type.String())

		if topo.HasSRAT && region.Type == multiboot.MemAvailable {
			if domain, ok := topo.DomainOfAddress(region.PhysAddress); ok {
				kfmt.Printf(" (domain %d)", domain)
			}
		}

		kfmt.Printf("\n")
		return true
	})
}

// APMain is the Go entry point for application processors. The trampoline
// code jumps here once the core runs in long mode on its own stack. It never
// returns.
//
//go:noinline
func APMain() {
	if err := apMain(localAPICIDFn()); err != nil {
		panicFn(err)
	}

	for {
		cpuHaltFn()
	}
}

// apMain marks the core with the supplied APIC ID as online.
func apMain(apicID uint32) *kernel.Error {
	return registry.ReportOnline(apicID)
}
