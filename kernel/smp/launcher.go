package smp

import (
	"gophersmp/kernel"
	"gophersmp/kernel/kfmt"
	"io"
)

// DefaultStartupVector is the STARTUP IPI vector used when none is
// configured. Started cores begin executing in real mode at physical address
// vector << 12 (0x8000) where the trampoline code is expected to reside.
const DefaultStartupVector uint8 = 0x08

// Delays (in microseconds) mandated by the INIT-SIPI-SIPI sequence.
const (
	initDelayMicros    = 10000
	startupDelayMicros = 200
)

// IPISender is implemented by local interrupt controller drivers that can
// deliver the interprocessor interrupts required to start a core. Both calls
// must return only after the IPI has been dispatched.
type IPISender interface {
	// SendInit sends an INIT IPI to the core with the supplied APIC ID.
	SendInit(apicID uint32) *kernel.Error

	// SendStartup sends a STARTUP IPI with the supplied vector to the core
	// with the supplied APIC ID.
	SendStartup(apicID uint32, vector uint8) *kernel.Error
}

// StartupSequence sends the INIT, STARTUP, STARTUP sequence to the core with
// the supplied APIC ID, waiting the required amount of time between each IPI.
// If delayFn is nil no delays are inserted.
func StartupSequence(ipi IPISender, delayFn func(uint32), apicID uint32, vector uint8) *kernel.Error {
	if delayFn == nil {
		delayFn = func(uint32) {}
	}

	if err := ipi.SendInit(apicID); err != nil {
		return err
	}
	delayFn(initDelayMicros)

	if err := ipi.SendStartup(apicID, vector); err != nil {
		return err
	}
	delayFn(startupDelayMicros)

	return ipi.SendStartup(apicID, vector)
}

// Launcher starts every registered core that is not yet online.
type Launcher struct {
	Registry *Registry
	IPI      IPISender

	// Delay busy-waits for the supplied number of microseconds.
	Delay func(micros uint32)

	// StartupVector defaults to DefaultStartupVector if zero.
	StartupVector uint8

	// Log receives progress messages. If nil, messages are sent to the
	// active kfmt output sink.
	Log io.Writer
}

// BootAllCores launches the registered offline cores one at a time, in
// registration order, waiting for each to report itself online before moving
// to the next one. Startup IPIs share a single trampoline so targets are never
// launched concurrently.
//
// There is no timeout: a core that never reports itself online stalls the
// boot sequence.
func (l *Launcher) BootAllCores() *kernel.Error {
	vector := l.StartupVector
	if vector == 0 {
		vector = DefaultStartupVector
	}

	w := l.Log
	if w == nil {
		w = kfmt.GetOutputSink()
	}

	reg := l.Registry
	snap := reg.Snapshot()

	for _, core := range snap.Cores {
		if core.State == StateOnline {
			continue
		}

		// Publish the launched state before the target can observe it.
		if !reg.transition(core.APICID, StateOffline, StateLaunched) {
			return errBadTransition
		}

		if err := StartupSequence(l.IPI, l.Delay, core.APICID, vector); err != nil {
			return err
		}

		for reg.State(core.APICID) != StateOnline {
			pauseFn()
		}

		kfmt.Fprintf(w, "core %d online\n", core.APICID)
	}

	kfmt.Fprintf(w, "%d/%d cores online\n", reg.onlineCount(), reg.CoreCount())
	return nil
}

// onlineCount returns the number of registered cores that are online.
func (r *Registry) onlineCount() int {
	var online int
	for _, core := range r.Snapshot().Cores {
		if core.State == StateOnline {
			online++
		}
	}

	return online
}
