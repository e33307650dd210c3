// Package smp tracks the lifecycle of every processor core detected at boot
// and brings the non-bootstrap cores online.
package smp

import (
	"gophersmp/kernel"
	"gophersmp/kernel/cpu"
	"sync/atomic"
)

// MaxCores is the maximum number of logical cores supported. APIC IDs must be
// smaller than this value.
const MaxCores = 1024

// State describes the lifecycle state of a core slot.
type State uint32

// The list of core states. A detected core moves from StateOffline to
// StateLaunched (set by the launching core) to StateOnline (set by the core
// itself). Slots are never moved backwards.
const (
	// No core with this APIC ID was detected.
	StateAbsent State = iota
	StateOffline
	StateLaunched
	StateOnline
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateLaunched:
		return "launched"
	case StateOnline:
		return "online"
	default:
		return "absent"
	}
}

var (
	errInvalidAPICID     = &kernel.Error{Module: "smp", Message: "APIC ID exceeds the maximum supported core count"}
	errAlreadyRegistered = &kernel.Error{Module: "smp", Message: "core is already registered"}
	errNotRegistered     = &kernel.Error{Module: "smp", Message: "core is not registered"}
	errBadTransition     = &kernel.Error{Module: "smp", Message: "invalid core state transition"}

	// pauseFn is invoked while spinning on a core slot; mocked by tests.
	pauseFn = cpu.Pause
)

// slot holds the state of a single core. Its fields are only accessed using
// atomic operations.
type slot struct {
	// domain holds the NUMA domain in the low 32 bits. Bit 32 is set if
	// the domain is known.
	domain uint64

	state uint32
}

const domainKnown = uint64(1) << 32

// Registry holds the authoritative view of the state of every core slot. At
// any instant a slot is owned either by the core launching it (while Offline)
// or by the slot's own core (once Launched); ownership is handed over by the
// atomic state transitions so no lock is required.
//
// Cores are registered by the bootstrap core before any other core is
// started. The zero value is ready to use and describes a single-core system.
type Registry struct {
	// count is the number of registered cores. order[:count] lists their
	// APIC IDs in registration order.
	count uint32
	order [MaxCores]uint32

	slots [MaxCores]slot
}

// Register records a detected core with the supplied APIC ID and marks it as
// offline. Register must only be called by the bootstrap core before any
// core is launched.
func (r *Registry) Register(apicID uint32) *kernel.Error {
	if apicID >= MaxCores {
		return errInvalidAPICID
	}

	if !r.transition(apicID, StateAbsent, StateOffline) {
		return errAlreadyRegistered
	}

	r.appendOrder(apicID)
	return nil
}

// MarkOnlineBootstrap records the core executing the boot sequence. The
// bootstrap core does not go through the launch sequence and starts directly
// in the online state.
func (r *Registry) MarkOnlineBootstrap(apicID uint32) *kernel.Error {
	if apicID >= MaxCores {
		return errInvalidAPICID
	}

	switch {
	case r.transition(apicID, StateAbsent, StateOnline):
		r.appendOrder(apicID)
		return nil
	case r.transition(apicID, StateOffline, StateOnline):
		return nil
	default:
		return errBadTransition
	}
}

func (r *Registry) appendOrder(apicID uint32) {
	n := atomic.LoadUint32(&r.count)
	r.order[n] = apicID
	atomic.StoreUint32(&r.count, n+1)
}

// SetDomain assigns a NUMA domain to a registered core.
func (r *Registry) SetDomain(apicID, domain uint32) *kernel.Error {
	if r.State(apicID) == StateAbsent {
		return errNotRegistered
	}

	atomic.StoreUint64(&r.slots[apicID].domain, domainKnown|uint64(domain))
	return nil
}

// State returns the state of the core with the supplied APIC ID.
func (r *Registry) State(apicID uint32) State {
	if apicID >= MaxCores {
		return StateAbsent
	}

	return State(atomic.LoadUint32(&r.slots[apicID].state))
}

// Domain returns the NUMA domain of the core with the supplied APIC ID. The
// second return value is false if the domain is unknown; callers should then
// treat the core as part of a single, default domain.
func (r *Registry) Domain(apicID uint32) (uint32, bool) {
	if apicID >= MaxCores {
		return 0, false
	}

	d := atomic.LoadUint64(&r.slots[apicID].domain)
	return uint32(d), d&domainKnown != 0
}

// CoreCount returns the number of detected cores. Until a topology has been
// registered the system is assumed to have a single core.
func (r *Registry) CoreCount() int {
	if n := atomic.LoadUint32(&r.count); n != 0 {
		return int(n)
	}

	return 1
}

// ReportOnline is invoked by a newly started core, once its initialization is
// complete, to mark its own slot as online. It waits until the launching core
// has marked the slot as launched.
func (r *Registry) ReportOnline(apicID uint32) *kernel.Error {
	for {
		switch r.State(apicID) {
		case StateOffline:
			pauseFn()
		case StateLaunched:
			if r.transition(apicID, StateLaunched, StateOnline) {
				return nil
			}
		case StateAbsent:
			return errNotRegistered
		default:
			return errBadTransition
		}
	}
}

// transition atomically moves a slot from one state to another. It returns
// false if the slot was not in the from state.
func (r *Registry) transition(apicID uint32, from, to State) bool {
	if apicID >= MaxCores {
		return false
	}

	return atomic.CompareAndSwapUint32(&r.slots[apicID].state, uint32(from), uint32(to))
}

// CoreStatus describes a single core.
type CoreStatus struct {
	APICID uint32
	State  State

	// Domain is only meaningful if HasDomain is set.
	Domain    uint32
	HasDomain bool
}

// Snapshot is a point-in-time copy of the registry contents.
type Snapshot struct {
	CoreCount int

	// Cores lists the registered cores in registration order.
	Cores []CoreStatus
}

// Snapshot returns a copy of the current core states for consumption by the
// memory allocation and scheduling subsystems.
func (r *Registry) Snapshot() Snapshot {
	n := atomic.LoadUint32(&r.count)

	snap := Snapshot{
		CoreCount: r.CoreCount(),
		Cores:     make([]CoreStatus, n),
	}

	for i, apicID := range r.order[:n] {
		domain, hasDomain := r.Domain(apicID)
		snap.Cores[i] = CoreStatus{
			APICID:    apicID,
			State:     r.State(apicID),
			Domain:    domain,
			HasDomain: hasDomain,
		}
	}

	return snap
}
