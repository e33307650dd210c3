// Package apic drives the local APIC of the executing core in xAPIC mode. It
// provides the interprocessor interrupt primitives used to start the other
// cores of the system.
package apic

import (
	"gophersmp/kernel"
	"gophersmp/kernel/cpu"
	"unsafe"
)

// Local APIC register offsets from the register block base.
const (
	regID      = 0x020
	regVersion = 0x030
	regICRLow  = 0x300
	regICRHigh = 0x310
)

// Interrupt command register bits.
const (
	icrDeliveryModeInit    = 5 << 8
	icrDeliveryModeStartup = 6 << 8
	icrDeliveryPending     = 1 << 12
	icrLevelAssert         = 1 << 14
	icrTriggerLevel        = 1 << 15

	icrDestShift = 24

	// xAPIC destinations are 8 bits wide.
	maxXAPICID = 0xff
)

var (
	errDestinationUnsupported = &kernel.Error{Module: "apic", Message: "APIC ID cannot be addressed in xAPIC mode"}
	errDeliveryTimeout        = &kernel.Error{Module: "apic", Message: "timed out waiting for IPI delivery"}

	// maxDeliveryPolls bounds the number of times the ICR delivery status
	// is polled after sending an IPI.
	maxDeliveryPolls = 1 << 20

	readRegFn  = readReg
	writeRegFn = writeReg
	pauseFn    = cpu.Pause
)

// LocalAPIC provides access to the memory-mapped registers of the local APIC
// of the executing core. The register block must be identity-mapped.
type LocalAPIC struct {
	base uintptr
}

// New returns a LocalAPIC for the register block at physical address base.
func New(base uint64) *LocalAPIC {
	return &LocalAPIC{base: uintptr(base)}
}

// ID returns the APIC ID of the executing core.
func (l *LocalAPIC) ID() uint32 {
	return readRegFn(l.base+regID) >> 24
}

// Version returns the contents of the local APIC version register.
func (l *LocalAPIC) Version() uint32 {
	return readRegFn(l.base + regVersion)
}

// SendInit sends an INIT IPI to the core with the supplied APIC ID and waits
// for it to be accepted.
func (l *LocalAPIC) SendInit(apicID uint32) *kernel.Error {
	return l.sendIPI(apicID, icrDeliveryModeInit|icrLevelAssert|icrTriggerLevel)
}

// SendStartup sends a STARTUP IPI to the core with the supplied APIC ID. The
// target starts executing in real mode at physical address vector << 12.
func (l *LocalAPIC) SendStartup(apicID uint32, vector uint8) *kernel.Error {
	return l.sendIPI(apicID, icrDeliveryModeStartup|uint32(vector))
}

// sendIPI writes the destination and command to the interrupt command
// register. Writing the low half dispatches the IPI.
func (l *LocalAPIC) sendIPI(apicID, cmd uint32) *kernel.Error {
	if apicID > maxXAPICID {
		return errDestinationUnsupported
	}

	writeRegFn(l.base+regICRHigh, apicID<<icrDestShift)
	writeRegFn(l.base+regICRLow, cmd)

	for i := 0; i < maxDeliveryPolls; i++ {
		if readRegFn(l.base+regICRLow)&icrDeliveryPending == 0 {
			return nil
		}
		pauseFn()
	}

	return errDeliveryTimeout
}

func readReg(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func writeReg(addr uintptr, val uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = val
}
