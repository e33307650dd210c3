package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt disables interrupts and stops instruction execution.
func Halt()

// Pause hints the processor that the caller is executing a spin-wait loop.
func Pause()

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// LocalAPICID returns the initial APIC ID of the core executing the call as
// reported by CPUID leaf 1 (EBX bits 31-24).
func LocalAPICID() uint32 {
	_, ebx, _, _ := cpuidFn(1)
	return ebx >> 24
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8
