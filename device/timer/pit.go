// Package timer provides busy-wait delays for code that runs before any
// interrupt-driven time source is available.
package timer

import "gophersmp/kernel/cpu"

// The programmable interval timer (8254) ports and settings used for delays.
// Channel 2 is used as its gate is software controlled and its output can be
// polled through the system control port.
const (
	pitFrequency = 1193182

	portChannel2 = 0x42
	portCommand  = 0x43

	// Bit 0 gates channel 2, bit 1 enables the speaker and bit 5
	// reflects the channel 2 output.
	portControl      = 0x61
	controlGate      = 1 << 0
	controlSpeaker   = 1 << 1
	controlOutputHi  = 1 << 5
	cmdChannel2Mode0 = 0xb0 // channel 2, lobyte/hibyte access, mode 0, binary

	// maxChunkMicros keeps the tick count within the 16-bit counter.
	maxChunkMicros = 50000
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
	pauseFn         = cpu.Pause
)

// ticksFor returns the number of PIT ticks that elapse in the supplied
// number of microseconds, rounded up.
func ticksFor(micros uint32) uint16 {
	ticks := (uint64(micros)*pitFrequency + 999999) / 1000000
	if ticks == 0 {
		ticks = 1
	}
	return uint16(ticks)
}

// DelayMicroseconds busy-waits for at least the supplied number of
// microseconds. Long delays are split into chunks that fit the 16-bit
// counter.
func DelayMicroseconds(micros uint32) {
	for micros > 0 {
		chunk := micros
		if chunk > maxChunkMicros {
			chunk = maxChunkMicros
		}

		waitTicks(ticksFor(chunk))
		micros -= chunk
	}
}

// waitTicks programs channel 2 in one-shot mode with the supplied count and
// polls its output until the count expires.
func waitTicks(ticks uint16) {
	// Disable the speaker and the gate while the counter is programmed.
	ctrl := portReadByteFn(portControl) &^ (controlSpeaker | controlGate)
	portWriteByteFn(portControl, ctrl)

	portWriteByteFn(portCommand, cmdChannel2Mode0)
	portWriteByteFn(portChannel2, uint8(ticks))
	portWriteByteFn(portChannel2, uint8(ticks>>8))

	// Raising the gate starts the count; the output goes high when the
	// count reaches zero.
	portWriteByteFn(portControl, ctrl|controlGate)

	for portReadByteFn(portControl)&controlOutputHi == 0 {
		pauseFn()
	}

	portWriteByteFn(portControl, ctrl)
}
