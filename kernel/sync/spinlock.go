// Package sync provides synchronization primitives that can be used before
// any scheduler exists.
package sync

import (
	"gophersmp/kernel/cpu"
	"sync/atomic"
)

// attemptsBeforeYielding defines the number of failed acquisition attempts
// after which Acquire invokes yieldFn (if set).
const attemptsBeforeYielding = 64

var (
	pauseFn = cpu.Pause

	// TODO: replace with real yield function when context-switching is implemented.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	for attempt := uint32(1); !atomic.CompareAndSwapUint32(&l.state, 0, 1); attempt++ {
		if yieldFn != nil && attempt%attemptsBeforeYielding == 0 {
			yieldFn()
			continue
		}
		pauseFn()
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
