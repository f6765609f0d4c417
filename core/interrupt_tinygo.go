//go:build tinygo

package core

import "runtime/interrupt"

type interruptState = interrupt.State

// disableInterrupts masks interrupts and returns the previous state
func disableInterrupts() interruptState {
	return interrupt.Disable()
}

// restoreInterrupts restores the saved interrupt mask
func restoreInterrupts(state interruptState) {
	interrupt.Restore(state)
}

// inCriticalSection is only meaningful on host builds
func inCriticalSection() bool {
	return false
}
