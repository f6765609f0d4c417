//go:build !tinygo

package core

// interruptState stands in for the saved PRIMASK on regular Go
type interruptState uintptr

// criticalDepth counts nested critical sections so tests can check that
// task bodies never run with "interrupts" masked.
var criticalDepth int

// disableInterrupts enters a critical section (host builds only count nesting)
func disableInterrupts() interruptState {
	criticalDepth++
	return interruptState(criticalDepth - 1)
}

// restoreInterrupts leaves a critical section
func restoreInterrupts(state interruptState) {
	criticalDepth = int(state)
}

// inCriticalSection reports whether a critical section is open
func inCriticalSection() bool {
	return criticalDepth > 0
}
