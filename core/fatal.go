package core

// HaltError is the panic value raised by the default halt handler
type HaltError struct {
	Reason string
}

func (e *HaltError) Error() string {
	return "halt: " + e.Reason
}

var (
	haltHandler func(reason string) = defaultHalt
	haltReason  string
	halted      bool
)

// defaultHalt panics so host builds and tests can observe the halt.
// Firmware replaces it with a handler that masks interrupts and spins.
func defaultHalt(reason string) {
	panic(&HaltError{Reason: reason})
}

// SetHaltHandler sets the platform-specific halt behaviour
func SetHaltHandler(handler func(reason string)) {
	if handler == nil {
		handler = defaultHalt
	}
	haltHandler = handler
}

// Halt stops the firmware on an unrecoverable error. The reason and the
// timing ring go to the diagnostic channel first, so a connected probe
// shows the last successful step.
func Halt(reason string) {
	halted = true
	haltReason = reason
	RecordTiming(EvtHalt, 0, 0, 0, 0)

	FlushDebug()
	DebugPrintln("halt: " + reason)
	DumpTimingRing()

	haltHandler(reason)
}

// Must halts if err is non-nil
func Must(err error) {
	if err != nil {
		Halt(err.Error())
	}
}

// IsHalted returns true once Halt has been called
func IsHalted() bool {
	return halted
}

// HaltReason returns the reason passed to Halt
func HaltReason() string {
	return haltReason
}

// ResetHalt clears the halt state (for tests and simulator restarts)
func ResetHalt() {
	halted = false
	haltReason = ""
}
