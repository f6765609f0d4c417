//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"picoblink/core"
)

// NVIC priorities (Cortex-M0+ uses the top two bits, lower is more urgent).
// The alarm only releases work; tasks run in the dispatch interrupt at the
// lowest level so GPIO interrupts can preempt them.
const (
	alarmIRQPriority    = 0x40
	dispatchIRQPriority = 0xC0

	// TIMER_IRQ_2 is never enabled in INTE, so only software pends it
	dispatchIRQNum = 2

	nvicISPR = 0xE000E200 // Interrupt set-pending register
)

var (
	nvicSetPending = (*volatile.Register32)(unsafe.Pointer(uintptr(nvicISPR)))

	dispatcher  *core.Dispatcher
	dispatchIRQ interrupt.Interrupt
)

// InitDispatchIRQ routes dispatch requests through a spare interrupt
func InitDispatchIRQ(d *core.Dispatcher) {
	dispatcher = d

	dispatchIRQ = interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) {
		dispatcher.Dispatch()
	})
	dispatchIRQ.SetPriority(dispatchIRQPriority)
	dispatchIRQ.Enable()

	d.SetPendHandler(pendDispatch)
}

// pendDispatch requests a dispatch pass from any context
func pendDispatch() {
	nvicSetPending.Set(1 << dispatchIRQNum)
}

// stopInterrupts silences the dispatcher's interrupts after a halt.
// USB stays up so the halt message still reaches the host.
func stopInterrupts() {
	alarmIRQ.Disable()
	dispatchIRQ.Disable()
	timerInte.ClearBits(alarmBit)
}
