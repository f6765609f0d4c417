//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"picoblink/core"
)

// RP2040 TIMER peripheral memory map. ALARM0 is left to the TinyGo
// runtime; the monotonic clock uses ALARM1.
const (
	timerBase     = 0x40054000
	timerALARM1   = timerBase + 0x14 // Alarm 1 compare (writing arms it)
	timerARMED    = timerBase + 0x20 // Armed status, write 1 to disarm
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word, no latching
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word, no latching
	timerINTR     = timerBase + 0x34 // Raw interrupts, write 1 to clear
	timerINTE     = timerBase + 0x38 // Interrupt enable
	timerINTF     = timerBase + 0x3C // Interrupt force

	alarmBit = 1 << 1

	// Largest offset the 32-bit compare can represent without matching early
	maxAlarmOffset = 0x7FFFFFFF
)

var (
	timerAlarm = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM1)))
	timerArmed = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	timerRAWH  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerIntr  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerInte  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
	timerIntf  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTF)))

	alarmHandler func()
	alarmIRQ     interrupt.Interrupt
)

// rpTimer is the RP2040 1MHz TIMER as a core.HardwareTimer
type rpTimer struct{}

// InitClock enables the alarm interrupt and returns the hardware timer.
// The RP2040 timer counts microseconds from reset, so no setup is needed
// beyond the interrupt.
func InitClock(onAlarm func()) core.HardwareTimer {
	alarmHandler = onAlarm

	alarmIRQ = interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) {
		// Acknowledge the compare and any forced fire
		timerIntf.ClearBits(alarmBit)
		timerIntr.Set(alarmBit)
		if alarmHandler != nil {
			alarmHandler()
		}
	})
	alarmIRQ.SetPriority(alarmIRQPriority)
	timerInte.SetBits(alarmBit)
	alarmIRQ.Enable()

	return rpTimer{}
}

// Ticks reads the full 64-bit counter
func (rpTimer) Ticks() uint64 {
	// Read high, low, high again to detect a carry between the reads
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// SetAlarm programs ALARM1. The compare only sees the low 32 bits, so a
// far deadline is split: the alarm fires early, finds nothing due, and
// the dispatcher re-arms it.
func (t rpTimer) SetAlarm(at uint64) {
	timerIntf.ClearBits(alarmBit)

	now := t.Ticks()
	if at > now && at-now > maxAlarmOffset {
		at = now + maxAlarmOffset
	}
	timerAlarm.Set(uint32(at))

	// A deadline that passed before the write never matches; force it
	if t.Ticks() >= at {
		timerIntf.SetBits(alarmBit)
	}
}

// ClearAlarm disarms ALARM1 and drops any pending fire
func (rpTimer) ClearAlarm() {
	timerArmed.Set(alarmBit)
	timerIntf.ClearBits(alarmBit)
	timerIntr.Set(alarmBit)
}
