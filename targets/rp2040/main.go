//go:build rp2040

package main

import (
	"device/arm"

	"picoblink/blink"
	"picoblink/core"
)

// variant selects the firmware preset at build time:
//
//	tinygo flash -target=pico -ldflags="-X main.variant=led" ./targets/rp2040
var variant = blink.VariantButton

func main() {
	InitDebug()
	core.SetHaltHandler(halt)

	cfg, err := blink.Preset(variant)
	core.Must(err)

	// Monotonic clock on the 1MHz TIMER; the alarm feeds the dispatcher
	var d *core.Dispatcher
	timer := InitClock(func() { d.OnAlarm() })
	d = core.NewDispatcher(core.NewMonotonic(timer))
	InitDispatchIRQ(d)

	gpio := NewRPGPIODriver()
	core.SetGPIODriver(gpio)

	led, err := newLEDLine(cfg)
	core.Must(err)

	_, err = blink.Setup(d, gpio, led, cfg)
	core.Must(err)

	d.Start()
	core.DebugPrintln("idle")

	for {
		core.FlushDebug()
		arm.Asm("wfi")
	}
}

// halt stops all task activity and parks the core. The diagnostic
// channel stays up.
func halt(reason string) {
	stopInterrupts()
	for {
		arm.Asm("wfi")
	}
}
