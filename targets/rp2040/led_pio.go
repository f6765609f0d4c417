//go:build rp2040 && pioled

package main

import (
	"machine"

	"picoblink/blink"
	"picoblink/core"
	"picoblink/targets/pio"
)

// newLEDLine drives the LED pin from a PIO state machine (PIO0, SM0)
func newLEDLine(cfg *blink.Config) (core.OutputLine, error) {
	return pio.NewLEDLine(0, 0, machine.Pin(cfg.LEDPin))
}
