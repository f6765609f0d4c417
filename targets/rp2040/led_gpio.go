//go:build rp2040 && !ws2812 && !pioled

package main

import (
	"picoblink/blink"
	"picoblink/core"
)

// newLEDLine returns nil so the app drives the LED pin through the GPIO driver
func newLEDLine(cfg *blink.Config) (core.OutputLine, error) {
	return nil, nil
}
