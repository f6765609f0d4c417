//go:build rp2040 && ws2812

package main

import (
	"image/color"
	"machine"

	"picoblink/blink"
	"picoblink/core"

	"tinygo.org/x/drivers/ws2812"
)

// Brightness of the single pixel when lit
var ws2812On = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}

// ws2812Line drives a single WS2812 pixel as an on/off LED, for boards
// whose on-board LED is addressable (RP2040-Zero, QT Py)
type ws2812Line struct {
	dev       ws2812.Device
	activeLow bool
	buf       [1]color.RGBA
}

func newLEDLine(cfg *blink.Config) (core.OutputLine, error) {
	pin := machine.Pin(cfg.LEDPin)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &ws2812Line{
		dev:       ws2812.New(pin),
		activeLow: cfg.ActiveLow,
	}, nil
}

// Set lights the pixel for the variant's active level
func (l *ws2812Line) Set(high bool) error {
	if high != l.activeLow {
		l.buf[0] = ws2812On
	} else {
		l.buf[0] = color.RGBA{}
	}
	return l.dev.WriteColors(l.buf[:])
}
