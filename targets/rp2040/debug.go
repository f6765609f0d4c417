//go:build rp2040

package main

import (
	"machine"

	"picoblink/core"
)

var lineEnd = []byte("\r\n")

// InitDebug routes diagnostics to the default serial port (USB CDC on the Pico)
func InitDebug() {
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write(lineEnd)
	})
}
