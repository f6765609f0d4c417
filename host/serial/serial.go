// Package serial opens the board's diagnostic port.
package serial

import (
	"io"
)

// Port is what the monitor reads from. The native implementation wraps
// github.com/tarm/serial; tests can substitute any io.ReadWriteCloser.
type Port interface {
	io.ReadWriteCloser

	// Flush drops input received before the monitor attached
	Flush() error
}

// Config selects and tunes the diagnostic port
type Config struct {
	// Device path, such as /dev/ttyACM0 or COM3
	Device string

	// Baud rate (USB CDC ignores it, a UART bridge does not)
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration for the Pico's diagnostic port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 500,
	}
}
