//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ErrNilConfig is returned by Open without a configuration
var ErrNilConfig = errors.New("config cannot be nil")

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// Read reads data from the serial port. A read timeout returns 0 bytes
// and no error.
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) && p.cfg.ReadTimeout > 0 {
		return 0, nil
	}
	return n, err
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards data received but not yet read
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
