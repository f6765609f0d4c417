//go:build rp2040

package main

import (
	"machine"
	"runtime/volatile"
	"unsafe"

	"picoblink/core"
)

// IO_BANK0 raw interrupt registers, four bits per pin, eight pins per word.
// Edge bits are write-1-to-clear.
const (
	ioBank0Base  = 0x40014000
	ioBank0INTR0 = ioBank0Base + 0x0F0

	intrEdgeBits = 0xC // edge low | edge high
)

// RPGPIODriver implements the GPIODriver interface for RP2040
type RPGPIODriver struct {
	// Track configured pins to prevent conflicts
	outputs map[core.GPIOPin]machine.Pin
	inputs  map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		outputs: make(map[core.GPIOPin]machine.Pin),
		inputs:  make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a push-pull output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.outputs[pin]; exists {
		// Already configured, this is OK
		return nil
	}
	if _, exists := d.inputs[pin]; exists {
		return core.ErrPinNotOutput
	}

	// RP2040 pins map directly to GPIO numbers
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.outputs[pin] = machinePin
	return nil
}

// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	if _, exists := d.inputs[pin]; exists {
		return nil
	}
	if _, exists := d.outputs[pin]; exists {
		return core.ErrPinNotInput
	}

	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.inputs[pin] = machinePin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.outputs[pin]
	if !exists {
		return core.ErrPinNotOutput
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	if machinePin, exists := d.inputs[pin]; exists {
		return machinePin.Get(), nil
	}
	if machinePin, exists := d.outputs[pin]; exists {
		return machinePin.Get(), nil
	}
	return false, core.ErrPinNotConfigured
}

// SetEdgeInterrupt enables edge interrupts through the machine package,
// which owns the IO_IRQ_BANK0 vector and calls handler from it.
func (d *RPGPIODriver) SetEdgeInterrupt(pin core.GPIOPin, edge core.Edge, handler core.EdgeHandler) error {
	machinePin, exists := d.inputs[pin]
	if !exists {
		return core.ErrPinNotInput
	}
	if handler == nil {
		return machinePin.SetInterrupt(0, nil)
	}

	var change machine.PinChange
	if edge&core.EdgeFalling != 0 {
		change |= machine.PinFalling
	}
	if edge&core.EdgeRising != 0 {
		change |= machine.PinRising
	}
	return machinePin.SetInterrupt(change, func(p machine.Pin) {
		handler(core.GPIOPin(p))
	})
}

// ClearInterrupt acknowledges latched edges on a pin
func (d *RPGPIODriver) ClearInterrupt(pin core.GPIOPin) {
	reg := (*volatile.Register32)(unsafe.Pointer(uintptr(ioBank0INTR0 + 4*(uint32(pin)/8))))
	reg.Set(intrEdgeBits << (4 * (uint32(pin) % 8)))
}
