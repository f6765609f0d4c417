package core

import "errors"

var (
	ErrPinNotConfigured = errors.New("pin not configured")
	ErrPinNotOutput     = errors.New("pin is not an output")
	ErrPinNotInput      = errors.New("pin is not an input")
)

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// Edge selects which input transitions raise an interrupt
type Edge uint8

const (
	EdgeFalling Edge = 1 << iota
	EdgeRising

	EdgeBoth = EdgeFalling | EdgeRising
)

// VectorGPIOBank0 is the RP2040 interrupt shared by all bank 0 GPIO pins
const VectorGPIOBank0 Vector = 13

// EdgeHandler is called from interrupt context when a configured edge
// is detected on a pin
type EdgeHandler func(pin GPIOPin)

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a push-pull output
	// Returns error if pin is invalid or already claimed as an input
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin drives an output high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin level
	GetPin(pin GPIOPin) (bool, error)

	// SetEdgeInterrupt enables edge interrupts on an input pin.
	// A nil handler disables them.
	SetEdgeInterrupt(pin GPIOPin, edge Edge, handler EdgeHandler) error

	// ClearInterrupt acknowledges a pending edge on a pin.
	// Handlers must call it or the interrupt fires again.
	ClearInterrupt(pin GPIOPin)
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or halts if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		Halt("GPIO driver not configured")
	}
	return gpioDriver
}

// OutputLine is a single logical output, such as an LED
type OutputLine interface {
	Set(high bool) error
}

// PinLine drives one GPIO pin through a GPIODriver
type PinLine struct {
	Driver GPIODriver
	Pin    GPIOPin
}

// NewPinLine configures pin as an output and returns it as a line
func NewPinLine(driver GPIODriver, pin GPIOPin) (*PinLine, error) {
	if err := driver.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	return &PinLine{Driver: driver, Pin: pin}, nil
}

// Set drives the pin
func (l *PinLine) Set(high bool) error {
	return l.Driver.SetPin(l.Pin, high)
}
