package blink

import (
	"errors"

	"picoblink/core"
)

// Board pins on the Raspberry Pi Pico
const (
	DefaultLEDPin    core.GPIOPin = 25
	DefaultButtonPin core.GPIOPin = 17
)

// Task priorities. The button outranks the blink so an edge is serviced
// even while a toggle is running.
const (
	TogglePriority core.Priority = 1
	ButtonPriority core.Priority = 2
)

// MissPolicy decides what a periodic task does when its re-spawn is rejected
type MissPolicy uint8

const (
	// MissHalt stops the firmware; silent schedule loss is worse than a visible halt
	MissHalt MissPolicy = iota
	// MissCoalesce keeps the already-pending instance and carries on
	MissCoalesce
)

func (p MissPolicy) String() string {
	switch p {
	case MissHalt:
		return "halt"
	case MissCoalesce:
		return "coalesce"
	default:
		return "unknown"
	}
}

// ParseMissPolicy converts a policy name
func ParseMissPolicy(name string) (MissPolicy, error) {
	switch name {
	case "", "halt":
		return MissHalt, nil
	case "coalesce":
		return MissCoalesce, nil
	default:
		return MissHalt, ErrUnknownPolicy
	}
}

// Config describes one firmware variant
type Config struct {
	Variant string

	// LED
	LEDPin    core.GPIOPin
	DriveLED  bool // false tracks the state without touching the pin
	ActiveLow bool // LED lights when the pin is driven low
	Period    core.Duration
	OnMiss    MissPolicy

	// Button
	Button     bool
	ButtonPin  core.GPIOPin
	ButtonEdge core.Edge
	Debounce   core.Duration // 0 disables debouncing
}

var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrUnknownPolicy  = errors.New("unknown miss policy")
	ErrZeroPeriod     = errors.New("blink period must be non-zero")
	ErrPinConflict    = errors.New("LED and button share a pin")
)

// Variant names
const (
	VariantTrack  = "track"
	VariantLED    = "led"
	VariantLEDLow = "led-low"
	VariantButton = "button"
)

// Variants lists the presets in order of growing functionality
var Variants = []string{VariantTrack, VariantLED, VariantLEDLow, VariantButton}

// Preset returns the configuration for a named variant
func Preset(name string) (*Config, error) {
	cfg := &Config{Variant: name}
	switch name {
	case VariantTrack:
	case VariantLED:
		cfg.DriveLED = true
	case VariantLEDLow:
		cfg.DriveLED = true
		cfg.ActiveLow = true
	case VariantButton:
		cfg.DriveLED = true
		cfg.ActiveLow = true
		cfg.Button = true
	default:
		return nil, ErrUnknownVariant
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.LEDPin == 0 {
		cfg.LEDPin = DefaultLEDPin
	}
	if cfg.Period == 0 {
		cfg.Period = core.OneSecondTicks
	}
	if cfg.ButtonPin == 0 {
		cfg.ButtonPin = DefaultButtonPin
	}
	if cfg.ButtonEdge == 0 {
		// Active-low button: a press is a falling edge
		cfg.ButtonEdge = core.EdgeFalling
	}
}

// Validate checks a configuration for values the tasks cannot run with
func (c *Config) Validate() error {
	if c.Period == 0 {
		return ErrZeroPeriod
	}
	if c.Button && c.DriveLED && c.ButtonPin == c.LEDPin {
		return ErrPinConflict
	}
	return nil
}
