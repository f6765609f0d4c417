package blink

import "picoblink/core"

// Button is the edge-interrupt task for the user button.
//
// Without a debounce window every edge runs the task, so contact bounce
// shows up as several presses.
type Button struct {
	gpio     core.GPIODriver
	pin      core.GPIOPin
	debounce core.Duration

	seen    bool
	last    core.Instant
	level   bool
	presses uint32
	ignored uint32
}

// NewButton creates the button task for a configured input pin
func NewButton(gpio core.GPIODriver, pin core.GPIOPin, debounce core.Duration) *Button {
	return &Button{gpio: gpio, pin: pin, debounce: debounce}
}

// Run acknowledges the edge, then samples and reports the pin
func (b *Button) Run(ctx *core.Context) {
	// Acknowledge first or the interrupt fires again on return
	b.gpio.ClearInterrupt(b.pin)

	at := ctx.Scheduled
	if b.debounce > 0 && b.seen && at.Sub(b.last) < b.debounce {
		b.ignored++
		return
	}
	b.seen = true
	b.last = at

	level, err := b.gpio.GetPin(b.pin)
	if err != nil {
		core.Halt("button: " + err.Error())
		return
	}
	b.level = level
	b.presses++

	core.DebugAsync("Button pressed")
	if level {
		core.DebugAsync("level=1")
	} else {
		core.DebugAsync("level=0")
	}
}

// Presses returns how many edges were accepted
func (b *Button) Presses() uint32 {
	return b.presses
}

// Ignored returns how many edges fell inside the debounce window
func (b *Button) Ignored() uint32 {
	return b.ignored
}

// Level returns the level sampled on the last accepted edge
func (b *Button) Level() bool {
	return b.level
}
