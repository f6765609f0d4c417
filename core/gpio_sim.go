package core

type simPinMode uint8

const (
	simUnconfigured simPinMode = iota
	simOutput
	simInputPullUp
)

type simPin struct {
	mode    simPinMode
	level   bool
	edge    Edge
	handler EdgeHandler
	pending bool
}

// PinWrite records one output change on a simulated pin
type PinWrite struct {
	At    Instant
	Pin   GPIOPin
	Level bool
}

// SimGPIO is an in-memory GPIODriver for host builds and tests.
// Inputs are driven with Drive, which raises edge interrupts the way
// the hardware would. Output writes are recorded with their time.
type SimGPIO struct {
	pins   map[GPIOPin]*simPin
	now    func() Instant
	writes []PinWrite
}

// NewSimGPIO creates a simulated GPIO bank. now timestamps output writes
// and may be nil.
func NewSimGPIO(now func() Instant) *SimGPIO {
	return &SimGPIO{
		pins: make(map[GPIOPin]*simPin),
		now:  now,
	}
}

func (g *SimGPIO) pin(pin GPIOPin) *simPin {
	p, ok := g.pins[pin]
	if !ok {
		p = &simPin{}
		g.pins[pin] = p
	}
	return p
}

// ConfigureOutput configures a pin as an output, initially low
func (g *SimGPIO) ConfigureOutput(pin GPIOPin) error {
	p := g.pin(pin)
	if p.mode == simInputPullUp {
		return ErrPinNotOutput
	}
	p.mode = simOutput
	return nil
}

// ConfigureInputPullUp configures a pin as an input that idles high
func (g *SimGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	p := g.pin(pin)
	if p.mode == simOutput {
		return ErrPinNotInput
	}
	p.mode = simInputPullUp
	p.level = true
	return nil
}

// SetPin drives an output pin
func (g *SimGPIO) SetPin(pin GPIOPin, value bool) error {
	p, ok := g.pins[pin]
	if !ok || p.mode == simUnconfigured {
		return ErrPinNotConfigured
	}
	if p.mode != simOutput {
		return ErrPinNotOutput
	}
	p.level = value

	var at Instant
	if g.now != nil {
		at = g.now()
	}
	g.writes = append(g.writes, PinWrite{At: at, Pin: pin, Level: value})
	return nil
}

// GetPin reads a pin level
func (g *SimGPIO) GetPin(pin GPIOPin) (bool, error) {
	p, ok := g.pins[pin]
	if !ok || p.mode == simUnconfigured {
		return false, ErrPinNotConfigured
	}
	return p.level, nil
}

// SetEdgeInterrupt enables edge detection on an input pin
func (g *SimGPIO) SetEdgeInterrupt(pin GPIOPin, edge Edge, handler EdgeHandler) error {
	p, ok := g.pins[pin]
	if !ok || p.mode != simInputPullUp {
		return ErrPinNotInput
	}
	p.edge = edge
	p.handler = handler
	return nil
}

// ClearInterrupt acknowledges a pending edge
func (g *SimGPIO) ClearInterrupt(pin GPIOPin) {
	if p, ok := g.pins[pin]; ok {
		p.pending = false
	}
}

// Pending reports whether an edge interrupt is waiting to be acknowledged
func (g *SimGPIO) Pending(pin GPIOPin) bool {
	p, ok := g.pins[pin]
	return ok && p.pending
}

// Drive sets the external level of an input pin, as a button or signal
// source would. A matching edge latches the pending flag and calls the
// handler synchronously, standing in for the interrupt.
func (g *SimGPIO) Drive(pin GPIOPin, level bool) error {
	p, ok := g.pins[pin]
	if !ok || p.mode != simInputPullUp {
		return ErrPinNotInput
	}
	if p.level == level {
		return nil
	}
	p.level = level

	var edge Edge
	if level {
		edge = EdgeRising
	} else {
		edge = EdgeFalling
	}
	if p.edge&edge == 0 {
		return nil
	}
	p.pending = true
	if p.handler != nil {
		p.handler(pin)
	}
	return nil
}

// Writes returns the recorded output changes
func (g *SimGPIO) Writes() []PinWrite {
	return g.writes
}

// WritesTo returns the recorded output changes for one pin
func (g *SimGPIO) WritesTo(pin GPIOPin) []PinWrite {
	var out []PinWrite
	for _, w := range g.writes {
		if w.Pin == pin {
			out = append(out, w)
		}
	}
	return out
}
