package core

import (
	"errors"
	"testing"
)

func TestSimGPIOOutput(t *testing.T) {
	timer := NewSimTimer()
	clock := NewMonotonic(timer)
	gpio := NewSimGPIO(clock.Now)

	pin := GPIOPin(25)
	if err := gpio.SetPin(pin, true); !errors.Is(err, ErrPinNotConfigured) {
		t.Errorf("Expected ErrPinNotConfigured, got %v", err)
	}

	line, err := NewPinLine(gpio, pin)
	if err != nil {
		t.Fatalf("NewPinLine failed: %v", err)
	}

	if err := line.Set(true); err != nil {
		t.Fatalf("Set(true) failed: %v", err)
	}
	state, err := gpio.GetPin(pin)
	if err != nil {
		t.Fatalf("GetPin failed: %v", err)
	}
	if !state {
		t.Errorf("Expected pin to be high, got low")
	}

	timer.Advance(42)
	if err := line.Set(false); err != nil {
		t.Fatalf("Set(false) failed: %v", err)
	}

	writes := gpio.WritesTo(pin)
	if len(writes) != 2 {
		t.Fatalf("Expected 2 writes, got %d", len(writes))
	}
	if writes[1].At != 42 || writes[1].Level {
		t.Errorf("Unexpected second write: %+v", writes[1])
	}

	if err := gpio.ConfigureInputPullUp(pin); !errors.Is(err, ErrPinNotInput) {
		t.Errorf("Expected ErrPinNotInput reconfiguring an output, got %v", err)
	}
}

func TestSimGPIOEdgeInterrupt(t *testing.T) {
	gpio := NewSimGPIO(nil)
	pin := GPIOPin(17)

	if err := gpio.ConfigureInputPullUp(pin); err != nil {
		t.Fatal(err)
	}
	if level, _ := gpio.GetPin(pin); !level {
		t.Error("Pulled-up input should idle high")
	}
	if err := gpio.SetPin(pin, false); !errors.Is(err, ErrPinNotOutput) {
		t.Errorf("Expected ErrPinNotOutput, got %v", err)
	}

	var edges []bool
	err := gpio.SetEdgeInterrupt(pin, EdgeFalling, func(p GPIOPin) {
		level, _ := gpio.GetPin(p)
		edges = append(edges, level)
	})
	if err != nil {
		t.Fatal(err)
	}

	_ = gpio.Drive(pin, false) // press: falling edge
	if !gpio.Pending(pin) {
		t.Error("Expected pending flag after falling edge")
	}
	gpio.ClearInterrupt(pin)
	if gpio.Pending(pin) {
		t.Error("ClearInterrupt should clear the pending flag")
	}

	_ = gpio.Drive(pin, false) // no change, no edge
	_ = gpio.Drive(pin, true)  // rising edge, not enabled

	if len(edges) != 1 || edges[0] {
		t.Errorf("Expected one falling edge reporting low, got %v", edges)
	}

	if err := gpio.SetEdgeInterrupt(GPIOPin(3), EdgeBoth, nil); !errors.Is(err, ErrPinNotInput) {
		t.Errorf("Expected ErrPinNotInput for unconfigured pin, got %v", err)
	}
}

func TestMustGPIOHaltsWithoutDriver(t *testing.T) {
	SetGPIODriver(nil)
	defer ResetHalt()

	defer func() {
		r := recover()
		halt, ok := r.(*HaltError)
		if !ok {
			t.Fatalf("Expected *HaltError panic, got %v", r)
		}
		if halt.Reason != "GPIO driver not configured" {
			t.Errorf("Unexpected reason: %q", halt.Reason)
		}
	}()
	MustGPIO()
}
