//go:build rp2040

package pio

// PIO LED backend using tinygo-org/pio package.
// The CPU only pushes the wanted level; the state machine holds the pin.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO program for level output
// Command word format:
//
//	Bit 0: pin level (1=high, 0=low)
//
// Program flow:
//  1. Pull 32-bit command from FIFO (blocks while empty, pin keeps its level)
//  2. Shift bit 0 out to the pin; the rest of the word is dropped by the next pull
//
// buildLEDProgram creates the LED PIO program using AssemblerV0
func buildLEDProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 1: out pins, 1
		// .wrap
	}
}

// LEDLine is a core.OutputLine backed by a PIO state machine
type LEDLine struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
}

// NewLEDLine loads the program and starts a state machine driving pin
// pioNum: 0 for PIO0, 1 for PIO1
// smNum: 0-3 for state machine number
func NewLEDLine(pioNum, smNum uint8, pin machine.Pin) (*LEDLine, error) {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}

	l := &LEDLine{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
		pin: pin,
	}

	// Claim the state machine before touching it
	l.sm.TryClaim()

	program := buildLEDProgram()
	offset, err := l.pio.AddProgram(program, -1)
	if err != nil {
		return nil, err
	}
	l.offset = offset

	l.pin.Configure(machine.PinConfig{Mode: l.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(l.pin, 1)
	// Shift right, no autopull (explicit PULL), 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	// Initialize state machine, then pin direction (must be after Init)
	l.sm.Init(offset, cfg)
	l.sm.SetPindirsConsecutive(l.pin, 1, true)
	l.sm.SetPinsConsecutive(l.pin, 1, false)
	l.sm.SetEnabled(true)

	return l, nil
}

// Set pushes the level to the state machine
func (l *LEDLine) Set(high bool) error {
	var cmd uint32
	if high {
		cmd = 1
	}

	for l.sm.IsTxFIFOFull() {
		// Busy wait - FIFO drains within a few cycles
	}
	l.sm.TxPut(cmd)
	return nil
}
